// Package importer turns untrusted spreadsheet rows into typed records.
//
// The package has no I/O of its own. File parsing lives in the parser
// package, persistence in store, and the upload workflow in importjob.
//
// # Schemas
//
// Each importable entity is described by a [Schema]: an ordered list of
// [Field] values plus the identity fields used for deduplication. Schemas
// are registered at init time and never change afterwards:
//
//	importer.Register(&importer.Schema{
//	    ID:          "import_customers_v2",
//	    TargetModel: "customers",
//	    Fields: []importer.Field{
//	        {Key: "full_name", Label: "Nombre", Required: true, Aliases: []string{"nombre"}},
//	        {Key: "phone", Label: "Teléfono", Validator: importer.Phone("Teléfono inválido")},
//	    },
//	    IdentityFields: []string{"email"},
//	})
//
// # Detection
//
// [Detect] looks at headers and a sample of values and proposes a field for
// each column: exact key match first, then aliases, then a fuzzy match.
// Columns with no match are flagged as custom.
//
// # Processing
//
// [Process] resolves every field of every row, applies transforms, defaults,
// the required check and validators, and splits the rows into valid records
// and invalid rows with per-field errors. It never panics and never stops
// early because of a bad row. Source columns no field consumed are kept
// under [UnmappedKey].
package importer
