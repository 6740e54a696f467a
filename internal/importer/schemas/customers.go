package schemas

import "github.com/JonMunkholm/solarimport/internal/importer"

func init() {
	registerCustomersV1()
	registerCustomersV2()
}

var customerTypes = []importer.Option{
	{Label: "Residencial", Value: "residential"},
	{Label: "Empresa", Value: "business"},
	{Label: "Industrial", Value: "industrial"},
}

// registerCustomersV1 keeps the first customer layout importable for files
// exported by older installations. The tax id was optional then.
func registerCustomersV1() {
	importer.Register(&importer.Schema{
		ID:                       "import_customers_v1",
		TargetModel:              "customers",
		Label:                    "Importación de Clientes (v1)",
		IdentityFields:           []string{"email"},
		DefaultDuplicateStrategy: importer.StrategySkip,
		Fields: []importer.Field{
			{
				Key:       "full_name",
				Label:     "Nombre Completo",
				Type:      importer.FieldString,
				Required:  true,
				Aliases:   []string{"nombre", "name", "cliente", "razon_social"},
				Validator: importer.MinLength(2, "El nombre es muy corto"),
			},
			{
				Key:       "email",
				Label:     "Correo Electrónico",
				Type:      importer.FieldEmail,
				Aliases:   []string{"correo", "mail", "e-mail"},
				Validator: importer.Email("Email inválido"),
			},
			{
				Key:       "phone",
				Label:     "Teléfono",
				Type:      importer.FieldPhone,
				Aliases:   []string{"telefono", "celular", "movil"},
				Validator: importer.Phone("Teléfono inválido"),
			},
			{
				Key:       "vat_number",
				Label:     "NIF/CIF",
				Type:      importer.FieldString,
				Aliases:   []string{"nif", "cif", "dni", "identificacion"},
				Transform: importer.TransformTaxID,
			},
			{
				Key:     "address",
				Label:   "Dirección",
				Type:    importer.FieldString,
				Aliases: []string{"direccion", "domicilio", "calle"},
			},
			{
				Key:       "type",
				Label:     "Tipo de Cliente",
				Type:      importer.FieldSelect,
				Required:  true,
				Default:   "residential",
				Options:   customerTypes,
				Validator: importer.OptionsValidator("Tipo de cliente inválido", customerTypes),
			},
		},
	})
}

func registerCustomersV2() {
	importer.Register(&importer.Schema{
		ID:                       "import_customers_v2",
		TargetModel:              "customers",
		Label:                    "Importación de Clientes",
		IdentityFields:           []string{"email"},
		DefaultDuplicateStrategy: importer.StrategySkip,
		BatchSize:                200,
		Fields: []importer.Field{
			{
				Key:       "full_name",
				Label:     "Nombre Completo",
				Type:      importer.FieldString,
				Required:  true,
				Aliases:   []string{"nombre", "name", "cliente", "razon_social"},
				Validator: importer.MinLength(2, "El nombre es muy corto"),
			},
			{
				Key:       "email",
				Label:     "Correo Electrónico",
				Type:      importer.FieldEmail,
				Aliases:   []string{"correo", "mail", "e-mail"},
				Validator: importer.Email("Email inválido"),
			},
			{
				Key:       "phone",
				Label:     "Teléfono",
				Type:      importer.FieldPhone,
				Aliases:   []string{"telefono", "celular", "movil"},
				Validator: importer.Phone("Teléfono inválido"),
			},
			{
				Key:         "vat_number",
				Label:       "NIF/CIF",
				Type:        importer.FieldString,
				Required:    true,
				Aliases:     []string{"nif", "cif", "dni", "identificacion"},
				Validator:   importer.TaxID("NIF/CIF inválido"),
				Description: "DNI, NIE o CIF del titular",
			},
			{
				Key:     "address",
				Label:   "Dirección",
				Type:    importer.FieldString,
				Aliases: []string{"direccion", "domicilio", "calle"},
			},
			{
				Key:       "city",
				Label:     "Ciudad",
				Type:      importer.FieldString,
				Aliases:   []string{"ciudad", "localidad", "poblacion", "municipio"},
				Transform: importer.TransformTrim,
			},
			{
				Key:       "province",
				Label:     "Provincia",
				Type:      importer.FieldString,
				Aliases:   []string{"provincia", "region"},
				Transform: TransformProvince,
			},
			{
				Key:       "postal_code",
				Label:     "Código Postal",
				Type:      importer.FieldString,
				Aliases:   []string{"codigo_postal", "cp", "zip"},
				Validator: PostalCode("Código postal inválido"),
			},
			{
				Key:       "type",
				Label:     "Tipo de Cliente",
				Type:      importer.FieldSelect,
				Required:  true,
				Default:   "residential",
				Options:   customerTypes,
				Validator: importer.OptionsValidator("Tipo de cliente inválido", customerTypes),
			},
		},
	})
}
