package schemas

import "github.com/JonMunkholm/solarimport/internal/importer"

func init() {
	registerLeads()
}

func registerLeads() {
	importer.Register(&importer.Schema{
		ID:                       "import_leads_v1",
		TargetModel:              "leads",
		Label:                    "Importación de Leads",
		IdentityFields:           []string{"email", "phone"},
		DefaultDuplicateStrategy: importer.StrategySkip,
		Fields: []importer.Field{
			{
				Key:       "name",
				Label:     "Nombre",
				Type:      importer.FieldString,
				Required:  true,
				Aliases:   []string{"nombre", "full_name", "cliente", "contacto"},
				Validator: importer.MinLength(2, "El nombre es muy corto"),
			},
			{
				Key:       "email",
				Label:     "Email",
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
				Key:     "source",
				Label:   "Origen",
				Type:    importer.FieldString,
				Aliases: []string{"origen", "fuente", "canal"},
			},
			{
				Key:       "status",
				Label:     "Estado",
				Type:      importer.FieldSelect,
				Default:   importer.LeadStatus.Default,
				Aliases:   []string{"estado"},
				Options:   statusOptions(importer.LeadStatus),
				Transform: importer.LeadStatus.Transform,
			},
			{
				Key:     "notes",
				Label:   "Notas",
				Type:    importer.FieldString,
				Aliases: []string{"notas", "comentarios", "observaciones"},
			},
		},
	})
}

// statusOptions lists the members of m as select options.
func statusOptions(m importer.KeywordMap) []importer.Option {
	values := m.Values()
	opts := make([]importer.Option, len(values))
	for i, v := range values {
		opts[i] = importer.Option{Label: v, Value: v}
	}
	return opts
}
