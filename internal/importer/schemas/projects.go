package schemas

import "github.com/JonMunkholm/solarimport/internal/importer"

func init() {
	registerProjects()
}

func registerProjects() {
	importer.Register(&importer.Schema{
		ID:                       "import_projects_v1",
		TargetModel:              "projects",
		Label:                    "Importación de Proyectos",
		IdentityFields:           []string{"name"},
		DefaultDuplicateStrategy: importer.StrategySkip,
		Fields: []importer.Field{
			{
				Key:       "name",
				Label:     "Nombre del Proyecto",
				Type:      importer.FieldString,
				Required:  true,
				Aliases:   []string{"proyecto", "nombre_proyecto", "project", "nombre"},
				Validator: importer.MinLength(3, "El nombre del proyecto es muy corto"),
			},
			{
				Key:       "customer_email",
				Label:     "Email del Cliente",
				Type:      importer.FieldEmail,
				Aliases:   []string{"email", "correo", "email_cliente"},
				Validator: importer.Email("Email inválido"),
			},
			{
				Key:     "address",
				Label:   "Dirección de la Instalación",
				Type:    importer.FieldString,
				Aliases: []string{"direccion", "ubicacion", "emplazamiento"},
			},
			{
				Key:       "capacity_kw",
				Label:     "Potencia (kWp)",
				Type:      importer.FieldNumber,
				Aliases:   []string{"potencia", "kwp", "potencia_kwp", "kw"},
				Validator: importer.NonNegative("Potencia inválida"),
			},
			{
				Key:       "panel_count",
				Label:     "Número de Paneles",
				Type:      importer.FieldNumber,
				Aliases:   []string{"paneles", "num_paneles", "modulos"},
				Validator: importer.NonNegative("Número de paneles inválido"),
			},
			{
				Key:       "estimated_cost",
				Label:     "Presupuesto",
				Type:      importer.FieldCurrency,
				Aliases:   []string{"presupuesto", "coste", "importe", "precio"},
				Validator: importer.StrictCurrency("Importe inválido"),
			},
			{
				Key:       "start_date",
				Label:     "Fecha de Inicio",
				Type:      importer.FieldDate,
				Aliases:   []string{"fecha_inicio", "inicio", "fecha"},
				Transform: importer.TransformDate,
			},
			{
				Key:       "status",
				Label:     "Estado",
				Type:      importer.FieldSelect,
				Default:   importer.ProjectStatus.Default,
				Aliases:   []string{"estado", "fase"},
				Options:   statusOptions(importer.ProjectStatus),
				Transform: importer.ProjectStatus.Transform,
			},
		},
	})
}
