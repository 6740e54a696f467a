package schemas

import (
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

const (
	defaultVisitTime = "09:00"
	visitDuration    = time.Hour
	visitTimeLayout  = "2006-01-02T15:04:05"
)

func init() {
	registerVisits()
}

func registerVisits() {
	importer.Register(&importer.Schema{
		ID:                       "import_visits_v1",
		TargetModel:              "visits",
		Label:                    "Importación de Visitas",
		IdentityFields:           []string{"customer_email", "date", "time"},
		DefaultDuplicateStrategy: importer.StrategyAsk,
		Fields: []importer.Field{
			{
				Key:       "customer_name",
				Label:     "Cliente",
				Type:      importer.FieldString,
				Required:  true,
				Aliases:   []string{"cliente_nombre", "cliente", "nombre", "name"},
				Validator: importer.MinLength(2, "El nombre es muy corto"),
			},
			{
				Key:       "customer_email",
				Label:     "Email del Cliente",
				Type:      importer.FieldEmail,
				Aliases:   []string{"email", "correo"},
				Validator: importer.Email("Email inválido"),
			},
			{
				Key:       "customer_phone",
				Label:     "Teléfono del Cliente",
				Type:      importer.FieldPhone,
				Aliases:   []string{"cliente_telefono", "telefono", "phone"},
				Validator: importer.Phone("Teléfono inválido"),
			},
			{
				Key:       "date",
				Label:     "Fecha",
				Type:      importer.FieldDate,
				Required:  true,
				Aliases:   []string{"fecha", "fecha_visita", "dia"},
				Transform: importer.TransformDate,
			},
			{
				Key:       "time",
				Label:     "Hora",
				Type:      importer.FieldString,
				Default:   defaultVisitTime,
				Aliases:   []string{"hora", "hora_visita", "hora_visita_programada", "start_time"},
				Transform: importer.TransformTime,
			},
			{
				Key:       "status",
				Label:     "Estado",
				Type:      importer.FieldSelect,
				Default:   importer.VisitStatus.Default,
				Aliases:   []string{"estado", "estado_visita"},
				Options:   statusOptions(importer.VisitStatus),
				Transform: importer.VisitStatus.Transform,
			},
			{
				Key:     "description",
				Label:   "Descripción",
				Type:    importer.FieldString,
				Aliases: []string{"descripcion", "notas", "detalle", "detalle_lead"},
			},
		},
		TransformRow: scheduleVisit,
	})
}

// scheduleVisit derives the appointment window and title from the
// normalized date and time.
func scheduleVisit(rec importer.Record) (importer.Record, error) {
	date := cast.ToString(rec["date"])
	clock := cast.ToString(rec["time"])
	if clock == "" {
		clock = defaultVisitTime
	}

	start, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		return nil, fmt.Errorf("fecha u hora no válida: %s %s", date, clock)
	}
	rec["start_time"] = start.Format(visitTimeLayout)
	rec["end_time"] = start.Add(visitDuration).Format(visitTimeLayout)

	name := cast.ToString(rec["customer_name"])
	rec["title"] = "Visita: " + name
	if importer.IsEmpty(rec["description"]) {
		rec["description"] = "Visita comercial con " + name
	}
	return rec, nil
}
