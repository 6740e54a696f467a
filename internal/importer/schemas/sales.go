package schemas

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

func init() {
	registerSales()
}

func registerSales() {
	importer.Register(&importer.Schema{
		ID:                       "import_sales_v1",
		TargetModel:              "sales",
		Label:                    "Importación de Ventas",
		IdentityFields:           []string{"sale_number"},
		DefaultDuplicateStrategy: importer.StrategyError,
		Fields: []importer.Field{
			{
				Key:       "sale_number",
				Label:     "Expediente",
				Type:      importer.FieldString,
				Aliases:   []string{"expediente", "numero_venta", "n_expediente", "pedido"},
				Transform: importer.TransformUpper,
			},
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
				Aliases:   []string{"email", "correo", "cliente_email"},
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
				Key:       "dni",
				Label:     "DNI/NIF",
				Type:      importer.FieldString,
				Aliases:   []string{"nif", "cif", "documento"},
				Validator: importer.SpanishNIF("DNI/NIF inválido"),
			},
			{
				Key:       "amount",
				Label:     "Importe",
				Type:      importer.FieldCurrency,
				Aliases:   []string{"importe", "total", "precio"},
				Transform: importer.TransformCurrency,
			},
			{
				Key:       "sale_date",
				Label:     "Fecha de Venta",
				Type:      importer.FieldDate,
				Aliases:   []string{"fecha_venta", "fecha", "date"},
				Transform: importer.TransformDate,
			},
			{
				Key:       "payment_status",
				Label:     "Estado del Pago",
				Type:      importer.FieldSelect,
				Default:   importer.SaleStatus.Default,
				Aliases:   []string{"estado_venta", "estado", "status"},
				Options:   statusOptions(importer.SaleStatus),
				Transform: importer.SaleStatus.Transform,
			},
		},
		BeforeInsert: prepareSale,
	})
}

// prepareSale assigns an expediente number to sales that arrive without one
// and a customer access code to every sale.
func prepareSale(_ context.Context, rec importer.Record) (importer.Record, error) {
	if importer.IsEmpty(rec["sale_number"]) {
		rec["sale_number"] = "IMP-" + shortCode(8)
	}
	rec["access_code"] = shortCode(6)
	return rec, nil
}

func shortCode(n int) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return id[:n]
}
