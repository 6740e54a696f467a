package schemas

import (
	"math"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

func init() {
	registerStock()
}

func registerStock() {
	importer.Register(&importer.Schema{
		ID:                       "import_stock_v1",
		TargetModel:              "stock",
		Label:                    "Importación de Inventario",
		IdentityFields:           []string{"sku"},
		DefaultDuplicateStrategy: importer.StrategyUpdate,
		BatchSize:                500,
		Fields: []importer.Field{
			{
				Key:       "sku",
				Label:     "Referencia",
				Type:      importer.FieldString,
				Required:  true,
				Aliases:   []string{"referencia", "ref", "codigo", "product_code"},
				Transform: importer.TransformUpper,
			},
			{
				Key:      "model",
				Label:    "Modelo",
				Type:     importer.FieldString,
				Required: true,
				Aliases:  []string{"modelo", "product_name", "producto", "nombre", "name"},
			},
			{
				Key:     "manufacturer",
				Label:   "Fabricante",
				Type:    importer.FieldString,
				Default: "Generic",
				Aliases: []string{"fabricante", "marca", "brand"},
			},
			{
				Key:       "type",
				Label:     "Tipo",
				Type:      importer.FieldSelect,
				Default:   importer.StockType.Default,
				Aliases:   []string{"tipo", "categoria", "category"},
				Options:   statusOptions(importer.StockType),
				Transform: importer.StockType.Transform,
			},
			{
				Key:       "price",
				Label:     "Precio",
				Type:      importer.FieldCurrency,
				Aliases:   []string{"precio", "coste", "cost_price", "pvp"},
				Transform: importer.TransformCurrency,
			},
			{
				Key:       "stock_quantity",
				Label:     "Cantidad",
				Type:      importer.FieldNumber,
				Aliases:   []string{"stock", "cantidad", "quantity", "unidades"},
				Validator: importer.Chain(importer.NonNegative("Cantidad inválida"), wholeUnits),
			},
		},
	})
}

// wholeUnits truncates a quantity to an integer number of units.
var wholeUnits = importer.ValidatorFunc(func(v any) (any, error) {
	f, _ := v.(float64)
	return int64(math.Trunc(f)), nil
})
