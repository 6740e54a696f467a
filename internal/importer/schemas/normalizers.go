package schemas

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

// Provinces maps folded Spanish province names, including common
// alternative spellings, to their official name.
var Provinces = map[string]string{
	"a coruna":               "A Coruña",
	"la coruna":              "A Coruña",
	"coruna":                 "A Coruña",
	"alava":                  "Álava",
	"araba":                  "Álava",
	"albacete":               "Albacete",
	"alicante":               "Alicante",
	"alacant":                "Alicante",
	"almeria":                "Almería",
	"asturias":               "Asturias",
	"avila":                  "Ávila",
	"badajoz":                "Badajoz",
	"baleares":               "Illes Balears",
	"illes balears":          "Illes Balears",
	"islas baleares":         "Illes Balears",
	"barcelona":              "Barcelona",
	"burgos":                 "Burgos",
	"caceres":                "Cáceres",
	"cadiz":                  "Cádiz",
	"cantabria":              "Cantabria",
	"castellon":              "Castellón",
	"castello":               "Castellón",
	"ceuta":                  "Ceuta",
	"ciudad real":            "Ciudad Real",
	"cordoba":                "Córdoba",
	"cuenca":                 "Cuenca",
	"girona":                 "Girona",
	"gerona":                 "Girona",
	"granada":                "Granada",
	"guadalajara":            "Guadalajara",
	"gipuzkoa":               "Gipuzkoa",
	"guipuzcoa":              "Gipuzkoa",
	"huelva":                 "Huelva",
	"huesca":                 "Huesca",
	"jaen":                   "Jaén",
	"la rioja":               "La Rioja",
	"rioja":                  "La Rioja",
	"las palmas":             "Las Palmas",
	"leon":                   "León",
	"lleida":                 "Lleida",
	"lerida":                 "Lleida",
	"lugo":                   "Lugo",
	"madrid":                 "Madrid",
	"malaga":                 "Málaga",
	"melilla":                "Melilla",
	"murcia":                 "Murcia",
	"navarra":                "Navarra",
	"nafarroa":               "Navarra",
	"ourense":                "Ourense",
	"orense":                 "Ourense",
	"palencia":               "Palencia",
	"pontevedra":             "Pontevedra",
	"salamanca":              "Salamanca",
	"santa cruz de tenerife": "Santa Cruz de Tenerife",
	"tenerife":               "Santa Cruz de Tenerife",
	"segovia":                "Segovia",
	"sevilla":                "Sevilla",
	"soria":                  "Soria",
	"tarragona":              "Tarragona",
	"teruel":                 "Teruel",
	"toledo":                 "Toledo",
	"valencia":               "Valencia",
	"valladolid":             "Valladolid",
	"bizkaia":                "Bizkaia",
	"vizcaya":                "Bizkaia",
	"zamora":                 "Zamora",
	"zaragoza":               "Zaragoza",
}

// NormalizeProvince converts a province name to its official spelling.
// Unknown names are returned trimmed but otherwise unchanged.
func NormalizeProvince(s string) string {
	s = strings.TrimSpace(s)
	if name, ok := Provinces[importer.FoldName(s)]; ok {
		return name
	}
	return s
}

// TransformProvince adapts NormalizeProvince for Field.Transform.
func TransformProvince(v any) (any, error) {
	return NormalizeProvince(cast.ToString(v)), nil
}

var postalCodePattern = regexp.MustCompile(`^(0[1-9]|[1-4]\d|5[0-2])\d{3}$`)

// PostalCode accepts five-digit Spanish postal codes. Spreadsheets often
// store them as numbers and lose the leading zero, so 8001 becomes 08001.
func PostalCode(msg string) importer.Validator {
	return importer.ValidatorFunc(func(v any) (any, error) {
		s := strings.TrimSpace(cast.ToString(v))
		if s == "" {
			return nil, errors.New(msg)
		}
		if len(s) == 4 {
			s = "0" + s
		}
		if err := validation.Validate(s, validation.Match(postalCodePattern).Error(msg)); err != nil {
			return nil, err
		}
		return s, nil
	})
}
