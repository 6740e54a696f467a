package importer

import "strings"

// KeywordMap maps free-text values to enum members by substring. Rules are
// checked in order; the first rule with a matching keyword wins.
type KeywordMap struct {
	Rules   []KeywordRule
	Default string
}

// KeywordRule assigns Value when the input contains any of Keywords.
type KeywordRule struct {
	Value    string
	Keywords []string
}

// Map returns the member for v, or Default when v is blank or matches
// nothing.
func (m KeywordMap) Map(v any) string {
	s := FoldName(toString(v))
	if s == "" {
		return m.Default
	}
	for _, r := range m.Rules {
		if strings.EqualFold(s, r.Value) {
			return r.Value
		}
		for _, kw := range r.Keywords {
			if strings.Contains(s, kw) {
				return r.Value
			}
		}
	}
	return m.Default
}

// Values lists the members the map can produce, default first.
func (m KeywordMap) Values() []string {
	out := []string{m.Default}
	for _, r := range m.Rules {
		if r.Value != m.Default {
			out = append(out, r.Value)
		}
	}
	return out
}

// Transform adapts the map for Field.Transform.
func (m KeywordMap) Transform(v any) (any, error) {
	return m.Map(v), nil
}

// LeadStatus maps CRM pipeline stages.
var LeadStatus = KeywordMap{
	Default: "new",
	Rules: []KeywordRule{
		{Value: "new", Keywords: []string{"nuevo", "new"}},
		{Value: "contacted", Keywords: []string{"contactado", "contacted"}},
		{Value: "qualified", Keywords: []string{"cualificado", "qualified"}},
		{Value: "proposal", Keywords: []string{"propuesta", "proposal"}},
		{Value: "won", Keywords: []string{"ganado", "won"}},
		{Value: "lost", Keywords: []string{"perdido", "lost"}},
	},
}

// VisitStatus maps appointment states.
var VisitStatus = KeywordMap{
	Default: "scheduled",
	Rules: []KeywordRule{
		{Value: "scheduled", Keywords: []string{"confirmada", "ok", "programada"}},
		{Value: "cancelled", Keywords: []string{"cancel"}},
		{Value: "completed", Keywords: []string{"realizada", "done", "complet"}},
	},
}

// SaleStatus maps payment states.
var SaleStatus = KeywordMap{
	Default: "pending",
	Rules: []KeywordRule{
		{Value: "confirmed", Keywords: []string{"pagad", "paid", "confirm"}},
		{Value: "pending", Keywords: []string{"pend", "draft", "borrador"}},
		{Value: "rejected", Keywords: []string{"cancel", "reject", "rechaz"}},
	},
}

// StockType maps product categories.
var StockType = KeywordMap{
	Default: "other",
	Rules: []KeywordRule{
		{Value: "panel", Keywords: []string{"panel", "modulo"}},
		{Value: "inverter", Keywords: []string{"inversor", "inverter"}},
		{Value: "battery", Keywords: []string{"bateria", "battery"}},
		{Value: "mounting", Keywords: []string{"estructura", "mounting"}},
		{Value: "optimizer", Keywords: []string{"optimi"}},
	},
}

// ProjectStatus maps installation project stages.
var ProjectStatus = KeywordMap{
	Default: "planning",
	Rules: []KeywordRule{
		{Value: "planning", Keywords: []string{"planific", "planning", "estudio", "presupuest"}},
		{Value: "completed", Keywords: []string{"termin", "finaliz", "complet", "done"}},
		{Value: "in_progress", Keywords: []string{"curso", "progress", "instala", "obra"}},
		{Value: "cancelled", Keywords: []string{"cancel", "anulad"}},
	},
}
