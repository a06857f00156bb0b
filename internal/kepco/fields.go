package kepco

import (
	"fmt"
	"strings"

	"github.com/jgoulah/powerdash/pkg/models"
)

// nullPolicy says what a canonical numeric field becomes when no alias
// carries a usable value.
type nullPolicy int

const (
	zeroWhenMissing nullPolicy = iota
	nullWhenMissing
)

// fieldSpec lists the upstream spellings of one canonical field, in lookup order.
type fieldSpec struct {
	canonical string
	aliases   []string
	policy    nullPolicy
}

// KEPCO mixes spellings between endpoints ("powerUseage" is theirs).
// New variants go at the end of the relevant alias list.
var numericFields = []fieldSpec{
	{canonical: "powerUsage", aliases: []string{"powerUsage", "powerUseage"}},
	{canonical: "bill", aliases: []string{"bill", "BILL"}},
	{canonical: "custCnt", aliases: []string{"custCnt"}},
	{canonical: "unitCost", aliases: []string{"unitCost"}, policy: nullWhenMissing},
	{canonical: "cntrPwr", aliases: []string{"cntrPwr", "cntr_power"}},
}

// lookup returns the first alias whose value is present and not JSON null.
func (f fieldSpec) lookup(raw map[string]any) (any, bool) {
	for _, name := range f.aliases {
		if v, ok := raw[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// resolve applies the field's coercion: zero-policy fields always yield a
// number, null-policy fields yield nil for missing, blank, or non-numeric input.
func (f fieldSpec) resolve(raw map[string]any) *float64 {
	v, ok := f.lookup(raw)
	if !ok {
		return f.missing()
	}
	n, ok := models.ToFloat(v)
	if !ok {
		return f.missing()
	}
	return &n
}

func (f fieldSpec) missing() *float64 {
	if f.policy == nullWhenMissing {
		return nil
	}
	zero := 0.0
	return &zero
}

// CanonicalRow turns one upstream object into a typed row. The input map is
// kept as the row's pass-through fields and is not modified.
func CanonicalRow(raw map[string]any) models.Row {
	row := models.Row{
		Biz:    stringField(raw["biz"]),
		City:   strings.TrimSpace(stringField(raw["city"])),
		Fields: raw,
	}

	for _, f := range numericFields {
		v := f.resolve(raw)
		switch f.canonical {
		case "powerUsage":
			row.PowerUsage = *v
		case "bill":
			row.Bill = *v
		case "custCnt":
			row.CustCnt = int64(*v)
		case "unitCost":
			row.UnitCost = v
		case "cntrPwr":
			row.CntrPwr = *v
		}
	}
	return row
}

func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
