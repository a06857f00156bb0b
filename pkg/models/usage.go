package models

import "encoding/json"

// Row is one canonical usage row from the KEPCO statistics API.
// Numeric fields are always typed; Fields keeps every upstream key verbatim.
type Row struct {
	Biz        string
	City       string
	PowerUsage float64  // kWh
	Bill       float64  // KRW
	CustCnt    int64    // customer count
	UnitCost   *float64 // nil when upstream sent nothing usable
	CntrPwr    float64  // contracted power
	Fields     map[string]any
}

// MarshalJSON writes the pass-through fields with the canonical ones on top.
func (r Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+5)
	for k, v := range r.Fields {
		out[k] = v
	}
	if _, ok := r.Fields["biz"]; ok || r.Biz != "" {
		out["biz"] = r.Biz
	}
	if _, ok := r.Fields["city"]; ok || r.City != "" {
		out["city"] = r.City
	}
	out["powerUsage"] = r.PowerUsage
	out["bill"] = r.Bill
	out["custCnt"] = r.CustCnt
	if r.UnitCost != nil {
		out["unitCost"] = *r.UnitCost
	} else {
		out["unitCost"] = nil
	}
	out["cntrPwr"] = r.CntrPwr
	return json.Marshal(out)
}

// IndustryTotal is one biz bucket of the top-N industry view.
type IndustryTotal struct {
	Biz        string   `json:"biz"`
	KWh        float64  `json:"kwh"`
	Bill       float64  `json:"bill"`
	CustCnt    int64    `json:"custCnt"`
	KWhPerCust *float64 `json:"kwhPerCust"`
}
