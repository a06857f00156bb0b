package models

import "encoding/json"

// Facility is one monitored site with hourly usage points.
type Facility struct {
	ID       string       `json:"id" yaml:"id"`
	Name     string       `json:"name" yaml:"name"`
	Category string       `json:"category" yaml:"category"`
	Usage    []UsagePoint `json:"usage" yaml:"usage"`
	Baseline any          `json:"baseline" yaml:"baseline"`
}

// UsagePoint is a single hour bucket. KWh tolerates strings and nulls on input.
type UsagePoint struct {
	Hour string  `json:"hour" yaml:"hour"`
	KWh  float64 `json:"kwh" yaml:"kwh"`
}

func (p *UsagePoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Hour any `json:"hour"`
		KWh  any `json:"kwh"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch h := raw.Hour.(type) {
	case string:
		p.Hour = h
	case nil:
		p.Hour = ""
	default:
		b, _ := json.Marshal(h)
		p.Hour = string(b)
	}
	p.KWh = FloatOrZero(raw.KWh)
	return nil
}

// FacilityTotal is a facility's summed usage.
type FacilityTotal struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Baseline any     `json:"baseline"`
}

// TimelinePoint is the merged usage of all facilities for one hour label.
type TimelinePoint struct {
	Hour string  `json:"hour"`
	KWh  float64 `json:"kwh"`
}

type GrowthRate struct {
	Absolute   float64 `json:"absolute"`
	Percentage float64 `json:"percentage"`
}

type SummaryMetrics struct {
	HighestUsage *FacilityTotal `json:"highestUsage"`
	LowestUsage  *FacilityTotal `json:"lowestUsage"`
	AverageUsage float64        `json:"averageUsage"`
	PeakHour     *TimelinePoint `json:"peakHour"`
	GrowthRate   GrowthRate     `json:"growthRate"`
}

// UsageSummary is the insights view over a set of facilities.
type UsageSummary struct {
	FacilityTotals []FacilityTotal `json:"facilityTotals"`
	Timeline       []TimelinePoint `json:"timeline"`
	Metrics        SummaryMetrics  `json:"metrics"`
}
