package insights

import (
	"sort"

	"github.com/jgoulah/powerdash/pkg/models"
)

// Summarize reduces facility records to per-facility totals, an hourly
// timeline and headline metrics. Empty input yields empty slices, nil
// extremes and zero averages.
func Summarize(facilities []models.Facility) models.UsageSummary {
	totals := make([]models.FacilityTotal, 0, len(facilities))
	for _, f := range facilities {
		totals = append(totals, models.FacilityTotal{
			ID:       f.ID,
			Name:     f.Name,
			Category: f.Category,
			Total:    facilityTotal(f),
			Baseline: f.Baseline,
		})
	}

	timeline := Timeline(facilities)

	var sum float64
	for _, p := range timeline {
		sum += p.KWh
	}
	var avg float64
	if len(timeline) > 0 {
		avg = sum / float64(len(timeline))
	}

	return models.UsageSummary{
		FacilityTotals: totals,
		Timeline:       timeline,
		Metrics: models.SummaryMetrics{
			HighestUsage: extreme(totals, func(a, b float64) bool { return a > b }),
			LowestUsage:  extreme(totals, func(a, b float64) bool { return a < b }),
			AverageUsage: avg,
			PeakHour:     peakHour(timeline),
			GrowthRate:   Growth(timeline),
		},
	}
}

func facilityTotal(f models.Facility) float64 {
	var total float64
	for _, p := range f.Usage {
		total += p.KWh
	}
	return total
}

// Timeline merges all facilities' usage by hour label and sorts the result
// by label. Hours should be zero-padded for the order to be chronological.
func Timeline(facilities []models.Facility) []models.TimelinePoint {
	byHour := make(map[string]float64)
	for _, f := range facilities {
		for _, p := range f.Usage {
			byHour[p.Hour] += p.KWh
		}
	}

	out := make([]models.TimelinePoint, 0, len(byHour))
	for hour, kwh := range byHour {
		out = append(out, models.TimelinePoint{Hour: hour, KWh: kwh})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Hour < out[j].Hour
	})
	return out
}

// Growth compares the last timeline point to the first.
// Percentage is 0 when the first point is 0.
func Growth(timeline []models.TimelinePoint) models.GrowthRate {
	if len(timeline) == 0 {
		return models.GrowthRate{}
	}
	first := timeline[0]
	last := timeline[len(timeline)-1]

	g := models.GrowthRate{Absolute: last.KWh - first.KWh}
	if first.KWh != 0 {
		g.Percentage = g.Absolute / first.KWh * 100
	}
	return g
}

// extreme returns a copy of the first total that beats every later one under better.
func extreme(totals []models.FacilityTotal, better func(a, b float64) bool) *models.FacilityTotal {
	var best *models.FacilityTotal
	for i := range totals {
		if best == nil || better(totals[i].Total, best.Total) {
			best = &totals[i]
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

func peakHour(timeline []models.TimelinePoint) *models.TimelinePoint {
	var peak *models.TimelinePoint
	for i := range timeline {
		if peak == nil || timeline[i].KWh > peak.KWh {
			peak = &timeline[i]
		}
	}
	if peak == nil {
		return nil
	}
	cp := *peak
	return &cp
}
