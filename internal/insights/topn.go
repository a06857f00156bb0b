// Package insights holds the pure reductions behind the dashboard views:
// industry top-N, city listing and the facility usage summary.
package insights

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/jgoulah/powerdash/pkg/models"
)

// Unclassified is the bucket for rows without a biz label.
const Unclassified = "(unclassified)"

// DefaultTopLimit caps TopIndustries when the caller gives no limit.
const DefaultTopLimit = 10

// FilterCity keeps rows whose trimmed city equals the trimmed filter.
// A blank filter keeps everything.
func FilterCity(rows []models.Row, city string) []models.Row {
	city = strings.TrimSpace(city)
	if city == "" {
		return rows
	}
	return lo.Filter(rows, func(r models.Row, _ int) bool {
		return strings.TrimSpace(r.City) == city
	})
}

// TopIndustries groups rows by biz, sums usage, bill and customers, and
// returns the limit largest groups by kWh. Ties keep first-seen order.
func TopIndustries(rows []models.Row, city string, limit int) []models.IndustryTotal {
	if limit <= 0 {
		return []models.IndustryTotal{}
	}

	type bucket struct {
		kwh, bill float64
		custCnt   int64
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, r := range FilterCity(rows, city) {
		key := r.Biz
		if key == "" {
			key = Unclassified
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			order = append(order, key)
		}
		b.kwh += r.PowerUsage
		b.bill += r.Bill
		b.custCnt += r.CustCnt
	}

	out := make([]models.IndustryTotal, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		total := models.IndustryTotal{
			Biz:     key,
			KWh:     b.kwh,
			Bill:    b.bill,
			CustCnt: b.custCnt,
		}
		if b.custCnt != 0 {
			perCust := b.kwh / float64(b.custCnt)
			total.KWhPerCust = &perCust
		}
		out = append(out, total)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].KWh > out[j].KWh
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Cities returns the distinct non-blank city names in rows, sorted.
func Cities(rows []models.Row) []string {
	names := lo.FilterMap(rows, func(r models.Row, _ int) (string, bool) {
		name := strings.TrimSpace(r.City)
		return name, name != ""
	})
	names = lo.Uniq(names)
	sort.Strings(names)
	return names
}
