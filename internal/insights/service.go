package insights

import (
	"context"
	"errors"
	"fmt"

	"github.com/jgoulah/powerdash/pkg/models"
)

// ErrMissingFilter is returned when a required name filter is blank.
var ErrMissingFilter = errors.New("missing required filter")

// Fetcher is the upstream client as seen by the views.
type Fetcher interface {
	IndustryType(ctx context.Context, params map[string]string) ([]models.Row, error)
	BusinessType(ctx context.Context, params map[string]string) ([]models.Row, error)
}

// CitiesQuery selects the region whose city names are listed.
type CitiesQuery struct {
	Year    string
	Month   string
	MetroCd string
}

// IndustryQuery selects the rows for the top-N industry view. City is
// matched by name after the fetch; cityCd is never sent upstream.
type IndustryQuery struct {
	Year    string
	Month   string
	MetroCd string
	City    string
	Limit   int
}

// BusinessQuery selects business-type rows for one named metro and city.
type BusinessQuery struct {
	Year    string
	Month   string
	Metro   string
	City    string
	BizType string
}

// Service composes upstream fetches with the pure reductions.
type Service struct {
	fetcher Fetcher
}

func NewService(f Fetcher) *Service {
	return &Service{fetcher: f}
}

// Cities lists the distinct city names reported for a metro.
func (s *Service) Cities(ctx context.Context, q CitiesQuery) ([]string, error) {
	rows, err := s.fetcher.IndustryType(ctx, map[string]string{
		"year":    q.Year,
		"month":   q.Month,
		"metroCd": q.MetroCd,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching industry rows: %w", err)
	}
	return Cities(rows), nil
}

// TopIndustries fetches industry rows and reduces them to the top-N view.
func (s *Service) TopIndustries(ctx context.Context, q IndustryQuery) ([]models.IndustryTotal, error) {
	rows, err := s.fetcher.IndustryType(ctx, map[string]string{
		"year":    q.Year,
		"month":   q.Month,
		"metroCd": q.MetroCd,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching industry rows: %w", err)
	}
	return TopIndustries(rows, q.City, q.Limit), nil
}

// BusinessTypes returns the canonical business-type rows unaggregated;
// summing per business type is left to the dashboard.
func (s *Service) BusinessTypes(ctx context.Context, q BusinessQuery) ([]models.Row, error) {
	if q.Metro == "" || q.City == "" {
		return nil, fmt.Errorf("metro and city are required: %w", ErrMissingFilter)
	}
	rows, err := s.fetcher.BusinessType(ctx, map[string]string{
		"year":    q.Year,
		"month":   q.Month,
		"metro":   q.Metro,
		"city":    q.City,
		"bizType": q.BizType,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching business type rows: %w", err)
	}
	return rows, nil
}
