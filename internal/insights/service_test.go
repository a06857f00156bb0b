package insights

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/powerdash/pkg/models"
)

type fakeFetcher struct {
	rows   []models.Row
	err    error
	op     string
	params map[string]string
}

func (f *fakeFetcher) IndustryType(_ context.Context, params map[string]string) ([]models.Row, error) {
	f.op, f.params = "industry", params
	return f.rows, f.err
}

func (f *fakeFetcher) BusinessType(_ context.Context, params map[string]string) ([]models.Row, error) {
	f.op, f.params = "business", params
	return f.rows, f.err
}

func TestServiceTopIndustriesNeverSendsCity(t *testing.T) {
	f := &fakeFetcher{rows: sampleRows()}
	svc := NewService(f)

	got, err := svc.TopIndustries(context.Background(), IndustryQuery{
		Year: "2024", Month: "5", MetroCd: "30", City: "중구", Limit: 1,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "제조업", got[0].Biz)
	assert.Equal(t, 100.0, got[0].KWh)

	assert.Equal(t, "industry", f.op)
	assert.Equal(t, map[string]string{"year": "2024", "month": "5", "metroCd": "30"}, f.params)
}

func TestServiceCities(t *testing.T) {
	f := &fakeFetcher{rows: sampleRows()}
	got, err := NewService(f).Cities(context.Background(), CitiesQuery{Year: "2024", Month: "05", MetroCd: "30"})
	require.NoError(t, err)
	assert.Equal(t, []string{"서구", "중구"}, got)
}

func TestServiceBusinessTypesPassesRowsThrough(t *testing.T) {
	rows := []models.Row{{Biz: "x", PowerUsage: 1}, {Biz: "x", PowerUsage: 2}}
	f := &fakeFetcher{rows: rows}

	got, err := NewService(f).BusinessTypes(context.Background(), BusinessQuery{
		Year: "2024", Month: "05", Metro: "대전광역시", City: "중구",
	})
	require.NoError(t, err)
	assert.Equal(t, rows, got)
	assert.Equal(t, "business", f.op)
	assert.Equal(t, "대전광역시", f.params["metro"])
	assert.Equal(t, "중구", f.params["city"])
	assert.Equal(t, "", f.params["bizType"])
}

func TestServiceBusinessTypesRequiresNames(t *testing.T) {
	f := &fakeFetcher{}
	_, err := NewService(f).BusinessTypes(context.Background(), BusinessQuery{Year: "2024", Month: "05", Metro: "대전광역시"})
	assert.ErrorIs(t, err, ErrMissingFilter)
	assert.Empty(t, f.op)
}

func TestServicePropagatesUpstreamErrors(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeFetcher{err: boom}
	svc := NewService(f)

	_, err := svc.TopIndustries(context.Background(), IndustryQuery{Year: "2024", Month: "1", Limit: 10})
	assert.ErrorIs(t, err, boom)

	_, err = svc.Cities(context.Background(), CitiesQuery{Year: "2024", Month: "1", MetroCd: "11"})
	assert.ErrorIs(t, err, boom)
}
