package kepco

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAlternateSpellingAndStringNumbers(t *testing.T) {
	rows, err := Normalize(`{"data":[{"powerUseage":"12.5","bill":"300"}]}`)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, 12.5, r.PowerUsage)
	assert.Equal(t, 300.0, r.Bill)
	assert.Equal(t, int64(0), r.CustCnt)
	assert.Nil(t, r.UnitCost)
	assert.Equal(t, 0.0, r.CntrPwr)
}

func TestNormalizeRecoversFromSurroundingGarbage(t *testing.T) {
	rows, err := Normalize(`garbage-prefix{"data":[]}garbage-suffix`)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
}

func TestNormalizeBOMAndWhitespace(t *testing.T) {
	rows, err := Normalize([]byte("\ufeff  \n{\"totData\":[{\"biz\":\"제조업\",\"powerUsage\":10}]}\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "제조업", rows[0].Biz)
	assert.Equal(t, 10.0, rows[0].PowerUsage)
}

func TestNormalizeArraySliceFallback(t *testing.T) {
	// No object braces survive, so recovery falls through to the [ ] slice.
	parsed, err := Decode(`log: [1, 2, 3] done`)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, parsed)

	rows, err := Normalize(`log: [1, 2, 3] done`)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestNormalizeUnrecoverableBody(t *testing.T) {
	body := "<html>" + strings.Repeat("x", 500) + "</html>"

	rows, err := Normalize(body)
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.True(t, errors.Is(err, ErrMalformedResponse))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Len(t, []rune(perr.Sample), 300)
	assert.True(t, strings.HasPrefix(perr.Sample, "<html>xxx"))
}

func TestNormalizeNilAndEmpty(t *testing.T) {
	for _, raw := range []any{nil, "", "   ", "null"} {
		_, err := Normalize(raw)
		assert.ErrorIs(t, err, ErrMalformedResponse, "raw=%q", raw)
	}
}

func TestNormalizeStructuredInputIsNotReparsed(t *testing.T) {
	body := map[string]any{
		"data": []any{
			map[string]any{"biz": "A", "powerUsage": 5.0, "custCnt": 2.0, "metro": "서울특별시"},
		},
	}
	rows, err := Normalize(body)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].CustCnt)
	assert.Equal(t, "서울특별시", rows[0].Fields["metro"])
}

func TestResolveEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body any
		kind EnvelopeKind
		n    int
	}{
		{"data wins", map[string]any{"data": []any{map[string]any{}}, "totData": []any{}}, EnvelopeData, 1},
		{"totData when data is not an array", map[string]any{"data": "oops", "totData": []any{map[string]any{}, map[string]any{}}}, EnvelopeTotData, 2},
		{"neither", map[string]any{"result": "ok"}, EnvelopeEmpty, 0},
		{"top-level array", []any{map[string]any{}}, EnvelopeEmpty, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := ResolveEnvelope(tt.body)
			assert.Equal(t, tt.kind, env.Kind)
			assert.Len(t, env.Rows(), tt.n)
		})
	}
}

func TestCanonicalRowFieldResolution(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		check func(t *testing.T, raw map[string]any)
	}{
		{
			name: "first non-null alias wins",
			raw:  map[string]any{"powerUsage": nil, "powerUseage": "7", "bill": nil, "BILL": 4.5},
			check: func(t *testing.T, raw map[string]any) {
				r := CanonicalRow(raw)
				assert.Equal(t, 7.0, r.PowerUsage)
				assert.Equal(t, 4.5, r.Bill)
			},
		},
		{
			name: "cntr_power alias",
			raw:  map[string]any{"cntr_power": "120"},
			check: func(t *testing.T, raw map[string]any) {
				assert.Equal(t, 120.0, CanonicalRow(raw).CntrPwr)
			},
		},
		{
			name: "unit cost blank is null, zero is zero",
			raw:  map[string]any{"unitCost": ""},
			check: func(t *testing.T, raw map[string]any) {
				assert.Nil(t, CanonicalRow(raw).UnitCost)
				got := CanonicalRow(map[string]any{"unitCost": "0"}).UnitCost
				require.NotNil(t, got)
				assert.Equal(t, 0.0, *got)
			},
		},
		{
			name: "non numeric strings never leak",
			raw:  map[string]any{"powerUsage": "n/a", "bill": "1,200", "custCnt": "NaN", "unitCost": "abc"},
			check: func(t *testing.T, raw map[string]any) {
				r := CanonicalRow(raw)
				assert.Equal(t, 0.0, r.PowerUsage)
				assert.Equal(t, 0.0, r.Bill)
				assert.Equal(t, int64(0), r.CustCnt)
				assert.Nil(t, r.UnitCost)
			},
		},
		{
			name: "city trimmed",
			raw:  map[string]any{"city": "  중구 "},
			check: func(t *testing.T, raw map[string]any) {
				assert.Equal(t, "중구", CanonicalRow(raw).City)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.raw)
		})
	}
}

func TestRowJSONKeepsPassThroughFields(t *testing.T) {
	rows, err := Normalize(`{"data":[{"metro":"대전광역시","city":" 중구","biz":"B","powerUseage":"1","unitCost":"","extra":{"k":1}}]}`)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	b, err := json.Marshal(rows[0])
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "대전광역시", out["metro"])
	assert.Equal(t, "중구", out["city"])
	assert.Equal(t, "B", out["biz"])
	assert.Equal(t, 1.0, out["powerUsage"])
	assert.Equal(t, "1", out["powerUseage"])
	assert.Nil(t, out["unitCost"])
	assert.Contains(t, out, "unitCost")
	assert.Equal(t, 0.0, out["custCnt"])
	assert.Equal(t, map[string]any{"k": 1.0}, out["extra"])
}
