package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/powerdash/pkg/models"
)

func sampleRows() []models.Row {
	return []models.Row{
		{Biz: "제조업", City: "중구", PowerUsage: 100, Bill: 1000, CustCnt: 4},
		{Biz: "도소매업", City: "중구", PowerUsage: 50, Bill: 700, CustCnt: 0},
		{Biz: "", City: "서구", PowerUsage: 30, Bill: 90, CustCnt: 3},
		{Biz: "제조업", City: " 서구 ", PowerUsage: 20, Bill: 200, CustCnt: 1},
		{Biz: "숙박업", City: "서구", PowerUsage: 50, Bill: 10, CustCnt: 5},
	}
}

func TestTopIndustriesGroupsAndSorts(t *testing.T) {
	got := TopIndustries(sampleRows(), "", DefaultTopLimit)
	require.Len(t, got, 4)

	assert.Equal(t, "제조업", got[0].Biz)
	assert.Equal(t, 120.0, got[0].KWh)
	assert.Equal(t, 1200.0, got[0].Bill)
	assert.Equal(t, int64(5), got[0].CustCnt)
	require.NotNil(t, got[0].KWhPerCust)
	assert.Equal(t, 24.0, *got[0].KWhPerCust)

	// 50 kWh tie: first appearance wins.
	assert.Equal(t, "도소매업", got[1].Biz)
	assert.Nil(t, got[1].KWhPerCust)
	assert.Equal(t, "숙박업", got[2].Biz)
	assert.Equal(t, 10.0, *got[2].KWhPerCust)

	assert.Equal(t, Unclassified, got[3].Biz)
	assert.Equal(t, 30.0, got[3].KWh)
	assert.Equal(t, 90.0, got[3].Bill)
	assert.Equal(t, int64(3), got[3].CustCnt)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].KWh, got[i].KWh)
	}
}

func TestTopIndustriesCityFilterIsTrimmed(t *testing.T) {
	got := TopIndustries(sampleRows(), "  서구", DefaultTopLimit)
	require.Len(t, got, 3)
	assert.Equal(t, "숙박업", got[0].Biz)
	assert.Equal(t, Unclassified, got[1].Biz)
	assert.Equal(t, "제조업", got[2].Biz)
	assert.Equal(t, 20.0, got[2].KWh)
}

func TestTopIndustriesLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero", 0, 0},
		{"negative", -3, 0},
		{"smaller than groups", 2, 2},
		{"larger than groups", 50, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopIndustries(sampleRows(), "", tt.limit)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestTopIndustriesEmptyInput(t *testing.T) {
	got := TopIndustries(nil, "중구", 10)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestKWhPerCustNullOnlyForZeroCustomers(t *testing.T) {
	rows := []models.Row{
		{Biz: "A", PowerUsage: 10, CustCnt: 0},
		{Biz: "B", PowerUsage: 0, CustCnt: 2},
	}
	got := TopIndustries(rows, "", 10)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].KWhPerCust)
	require.NotNil(t, got[1].KWhPerCust)
	assert.Equal(t, 0.0, *got[1].KWhPerCust)
}

func TestCities(t *testing.T) {
	rows := append(sampleRows(), models.Row{City: "  "}, models.Row{City: "동구"})
	assert.Equal(t, []string{"동구", "서구", "중구"}, Cities(rows))
	assert.Empty(t, Cities(nil))
}
