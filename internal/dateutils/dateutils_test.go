package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternToLayout(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
		wantErr bool
	}{
		{"MM/DD/YYYY", LayoutUS, false},
		{"yyyy-mm-dd", LayoutISO, false},
		{" DD-MM-YYYY ", LayoutDashDMY, false},
		{"julian", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := PatternToLayout(tt.pattern)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Contains(t, SupportedPatterns(), "MM/DD/YYYY")
}

func TestParseWithLayouts(t *testing.T) {
	layouts := []string{LayoutISO, LayoutUS, LayoutDashDMY}
	tests := []struct {
		name       string
		value      string
		wantISO    string
		wantLayout string
		wantErr    bool
	}{
		{"iso", "2024-03-05", "2024-03-05", LayoutISO, false},
		{"us padded", "03/05/2024", "2024-03-05", LayoutUS, false},
		{"us unpadded", "3/5/2024", "2024-03-05", LayoutUS, false},
		{"dash dmy", "05-03-2024", "2024-03-05", LayoutDashDMY, false},
		{"with time", "2024-03-05 13:45:00", "2024-03-05", LayoutISO, false},
		{"surrounding space", "  2024-03-05 ", "2024-03-05", LayoutISO, false},
		{"empty", "", "", "", true},
		{"garbage", "yesterday", "", "", true},
		{"impossible", "13/45/2024", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, layout, err := ParseWithLayouts(tt.value, layouts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantISO, ToISODate(got))
			assert.Equal(t, tt.wantLayout, layout)
		})
	}
}

func TestRankLayouts(t *testing.T) {
	layouts := []string{LayoutUS, LayoutSlashDMY}

	// 25/12/2024 only parses day-first.
	ranked := RankLayouts([]string{"01/02/2024", "25/12/2024", ""}, layouts)
	assert.Equal(t, []string{LayoutSlashDMY, LayoutUS}, ranked)

	// Ambiguous samples keep declared order.
	ranked = RankLayouts([]string{"01/02/2024"}, layouts)
	assert.Equal(t, layouts, ranked)
	assert.Equal(t, []string{LayoutUS, LayoutSlashDMY}, layouts)
}

func TestMonthBoundaries(t *testing.T) {
	leap := time.Date(2024, time.February, 17, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-02-01", ToISODate(StartOfMonth(leap)))
	assert.Equal(t, "2024-02-29", ToISODate(EndOfMonth(leap)))

	dec := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2023-12-31", ToISODate(EndOfMonth(dec)))
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", ToISODate(m))

	m, err = ParseMonth("2024-03-19")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", ToISODate(m))
	assert.Equal(t, "2024-03", MonthKey(m))

	_, err = ParseMonth("March")
	assert.Error(t, err)
}
