package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateRangeSingleDay(t *testing.T) {
	r, err := ParseDateRange("", "", "2025-03-15", "", "")
	require.NoError(t, err)
	require.NotNil(t, r.From)
	require.NotNil(t, r.To)
	require.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), *r.From)
	require.Equal(t, time.Date(2025, 3, 15, 23, 59, 59, int(999*time.Millisecond), time.UTC), *r.To)
}

func TestParseDateRangeMonth(t *testing.T) {
	r, err := ParseDateRange("", "", "", "2", "2024")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *r.From)
	require.Equal(t, 29, r.To.Day())
	require.Equal(t, time.February, r.To.Month())
}

func TestParseDateRangeExplicitPair(t *testing.T) {
	r, err := ParseDateRange("2025-01-01", "2025-06-30", "", "", "")
	require.NoError(t, err)
	require.True(t, r.Contains(time.Date(2025, 6, 30, 18, 0, 0, 0, time.UTC)))
	require.False(t, r.Contains(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseDateRangeUnbounded(t *testing.T) {
	r, err := ParseDateRange("", "", "", "", "")
	require.NoError(t, err)
	require.True(t, r.Unbounded())
	require.True(t, r.Contains(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseDateRangeRejectsGarbage(t *testing.T) {
	_, err := ParseDateRange("", "", "15/03/2025", "", "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = ParseDateRange("", "", "", "7", "")
	require.ErrorIs(t, err, ErrValidation)
}
