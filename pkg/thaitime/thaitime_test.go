package thaitime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUsesBuddhistYear(t *testing.T) {
	instant := time.Date(2025, time.March, 10, 23, 59, 0, 0, time.Local)
	assert.Equal(t, "10/03/2568 23:59", Format(instant))
}

func TestParseBuddhistEra(t *testing.T) {
	parsed, err := Parse("10/03/2568 23:59")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 10, 23, 59, 0, 0, time.Local), parsed)
}

func TestParseLegacyGregorianYear(t *testing.T) {
	// Rows written before the BE migration carry Gregorian years; the
	// heuristic must not subtract 543 from them.
	parsed, err := Parse("10/03/2025 23:59")
	require.NoError(t, err)
	assert.Equal(t, 2025, parsed.Year())
}

func TestParseDateOnlyDefaultsToEndOfDay(t *testing.T) {
	parsed, err := Parse("01/01/2569")
	require.NoError(t, err)
	assert.Equal(t, 23, parsed.Hour())
	assert.Equal(t, 59, parsed.Minute())
	assert.Equal(t, 2026, parsed.Year())
}

func TestRoundTripToTheMinute(t *testing.T) {
	instants := []time.Time{
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.Local),
		time.Date(2025, time.December, 31, 23, 59, 0, 0, time.Local),
		time.Date(2028, time.February, 29, 12, 30, 0, 0, time.Local),
		time.Now().Truncate(time.Minute),
	}
	for _, instant := range instants {
		parsed, err := Parse(Format(instant))
		require.NoError(t, err)
		assert.True(t, parsed.Equal(instant.Truncate(time.Minute)), "round trip of %v gave %v", instant, parsed)
	}
}

func TestParseRejectsUnknownFormats(t *testing.T) {
	for _, input := range []string{
		"",
		"not a date",
		"2568-03-10 23:59",
		"10/03/68 23:59",
		"10-03-2568 23:59",
	} {
		_, err := Parse(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, IsParseError(err))
	}
}

func TestParseRejectsImpossibleDates(t *testing.T) {
	for _, input := range []string{
		"32/01/2568 10:00",
		"29/02/2568 10:00", // 2025 is not a leap year
		"01/13/2568 10:00",
		"10/03/2568 24:00",
	} {
		_, err := Parse(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, IsParseError(err))
	}
}
