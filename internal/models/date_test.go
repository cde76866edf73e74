package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestParseDisplayDate_YearlessUsesCurrentYear(t *testing.T) {
	parsed, unset, err := ParseDisplayDate("05/03", testNow)
	require.NoError(t, err)
	assert.False(t, unset)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), parsed)
}

func TestParseDisplayDate_ExplicitYear(t *testing.T) {
	parsed, unset, err := ParseDisplayDate("05/03/2019", testNow)
	require.NoError(t, err)
	assert.False(t, unset)
	assert.Equal(t, time.Date(2019, 3, 5, 0, 0, 0, 0, time.UTC), parsed)
}

func TestParseDisplayDate_UnsetSentinel(t *testing.T) {
	parsed, unset, err := ParseDisplayDate(UnsetDate, testNow)
	require.NoError(t, err, "the sentinel is valid input, not a parse failure")
	assert.True(t, unset)
	assert.True(t, parsed.IsZero())
}

func TestParseDisplayDate_Garbage(t *testing.T) {
	cases := []string{"", "5-3", "ab/cd", "32/01", "01/13", "31/02", "05/03/19", "1/2/3/4"}
	for _, input := range cases {
		_, unset, err := ParseDisplayDate(input, testNow)
		assert.ErrorIs(t, err, ErrInvalidDate, "input=%q", input)
		assert.False(t, unset, "input=%q", input)
	}
}

func TestFormatDisplayDate_RoundTrip(t *testing.T) {
	parsed, _, err := ParseDisplayDate("09/12", testNow)
	require.NoError(t, err)
	assert.Equal(t, "09/12", FormatDisplayDate(parsed))
}

func TestFormatDisplayDate_ZeroIsUnset(t *testing.T) {
	assert.Equal(t, UnsetDate, FormatDisplayDate(time.Time{}))
}

func TestSameDay_IgnoresYear(t *testing.T) {
	assert.True(t, SameDay("05/03", "05/03/2019", testNow))
	assert.True(t, SameDay("05/03/2019", "05/03/2024", testNow))
	assert.False(t, SameDay("05/03", "06/03", testNow))
}

func TestSameDay_UnsetNeverMatches(t *testing.T) {
	assert.False(t, SameDay(UnsetDate, UnsetDate, testNow))
	assert.False(t, SameDay(UnsetDate, "05/03", testNow))
}

func TestValidateDisplayTime(t *testing.T) {
	assert.NoError(t, ValidateDisplayTime(""))
	assert.NoError(t, ValidateDisplayTime("09:30"))
	assert.NoError(t, ValidateDisplayTime("23:59"))
	assert.ErrorIs(t, ValidateDisplayTime("24:00"), ErrInvalidTime)
	assert.ErrorIs(t, ValidateDisplayTime("9h30"), ErrInvalidTime)
	assert.ErrorIs(t, ValidateDisplayTime("09:60"), ErrInvalidTime)
}
