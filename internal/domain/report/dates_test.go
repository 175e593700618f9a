package report

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDateSerialEpoch(t *testing.T) {
	got, ok := ParseDate(2)
	require.True(t, ok)
	assert.Equal(t, day(1900, time.January, 1), got)

	got, ok = ParseDate(1.0)
	require.True(t, ok)
	assert.Equal(t, day(1899, time.December, 31), got)

	got, ok = ParseDate(int64(45292))
	require.True(t, ok)
	assert.Equal(t, day(2024, time.January, 1), got)

	got, ok = ParseDate(45292.5)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC), got)

	got, ok = ParseDate(json.Number("45322"))
	require.True(t, ok)
	assert.Equal(t, day(2024, time.January, 31), got)
}

func TestParseDateStrings(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"15.01.2024", day(2024, time.January, 15)},
		{" 15.01.2024 ", day(2024, time.January, 15)},
		{"5.1.2024", day(2024, time.January, 5)},
		{"15.01.2024 10:30", time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)},
		{"15.01.2024 10:30:15", time.Date(2024, time.January, 15, 10, 30, 15, 0, time.UTC)},
		{"15.01.24", day(2024, time.January, 15)},
		{"15.01.85", day(1985, time.January, 15)},
		{"15.01.69", day(2069, time.January, 15)},
		{"15.01.70", day(1970, time.January, 15)},
		{"03/04/2024", day(2024, time.April, 3)},
		{"12/25/2024", day(2024, time.December, 25)},
		{"25/12/24", day(2024, time.December, 25)},
		{"2024-01-15", day(2024, time.January, 15)},
		{"2024-01-15 08:00:00", time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:30:00Z", time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)},
		{"January 15, 2024", day(2024, time.January, 15)},
		{"15 January 2024", day(2024, time.January, 15)},
		{"45292", day(2024, time.January, 1)},
		{"45292,5", time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		if assert.True(t, ok, "input %q", tc.in) {
			assert.True(t, tc.want.Equal(got), "input %q: want %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	inputs := []any{
		nil,
		"",
		"   ",
		"not a date",
		"31.02.2024",
		"15.13.2024",
		"13/13/2024",
		"2024-02-30",
		"15.01.2024 25:00",
		time.Time{},
		(*time.Time)(nil),
		true,
		struct{}{},
		[]string{"15.01.2024"},
		map[string]any{},
		math.NaN(),
		math.Inf(1),
		math.Inf(-1),
		-5,
		0,
		1e12,
		"-3",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			_, ok := ParseDate(in)
			assert.False(t, ok, "input %#v", in)
		})
	}
}

func TestParseDateKeepsNativeTime(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	native := time.Date(2024, time.March, 31, 23, 30, 0, 0, moscow)

	got, ok := ParseDate(native)
	require.True(t, ok)
	assert.Equal(t, native, got)

	got, ok = ParseDate(&native)
	require.True(t, ok)
	assert.Equal(t, native, got)
}

func TestFromSerialBounds(t *testing.T) {
	_, ok := FromSerial(maxSerial)
	assert.True(t, ok)
	_, ok = FromSerial(maxSerial + 1)
	assert.False(t, ok)
	_, ok = FromSerial(0.5)
	assert.True(t, ok)
}
