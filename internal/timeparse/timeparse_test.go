package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 31, 12, 0, 0, 0, time.Local)
}

func newTestNormalizer(step int) *Normalizer {
	n := New(step)
	n.Now = fixedNow
	return n
}

func TestParseDate(t *testing.T) {
	n := newTestNormalizer(15)

	tests := []struct {
		in    string
		year  int
		month time.Month
		day   int
	}{
		{"2024-03-01", 2024, time.March, 1},
		{"01.03.2024", 2024, time.March, 1},
		{"03-01", 2026, time.March, 1},
		{"01.03", 2026, time.March, 1},
	}
	for _, tc := range tests {
		got, err := n.ParseDate(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.year, got.Year(), tc.in)
		assert.Equal(t, tc.month, got.Month(), tc.in)
		assert.Equal(t, tc.day, got.Day(), tc.in)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	n := newTestNormalizer(15)
	for _, in := range []string{"", "tomorrow", "2024/03/01", "13-45", "32.01"} {
		_, err := n.ParseDate(in)
		assert.ErrorIs(t, err, ErrBadDateFormat, in)
	}
}

func TestParseTime(t *testing.T) {
	n := newTestNormalizer(15)

	tod, err := n.ParseTime("10:07")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 10, Minute: 7}, tod)

	tod, err = n.ParseTime("23:59:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 23, Minute: 59, Second: 30}, tod)

	for _, in := range []string{"", "10", "25:00", "10:61", "10.30"} {
		_, err := n.ParseTime(in)
		assert.ErrorIs(t, err, ErrBadInput, in)
	}
}

func TestParseDateTimeQuantizesDown(t *testing.T) {
	n := newTestNormalizer(15)

	got, err := n.ParseDateTime("2024-03-01", "10:07")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local), got)

	got, err = n.ParseDateTime("2024-03-01", "10:44")
	require.NoError(t, err)
	assert.Equal(t, 30, got.Minute())

	// Seconds never survive quantization.
	got, err = n.ParseDateTime("2024-03-01", "10:15:59")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Second())
	assert.Equal(t, 15, got.Minute())
}

func TestParseDateTimeYearlessDate(t *testing.T) {
	n := newTestNormalizer(5)
	got, err := n.ParseDateTime("01.12", "09:03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 12, 1, 9, 0, 0, 0, time.Local), got)
}

func TestParseDuration(t *testing.T) {
	n := newTestNormalizer(15)

	d, err := n.ParseDuration("90")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	// Floor, never round.
	d, err = n.ParseDuration("44")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d)

	d, err = n.ParseDuration("1:30")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d) // hour component floors to 0

	d, err = n.ParseDuration("15:45")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Hour+45*time.Minute, d)

	for _, in := range []string{"", "abc", "-30", "1:2:3", "1:xx"} {
		_, err := n.ParseDuration(in)
		assert.ErrorIs(t, err, ErrBadInput, in)
	}
}

func TestQuantize(t *testing.T) {
	n := newTestNormalizer(15)
	in := time.Date(2024, 3, 1, 10, 59, 42, 0, time.Local)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 45, 0, 0, time.Local), n.Quantize(in))
}
