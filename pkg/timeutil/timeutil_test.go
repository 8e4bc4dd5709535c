package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"1h", 60, false},
		{"1.5h", 90, false},
		{"1,5h", 90, false},
		{"30m", 30, false},
		{"1h30m", 90, false},
		{"1h 30m", 90, false},
		{"2", 120, false},
		{"0h", 0, false},
		{"1ч30м", 90, false},
		{"45м", 45, false},
		{"2ч", 120, false},
		{"", 0, true},
		{"abc", 0, true},
		{"h30", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "2ч 30м", FormatMinutes(150))
	assert.Equal(t, "2ч", FormatMinutes(120))
	assert.Equal(t, "45м", FormatMinutes(45))
	assert.Equal(t, "0м", FormatMinutes(0))
}

func TestMinutesBetween(t *testing.T) {
	start := time.Date(2026, time.August, 17, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 65, MinutesBetween(start, start.Add(65*time.Minute)))
	// Секунды округляются до ближайшей минуты
	assert.Equal(t, 1, MinutesBetween(start, start.Add(40*time.Second)))
	assert.Equal(t, 0, MinutesBetween(start, start.Add(20*time.Second)))
}

func TestParseTimeOfDay(t *testing.T) {
	minutes, err := ParseTimeOfDay("18:30")
	require.NoError(t, err)
	assert.Equal(t, 18*60+30, minutes)

	minutes, err = ParseTimeOfDay("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, minutes)

	_, err = ParseTimeOfDay("25:99")
	assert.Error(t, err)

	_, err = ParseTimeOfDay("полдень")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	date, err := ParseDate("17.08.2026")
	require.NoError(t, err)
	assert.Equal(t, 2026, date.Year())
	assert.Equal(t, time.August, date.Month())
	assert.Equal(t, 17, date.Day())

	_, err = ParseDate("2026-08-17")
	assert.Error(t, err)
}

func TestWorkingDaysBetween(t *testing.T) {
	monday := time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2026, time.August, 21, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, time.August, 22, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, time.August, 23, 0, 0, 0, 0, time.UTC)
	nextFriday := time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 5, WorkingDaysBetween(monday, friday))
	assert.Equal(t, 1, WorkingDaysBetween(monday, monday))
	assert.Equal(t, 0, WorkingDaysBetween(saturday, sunday))
	// Две рабочие недели, выходные внутри не считаются
	assert.Equal(t, 10, WorkingDaysBetween(monday, nextFriday))
	// Перевернутый период
	assert.Equal(t, 0, WorkingDaysBetween(friday, monday))
}

func TestReturnAt(t *testing.T) {
	start := time.Date(2026, time.August, 17, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, start.Add(90*time.Minute), ReturnAt(start, 90))
}
