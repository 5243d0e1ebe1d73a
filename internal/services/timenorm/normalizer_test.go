package timenorm

import (
	"slices"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEastern(t *testing.T) *Normalizer {
	t.Helper()
	n, err := New("America/New_York")
	require.NoError(t, err)
	return n
}

func TestToCivil_ShiftsLateUTCIntoPreviousDay(t *testing.T) {
	n := newEastern(t)

	// 2024-04-02 02:30:00 UTC is 2024-04-01 22:30:00 EDT
	epoch := time.Date(2024, 4, 2, 2, 30, 0, 0, time.UTC).Unix()
	date, dt := n.ToCivil(epoch)

	assert.Equal(t, civil.Date{Year: 2024, Month: time.April, Day: 1}, date)
	assert.Equal(t, "2024-04-01 22:30:00", dt)
}

func TestToCivil_Winter(t *testing.T) {
	n := newEastern(t)

	epoch := time.Date(2025, 1, 15, 4, 59, 59, 0, time.UTC).Unix()
	date, dt := n.ToCivil(epoch)

	assert.Equal(t, "2025-01-14", date.String())
	assert.Equal(t, "2025-01-14 23:59:59", dt)
}

func TestDayWindow(t *testing.T) {
	n := newEastern(t)

	start, end := n.DayWindow(civil.Date{Year: 2024, Month: time.April, Day: 1})
	assert.Equal(t, time.Date(2024, 4, 1, 4, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, time.Date(2024, 4, 2, 4, 0, 0, 0, time.UTC), end.UTC())

	// DST starts 2024-03-10: 23 hour day
	start, end = n.DayWindow(civil.Date{Year: 2024, Month: time.March, Day: 10})
	assert.Equal(t, 23*time.Hour, end.Sub(start))
}

func TestDayWindow_RoundTripsThroughToCivil(t *testing.T) {
	n := newEastern(t)
	day := civil.Date{Year: 2024, Month: time.November, Day: 3}

	start, end := n.DayWindow(day)
	assert.Equal(t, day, n.Date(start.Unix()))
	assert.Equal(t, day, n.Date(end.Unix()-1))
	assert.Equal(t, day.AddDays(1), n.Date(end.Unix()))
}

func TestDays_HalfOpen(t *testing.T) {
	start := civil.Date{Year: 2024, Month: time.February, Day: 27}
	end := civil.Date{Year: 2024, Month: time.March, Day: 1}

	got := slices.Collect(Days(start, end))
	require.Len(t, got, 3)
	assert.Equal(t, "2024-02-29", got[2].String())

	assert.Empty(t, slices.Collect(Days(end, start)))
}

func TestNew_UnknownZone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons")
	assert.Error(t, err)
}
