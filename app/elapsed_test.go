package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{999 * time.Millisecond, "00:00:00"},
		{59*time.Second + 900*time.Millisecond, "00:00:59"},
		{61 * time.Second, "00:01:01"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{23*time.Hour + 59*time.Minute + 59*time.Second, "23:59:59"},
		{100 * time.Hour, "100:00:00"},
		{-5 * time.Second, "00:00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.in), "FormatElapsed(%s)", tt.in)
	}
}

func TestElapsedTimerSingleTicker(t *testing.T) {
	clock := newFakeClock()
	var shown []string
	timer := NewElapsedTimer(clock, func(s string) { shown = append(shown, s) })

	anchor := clock.Now().Add(-10 * time.Second)
	assert.True(t, timer.Start(anchor))
	assert.False(t, timer.Start(anchor), "second start re-anchors only")
	assert.Equal(t, 1, clock.Periodic())
	assert.True(t, timer.Active())
	assert.Equal(t, "00:00:10", shown[len(shown)-1])

	clock.Advance(3 * time.Second)
	assert.Equal(t, "00:00:13", shown[len(shown)-1])

	timer.Start(clock.Now().Add(-time.Hour))
	assert.Equal(t, "01:00:00", shown[len(shown)-1])
	assert.Equal(t, 1, clock.Periodic())

	timer.Stop()
	assert.False(t, timer.Active())
	assert.Equal(t, 0, clock.Periodic())
	assert.Equal(t, ZeroElapsed, shown[len(shown)-1])

	n := len(shown)
	clock.Advance(5 * time.Second)
	assert.Len(t, shown, n, "no ticks after stop")

	timer.Stop()
	assert.Equal(t, ZeroElapsed, shown[len(shown)-1])
}
