package app

import (
	"fmt"
	"sync"
	"time"
)

const ZeroElapsed = "00:00:00"

// FormatElapsed renders whole seconds of d as HH:MM:SS. Negative
// durations, from clock skew between panel and recorder, render as zero.
func FormatElapsed(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// ElapsedTimer refreshes a recording duration display once per second.
// At most one underlying ticker exists at a time.
type ElapsedTimer struct {
	clock  Clock
	onTick func(string)

	mu     sync.Mutex
	anchor time.Time
	ticker Timer
}

func NewElapsedTimer(clock Clock, onTick func(string)) *ElapsedTimer {
	return &ElapsedTimer{
		clock:  clock,
		onTick: onTick,
	}
}

// Start anchors the display at anchor. When a ticker is already running it
// is re-anchored instead and Start reports false.
func (t *ElapsedTimer) Start(anchor time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.anchor = anchor
	started := t.ticker == nil
	if started {
		t.ticker = t.clock.Every(time.Second, t.tick)
	}
	t.onTick(FormatElapsed(t.clock.Now().Sub(t.anchor)))
	return started
}

func (t *ElapsedTimer) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ticker == nil {
		return
	}
	t.onTick(FormatElapsed(t.clock.Now().Sub(t.anchor)))
}

// Stop clears the ticker and resets the display to zero.
func (t *ElapsedTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
	t.anchor = time.Time{}
	t.onTick(ZeroElapsed)
}

func (t *ElapsedTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticker != nil
}
