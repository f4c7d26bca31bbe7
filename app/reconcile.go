package app

import (
	"time"

	"recpanel/models"
)

// State is the panel's advisory copy of the recorder's state.
type State struct {
	Recording bool
	StartTime time.Time
}

type TimerAction int

const (
	TimerKeep TimerAction = iota
	TimerStart
	TimerReanchor
	TimerStop
)

func (a TimerAction) String() string {
	switch a {
	case TimerStart:
		return "start"
	case TimerReanchor:
		return "reanchor"
	case TimerStop:
		return "stop"
	default:
		return "keep"
	}
}

// Reconcile folds a successful status response into prev. It has no side
// effects; the caller applies the returned timer action.
//
// A recording without start_time keeps the previous anchor, or is anchored
// at now when it was first observed.
func Reconcile(prev State, timerActive bool, status models.Status, now time.Time) (State, TimerAction) {
	if !status.Recording {
		return State{}, TimerStop
	}

	next := State{Recording: true}
	switch {
	case status.StartTime != nil:
		next.StartTime = status.StartTime.Time
	case prev.Recording && !prev.StartTime.IsZero():
		next.StartTime = prev.StartTime
	default:
		next.StartTime = now
	}

	if !timerActive {
		return next, TimerStart
	}
	if !next.StartTime.Equal(prev.StartTime) {
		return next, TimerReanchor
	}
	return next, TimerKeep
}
