package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"recpanel/models"
)

func TestReconcile(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := now.Add(-time.Minute)
	t2 := now.Add(-2 * time.Minute)

	tests := []struct {
		name        string
		prev        State
		timerActive bool
		status      models.Status
		want        State
		action      TimerAction
	}{
		{
			name:   "stopped to recording starts timer",
			status: recordingSince(t1),
			want:   State{Recording: true, StartTime: t1},
			action: TimerStart,
		},
		{
			name:        "recording again keeps timer",
			prev:        State{Recording: true, StartTime: t1},
			timerActive: true,
			status:      recordingSince(t1),
			want:        State{Recording: true, StartTime: t1},
			action:      TimerKeep,
		},
		{
			name:        "new start time reanchors",
			prev:        State{Recording: true, StartTime: t1},
			timerActive: true,
			status:      recordingSince(t2),
			want:        State{Recording: true, StartTime: t2},
			action:      TimerReanchor,
		},
		{
			name:        "recording to stopped stops timer",
			prev:        State{Recording: true, StartTime: t1},
			timerActive: true,
			status:      models.Status{},
			want:        State{},
			action:      TimerStop,
		},
		{
			name:   "stopped stays stopped",
			status: models.Status{},
			want:   State{},
			action: TimerStop,
		},
		{
			name:   "missing start time anchors at now",
			status: models.Status{Recording: true},
			want:   State{Recording: true, StartTime: now},
			action: TimerStart,
		},
		{
			name:        "missing start time keeps previous anchor",
			prev:        State{Recording: true, StartTime: t1},
			timerActive: true,
			status:      models.Status{Recording: true},
			want:        State{Recording: true, StartTime: t1},
			action:      TimerKeep,
		},
		{
			name:   "recording with no timer restarts it",
			prev:   State{Recording: true, StartTime: t1},
			status: recordingSince(t1),
			want:   State{Recording: true, StartTime: t1},
			action: TimerStart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, action := Reconcile(tt.prev, tt.timerActive, tt.status, now)
			assert.Equal(t, tt.want.Recording, got.Recording)
			assert.True(t, tt.want.StartTime.Equal(got.StartTime), "start time %s, want %s", got.StartTime, tt.want.StartTime)
			assert.Equal(t, tt.action, action, "action %s", action)
		})
	}
}
