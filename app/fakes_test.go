package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"recpanel/logger"
	"recpanel/models"
)

// fakeClock runs due callbacks synchronously inside Advance.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	jobs []*fakeJob
}

type fakeJob struct {
	clock  *fakeClock
	at     time.Time
	period time.Duration
	f      func()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.add(d, 0, f)
}

func (c *fakeClock) Every(d time.Duration, f func()) Timer {
	return c.add(d, d, f)
}

func (c *fakeClock) add(d, period time.Duration, f func()) *fakeJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	j := &fakeJob{clock: c, at: c.now.Add(d), period: period, f: f}
	c.jobs = append(c.jobs, j)
	return j
}

func (j *fakeJob) Stop() bool {
	j.clock.mu.Lock()
	defer j.clock.mu.Unlock()
	return j.clock.remove(j)
}

func (c *fakeClock) remove(j *fakeJob) bool {
	for i, other := range c.jobs {
		if other == j {
			c.jobs = append(c.jobs[:i], c.jobs[i+1:]...)
			return true
		}
	}
	return false
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeJob
		for _, j := range c.jobs {
			if !j.at.After(target) && (next == nil || j.at.Before(next.at)) {
				next = j
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		if next.period > 0 {
			next.at = next.at.Add(next.period)
		} else {
			c.remove(next)
		}
		c.mu.Unlock()

		next.f()
	}
}

// Periodic counts live Every registrations.
func (c *fakeClock) Periodic() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, j := range c.jobs {
		if j.period > 0 {
			n++
		}
	}
	return n
}

func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.jobs)
}

type fakeRecorder struct {
	mu sync.Mutex

	status    models.Status
	statusErr error
	start     models.CommandResult
	startErr  error
	stop      models.CommandResult
	stopErr   error
	videos    []string
	listErrs  []error // consumed one per call; nil entries succeed
	listErr   error   // used once listErrs is exhausted
	startGate chan struct{}
	// statusGates block Status calls in order, one gate per call
	statusGates []chan struct{}

	calls      []string
	splitSeen  []int
	startCalls int
}

var errNetwork = errors.New("dial tcp 127.0.0.1:5423: connect: connection refused")

func (f *fakeRecorder) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRecorder) Status(context.Context) (models.Status, error) {
	f.record("status")
	f.mu.Lock()
	status, err := f.status, f.statusErr
	var gate chan struct{}
	if len(f.statusGates) > 0 {
		gate = f.statusGates[0]
		f.statusGates = f.statusGates[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return status, err
}

func (f *fakeRecorder) Start(_ context.Context, split int) (models.CommandResult, error) {
	f.record("start")
	f.mu.Lock()
	f.startCalls++
	f.splitSeen = append(f.splitSeen, split)
	gate := f.startGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.start, f.startErr
}

func (f *fakeRecorder) Stop(context.Context) (models.CommandResult, error) {
	f.record("stop")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stop, f.stopErr
}

func (f *fakeRecorder) List(ctx context.Context) ([]string, error) {
	f.record("list")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		if err != nil {
			return nil, err
		}
		return f.videos, nil
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.videos, nil
}

func (f *fakeRecorder) set(fn func(f *fakeRecorder)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeRecorder) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeRecorder) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func recordingSince(t time.Time) models.Status {
	return models.Status{Recording: true, StartTime: &models.Timestamp{Time: t}}
}

func newTestApp(rec *fakeRecorder, clock *fakeClock) *App {
	return NewApp(rec, logger.New(io.Discard, "error"), Options{
		StatusInterval: time.Second,
		ListInterval:   5 * time.Second,
		ListRetryDelay: time.Second,
		Clock:          clock,
	})
}
