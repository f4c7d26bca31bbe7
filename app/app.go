package app

import (
	"context"
	"sync"
	"time"

	"recpanel/app/panel"
	"recpanel/apperror"
	"recpanel/logger"
	"recpanel/metrics"
	"recpanel/models"
)

// Recorder is the recording server as seen by the panel.
type Recorder interface {
	Status(ctx context.Context) (models.Status, error)
	Start(ctx context.Context, splitDuration int) (models.CommandResult, error)
	Stop(ctx context.Context) (models.CommandResult, error)
	List(ctx context.Context) ([]string, error)
}

type Options struct {
	StatusInterval time.Duration
	ListInterval   time.Duration
	ListRetryDelay time.Duration
	Clock          Clock
}

// App reconciles the recorder's state with the panel. One App is built at
// startup and owns every piece of mutable panel state.
type App struct {
	recorder Recorder
	panel    *panel.Panel
	elapsed  *ElapsedTimer
	clock    Clock
	logger   *logger.Logger
	opts     Options

	mu     sync.Mutex
	state  State
	retry  Timer
	closed bool
	// status fetches are numbered; a result older than applied is dropped
	pollSeq uint64
	applied uint64
}

func NewApp(recorder Recorder, logger *logger.Logger, opts Options) *App {
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = time.Second
	}
	if opts.ListInterval <= 0 {
		opts.ListInterval = 5 * time.Second
	}
	if opts.ListRetryDelay <= 0 {
		opts.ListRetryDelay = time.Second
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}

	p := panel.New()

	return &App{
		recorder: recorder,
		panel:    p,
		elapsed:  NewElapsedTimer(opts.Clock, p.SetElapsed),
		clock:    opts.Clock,
		logger:   logger,
		opts:     opts,
	}
}

func (a *App) Panel() *panel.Panel {
	return a.panel
}

func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Run loads the initial status and video list, then keeps both fresh on
// their own schedules until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.LogInfo("starting panel polling",
		"status_interval", a.opts.StatusInterval.String(),
		"list_interval", a.opts.ListInterval.String())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = a.Poll(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = a.RefreshVideos(ctx)
	}()
	wg.Wait()

	status := a.clock.Every(a.opts.StatusInterval, func() { _ = a.Poll(ctx) })
	videos := a.clock.Every(a.opts.ListInterval, func() { _ = a.RefreshVideos(ctx) })

	<-ctx.Done()

	status.Stop()
	videos.Stop()
	a.shutdown()
	a.logger.LogInfo("panel polling stopped")

	return nil
}

func (a *App) shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	if a.retry != nil {
		a.retry.Stop()
		a.retry = nil
	}
	a.elapsed.Stop()
}

// Poll fetches the recorder status and applies it to the panel. On failure
// the previous state, and any running timer, are kept.
func (a *App) Poll(ctx context.Context) error {
	a.mu.Lock()
	a.pollSeq++
	seq := a.pollSeq
	a.mu.Unlock()

	status, err := a.recorder.Status(ctx)
	if err != nil {
		if !a.stale(seq) {
			a.fail(ctx, panel.SourceStatus, err, "Error updating status")
		}
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	if seq < a.applied {
		a.logger.LogDebug("dropping stale status", "seq", seq, "applied", a.applied)
		return nil
	}
	a.applied = seq

	prev := a.state
	next, action := Reconcile(prev, a.elapsed.Active(), status, a.clock.Now())
	a.state = next

	a.panel.SetRecording(next.Recording)
	switch action {
	case TimerStart, TimerReanchor:
		a.elapsed.Start(next.StartTime)
	case TimerStop:
		a.elapsed.Stop()
	}
	a.panel.ClearErrorFrom(panel.SourceStatus)
	metrics.SetRecording(next.Recording)

	if prev.Recording != next.Recording || action == TimerReanchor {
		a.logger.LogInfo("recording state changed",
			"recording", next.Recording,
			"start_time", next.StartTime,
			"timer", action.String())
	}

	return nil
}

// stale reports whether a newer status than fetch seq was already applied.
func (a *App) stale(seq uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return seq < a.applied
}

// StartRecording asks the recorder to start. The start control stays
// disabled while the request is in flight.
func (a *App) StartRecording(ctx context.Context, splitDuration int) error {
	if !a.panel.Begin(panel.Start) {
		metrics.ObserveCommand("start", "refused")
		return apperror.Conflict.SetMessage("Start is not available right now")
	}
	defer a.panel.End(panel.Start)

	res, err := a.recorder.Start(ctx, splitDuration)
	if err == nil && !res.Success {
		err = apperror.Rejected.SetMessage(res.Message)
	}

	if err != nil {
		metrics.ObserveCommand("start", "failure")
		a.fail(ctx, panel.SourceStart, err, "Failed to start recording")
		// the command did not take effect
		a.panel.SetControls(false, true)
		return err
	}

	metrics.ObserveCommand("start", "success")
	a.logger.LogInfo("recording start requested", "split_duration", splitDuration)

	a.panel.ClearError()
	a.panel.SetControls(true, false)

	if err := a.Poll(ctx); err != nil {
		a.logger.LogWarning(err, "Status resync after start failed")
	}
	return nil
}

// StopRecording asks the recorder to stop, then resyncs status and the
// video list so the finished file shows up.
func (a *App) StopRecording(ctx context.Context) error {
	if !a.panel.Begin(panel.Stop) {
		metrics.ObserveCommand("stop", "refused")
		return apperror.Conflict.SetMessage("Stop is not available right now")
	}
	defer a.panel.End(panel.Stop)

	res, err := a.recorder.Stop(ctx)
	if err == nil && !res.Success {
		err = apperror.Rejected.SetMessage(res.Message)
	}

	if err != nil {
		metrics.ObserveCommand("stop", "failure")
		a.fail(ctx, panel.SourceStop, err, "Failed to stop recording")
		return err
	}

	metrics.ObserveCommand("stop", "success")
	a.logger.LogInfo("recording stop requested")

	a.panel.ClearError()

	if err := a.Poll(ctx); err != nil {
		a.logger.LogWarning(err, "Status resync after stop failed")
	}
	if err := a.RefreshVideos(ctx); err != nil {
		a.logger.LogWarning(err, "Video list refresh after stop failed")
	}
	return nil
}

// RefreshVideos rebuilds the video list. A failure schedules exactly one
// retry; a failing retry does not schedule another.
func (a *App) RefreshVideos(ctx context.Context) error {
	return a.refreshVideos(ctx, false)
}

func (a *App) refreshVideos(ctx context.Context, isRetry bool) error {
	names, err := a.recorder.List(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		a.panel.SetPlaceholder(panel.PlaceholderError)
		a.fail(ctx, panel.SourceList, err, "Error listing videos")
		if !isRetry {
			a.scheduleListRetry(ctx)
		}
		return err
	}

	a.panel.SetVideos(names)
	a.panel.ClearErrorFrom(panel.SourceList)
	a.logger.LogDebug("video list refreshed", "count", len(names))
	return nil
}

func (a *App) scheduleListRetry(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.retry != nil {
		return
	}

	// the retry outlives the request that failed; shutdown stops it
	ctx = context.WithoutCancel(ctx)

	a.retry = a.clock.AfterFunc(a.opts.ListRetryDelay, func() {
		a.mu.Lock()
		a.retry = nil
		closed := a.closed
		a.mu.Unlock()

		if closed {
			return
		}
		metrics.ObserveListRetry()
		_ = a.refreshVideos(ctx, true)
	})
}

func (a *App) fail(ctx context.Context, src panel.Source, err error, fallback string) {
	if ctx.Err() != nil {
		a.logger.LogDebug("request abandoned", "source", string(src), "error", err.Error())
		return
	}

	a.logger.LogError(err, fallback, "source", string(src))
	a.panel.ShowError(src, apperror.UserMessage(err, fallback))
}
