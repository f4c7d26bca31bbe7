// Package panel holds the control panel's view model: everything a browser
// shows, kept independent of HTML so it can be rendered or pushed anywhere.
package panel

import (
	"net/url"
	"slices"
	"sync"
)

type Control string

const (
	Start Control = "start"
	Stop  Control = "stop"
)

// Source identifies the operation that raised the visible error.
type Source string

const (
	SourceStatus Source = "status"
	SourceList   Source = "list"
	SourceStart  Source = "start"
	SourceStop   Source = "stop"
)

const (
	StatusRecording = "Recording"
	StatusStopped   = "Stopped"
	ColorRecording  = "red"
	ColorStopped    = "black"

	PlaceholderLoading = "Loading videos..."
	PlaceholderEmpty   = "No videos found"
	PlaceholderError   = "Error loading videos"

	zeroElapsed = "00:00:00"
)

type Link struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

type Snapshot struct {
	Recording     bool   `json:"recording"`
	StatusText    string `json:"statusText"`
	StatusColor   string `json:"statusColor"`
	StartDisabled bool   `json:"startDisabled"`
	StopDisabled  bool   `json:"stopDisabled"`
	Elapsed       string `json:"elapsed"`
	ErrorVisible  bool   `json:"errorVisible"`
	ErrorText     string `json:"errorText"`
	Videos        []Link `json:"videos"`
	Placeholder   string `json:"placeholder,omitempty"`
	Version       uint64 `json:"version"`
}

// RenderVideos maps recording names to download links in the given order.
// An empty list yields no links and the empty placeholder.
func RenderVideos(names []string) ([]Link, string) {
	if len(names) == 0 {
		return nil, PlaceholderEmpty
	}

	links := make([]Link, 0, len(names))
	for _, name := range names {
		links = append(links, Link{
			Name: name,
			Href: "/download/" + url.PathEscape(name),
		})
	}
	return links, ""
}

type Panel struct {
	mu sync.Mutex

	recording     bool
	startDisabled bool
	stopDisabled  bool
	inflight      map[Control]bool
	elapsed       string

	errVisible bool
	errText    string
	errSource  Source

	videos      []Link
	placeholder string

	version uint64
	subs    map[int]chan Snapshot
	nextSub int
}

// New returns a stopped panel waiting for its first video list.
func New() *Panel {
	return &Panel{
		stopDisabled: true,
		inflight:     make(map[Control]bool),
		elapsed:      zeroElapsed,
		placeholder:  PlaceholderLoading,
		subs:         make(map[int]chan Snapshot),
	}
}

// SetRecording updates the indicator and enables the control that makes
// sense for the new state.
func (p *Panel) SetRecording(recording bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.recording == recording && p.startDisabled == recording && p.stopDisabled == !recording {
		return
	}
	p.recording = recording
	p.startDisabled = recording
	p.stopDisabled = !recording
	p.changed()
}

func (p *Panel) SetControls(startDisabled, stopDisabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startDisabled == startDisabled && p.stopDisabled == stopDisabled {
		return
	}
	p.startDisabled = startDisabled
	p.stopDisabled = stopDisabled
	p.changed()
}

// Begin disables c for the duration of a command. It reports false, and
// changes nothing, when c is already disabled.
func (p *Panel) Begin(c Control) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disabled(c) {
		return false
	}
	p.inflight[c] = true
	p.changed()
	return true
}

// End releases c after its command resolved.
func (p *Panel) End(c Control) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.inflight[c] {
		return
	}
	delete(p.inflight, c)
	p.changed()
}

func (p *Panel) Disabled(c Control) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disabled(c)
}

func (p *Panel) disabled(c Control) bool {
	if p.inflight[c] {
		return true
	}
	if c == Start {
		return p.startDisabled
	}
	return p.stopDisabled
}

func (p *Panel) SetElapsed(elapsed string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.elapsed == elapsed {
		return
	}
	p.elapsed = elapsed
	p.changed()
}

// ShowError replaces any visible error.
func (p *Panel) ShowError(src Source, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errVisible = true
	p.errText = text
	p.errSource = src
	p.changed()
}

func (p *Panel) ClearError() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearError()
}

// ClearErrorFrom hides the error only when src raised it.
func (p *Panel) ClearErrorFrom(src Source) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.errSource == src {
		p.clearError()
	}
}

func (p *Panel) clearError() {
	if !p.errVisible {
		return
	}
	p.errVisible = false
	p.errText = ""
	p.errSource = ""
	p.changed()
}

// SetVideos rebuilds the whole list.
func (p *Panel) SetVideos(names []string) {
	links, placeholder := RenderVideos(names)

	p.mu.Lock()
	defer p.mu.Unlock()

	if slices.Equal(p.videos, links) && p.placeholder == placeholder {
		return
	}
	p.videos = links
	p.placeholder = placeholder
	p.changed()
}

// SetPlaceholder replaces the list with a single message.
func (p *Panel) SetPlaceholder(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.videos) == 0 && p.placeholder == text {
		return
	}
	p.videos = nil
	p.placeholder = text
	p.changed()
}

func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *Panel) snapshot() Snapshot {
	s := Snapshot{
		Recording:     p.recording,
		StatusText:    StatusStopped,
		StatusColor:   ColorStopped,
		StartDisabled: p.disabled(Start),
		StopDisabled:  p.disabled(Stop),
		Elapsed:       p.elapsed,
		ErrorVisible:  p.errVisible,
		ErrorText:     p.errText,
		Videos:        slices.Clone(p.videos),
		Placeholder:   p.placeholder,
		Version:       p.version,
	}
	if p.recording {
		s.StatusText = StatusRecording
		s.StatusColor = ColorRecording
	}
	return s
}

// Subscribe delivers the latest snapshot after every change. Slow readers
// only ever see the newest one.
func (p *Panel) Subscribe() (<-chan Snapshot, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSub
	p.nextSub++
	ch := make(chan Snapshot, 1)
	p.subs[id] = ch

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}
}

func (p *Panel) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// changed must be called with mu held.
func (p *Panel) changed() {
	p.version++
	snap := p.snapshot()
	for _, ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
