// Package timeline keeps two video streams in frame lockstep. A single
// authoritative frame index is shared by both streams; every redraw
// shows the same index on both sides, so the displayed frames can
// never drift apart.
package timeline

import (
	"time"

	"github.com/rs/zerolog"
)

// Side identifies one of the two compared streams.
type Side int

const (
	SideA Side = iota
	SideB
)

// State is the playback state.
type State int

const (
	Stopped State = iota
	Playing
)

// Stream is the view of a video source the timeline needs: how many
// frames it has and how fast it plays.
type Stream interface {
	FrameCount() int
	FrameRate() float64
}

// Timeline owns the shared current frame index and the playback clock.
// All mutation happens on the event thread: ticker fires are routed
// through the injected dispatch function, which is the same path UI
// events arrive on.
type Timeline struct {
	logger   zerolog.Logger
	dispatch func(func())

	streams [2]Stream
	primary Side // first-loaded stream, drives the clock

	index   int
	bound   int // highest valid index, -1 until both streams attach
	state   State
	looping bool

	stop chan struct{}

	// OnFrame is called with the index to display whenever the
	// current frame changes or must be redrawn.
	OnFrame func(index int)
	// OnState is called when playback starts or stops.
	OnState func(State)
}

// New creates a timeline. dispatch routes ticker callbacks onto the
// event thread; pass a direct invoke for single-threaded use.
func New(logger zerolog.Logger, dispatch func(func())) *Timeline {
	return &Timeline{
		logger:   logger.With().Str("component", "timeline").Logger(),
		dispatch: dispatch,
		bound:    -1,
	}
}

// Attach registers (or replaces) the stream for one side, recomputes
// the shared bound and clamps the current index into range. A redraw
// is requested when both sides are loaded.
func (t *Timeline) Attach(side Side, s Stream) {
	if t.streams[side] == nil && t.streams[1-side] == nil {
		t.primary = side
	}
	t.streams[side] = s
	t.recomputeBound()
}

// Ready reports whether both streams are attached.
func (t *Timeline) Ready() bool {
	return t.streams[SideA] != nil && t.streams[SideB] != nil
}

// Index returns the current frame index.
func (t *Timeline) Index() int { return t.index }

// Bound returns the highest valid index, or -1 before both streams
// are loaded.
func (t *Timeline) Bound() int { return t.bound }

// State returns the playback state.
func (t *Timeline) State() State { return t.state }

// Looping reports whether playback wraps at the end.
func (t *Timeline) Looping() bool { return t.looping }

// SetLooping sets the loop flag. It does not affect playback state.
func (t *Timeline) SetLooping(v bool) { t.looping = v }

// FrameRate returns the playback rate, taken from the first-loaded
// stream. Both streams are assumed to share a common rate.
func (t *Timeline) FrameRate() float64 {
	if s := t.streams[t.primary]; s != nil {
		return s.FrameRate()
	}
	return 0
}

func (t *Timeline) recomputeBound() {
	if !t.Ready() {
		t.bound = -1
		return
	}

	bound := t.streams[SideA].FrameCount()
	if n := t.streams[SideB].FrameCount(); n < bound {
		bound = n
	}
	t.bound = bound - 1

	if t.index > t.bound {
		t.index = t.bound
	}

	t.logger.Debug().Int("bound", t.bound).Int("index", t.index).Msg("bound recomputed")
	t.redraw()
}

// SetIndex clamps i into the valid range and requests a redraw at the
// clamped index. It is the single entry point for slider-driven and
// programmatic seeks.
func (t *Timeline) SetIndex(i int) {
	if t.bound < 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i > t.bound {
		i = t.bound
	}
	t.index = i
	t.redraw()
}

// Tick advances playback by one frame. At the bound it either wraps
// to frame zero (looping) or stops, leaving the index at the bound.
func (t *Timeline) Tick() {
	if t.state != Playing {
		return
	}

	next := t.index + 1
	if next > t.bound {
		if !t.looping {
			t.setState(Stopped)
			return
		}
		next = 0
	}

	t.index = next
	t.redraw()
}

// TogglePlay flips between Playing and Stopped. Starting at the bound
// without looping rewinds to frame zero first.
func (t *Timeline) TogglePlay() {
	if !t.Ready() {
		return
	}

	if t.state == Playing {
		t.setState(Stopped)
		return
	}

	if t.index >= t.bound && !t.looping {
		t.index = 0
		t.redraw()
	}
	t.setState(Playing)
}

func (t *Timeline) setState(s State) {
	if t.state == s {
		return
	}
	t.state = s

	switch s {
	case Playing:
		t.startClock()
	case Stopped:
		t.stopClock()
	}

	if t.OnState != nil {
		t.OnState(s)
	}
}

// Interval returns the tick period derived from the primary stream's
// frame rate.
func (t *Timeline) Interval() time.Duration {
	fps := t.FrameRate()
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

func (t *Timeline) startClock() {
	interval := t.Interval()
	if interval <= 0 {
		return
	}

	t.stop = make(chan struct{})
	stop := t.stop
	ticker := time.NewTicker(interval)

	t.logger.Debug().Dur("interval", interval).Msg("playback started")

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.dispatch(t.Tick)
			case <-stop:
				return
			}
		}
	}()
}

func (t *Timeline) stopClock() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
		t.logger.Debug().Msg("playback stopped")
	}
}

func (t *Timeline) redraw() {
	if t.OnFrame != nil {
		t.OnFrame(t.index)
	}
}
