// Package playback drives an engine's replay at a fixed frame rate.
//
// The engine only knows how to advance one action per Step. Player is the
// scheduler that decides when: it calls Step once per frame, paced by a
// token-bucket limiter, and hands every resulting frame to a callback until
// the log is exhausted or the context is cancelled.
//
// Cancelling is the pause button. The engine keeps its replay cursor, so a
// later Play resumes where the previous one stopped.
package playback

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/roach88/soralvi/internal/engine"
)

// Source is the replay surface Player needs. *engine.Engine implements it.
type Source interface {
	Step() bool
	Snapshot() []int
	Highlights() []engine.Highlight
	ActionIndex() int
	Len() int
}

// Frame is the visualizer-facing state after one step.
type Frame struct {
	// Index is the number of actions replayed so far.
	Index int
	// Total is the length of the action log.
	Total      int
	Values     []int
	Highlights []engine.Highlight
}

// FrameFunc receives each frame. Returning an error stops playback.
type FrameFunc func(Frame) error

// Stats summarizes one Play call.
type Stats struct {
	Steps    int  // Actions replayed by this call
	Finished bool // True if the log was exhausted
}

// Player paces Step calls.
//
// Thread-safety: a Player must not be used by more than one Play call at a time.
type Player struct {
	limiter      *rate.Limiter
	onFrame      FrameFunc
	initialFrame bool
}

// Option configures a Player.
type Option func(*Player)

// WithFrameFunc sets the callback invoked after every step.
func WithFrameFunc(fn FrameFunc) Option {
	return func(p *Player) {
		p.onFrame = fn
	}
}

// WithInitialFrame emits a frame for the current state before the first step.
func WithInitialFrame() Option {
	return func(p *Player) {
		p.initialFrame = true
	}
}

// New creates a Player stepping at fps frames per second.
// fps <= 0 replays as fast as the callback allows.
func New(fps float64, opts ...Option) *Player {
	limit := rate.Inf
	if fps > 0 {
		limit = rate.Limit(fps)
	}
	p := &Player{
		limiter: rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play steps src until it reports exhaustion, the frame callback fails, or
// ctx is cancelled. Cancellation is not an error: Play returns the stats so
// far and ctx.Err() so callers can tell a pause from completion.
func (p *Player) Play(ctx context.Context, src Source) (Stats, error) {
	var stats Stats

	if p.initialFrame {
		if err := p.emit(src); err != nil {
			return stats, err
		}
	}

	for {
		if err := p.limiter.Wait(ctx); err != nil {
			slog.Debug("playback paused",
				"action_index", src.ActionIndex(),
				"steps", stats.Steps,
			)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
			return stats, fmt.Errorf("wait for frame: %w", err)
		}

		if !src.Step() {
			stats.Finished = true
			slog.Debug("playback finished",
				"actions", src.Len(),
				"steps", stats.Steps,
			)
			return stats, nil
		}
		stats.Steps++

		if err := p.emit(src); err != nil {
			return stats, err
		}
	}
}

func (p *Player) emit(src Source) error {
	if p.onFrame == nil {
		return nil
	}
	frame := Frame{
		Index:      src.ActionIndex(),
		Total:      src.Len(),
		Values:     src.Snapshot(),
		Highlights: src.Highlights(),
	}
	if err := p.onFrame(frame); err != nil {
		return fmt.Errorf("frame %d: %w", frame.Index, err)
	}
	return nil
}
