// run.go - Drive a session from an operator's input events.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/xob0t/PixelTyper/pkg/template"
)

// EventKind identifies an operator input.
type EventKind int

const (
	EventClick EventKind = iota + 1
	EventFinish
	EventCancel
)

func (k EventKind) String() string {
	switch k {
	case EventClick:
		return "click"
	case EventFinish:
		return "finish"
	case EventCancel:
		return "cancel"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one operator input. At is set for clicks, in display space.
type Event struct {
	Kind EventKind
	At   image.Point
}

// Operator supplies input to a capture session. Both methods block until the
// operator acts or ctx is done.
type Operator interface {
	// Next shows display and returns the next input.
	Next(ctx context.Context, display image.Image) (Event, error)
	// Label asks for the name of the point clicked at display position at.
	Label(ctx context.Context, at image.Point) (string, error)
}

// Result is the outcome of Run.
type Result struct {
	State  State
	Points template.Points
}

// Run feeds operator events to s until the session finishes or is cancelled.
// Cancellation, by event or by ctx, is a normal result with a nil error. An
// operator error cancels the session and is returned.
func Run(ctx context.Context, s *Session, op Operator) (*Result, error) {
	for {
		if ctx.Err() != nil {
			return cancelled(s), nil
		}

		ev, err := op.Next(ctx, s.Display())
		if err != nil {
			return stop(ctx, s, err)
		}

		switch ev.Kind {
		case EventClick:
			if err := s.Click(ev.At.X, ev.At.Y); err != nil {
				return nil, err
			}
			label, err := op.Label(ctx, ev.At)
			if err != nil {
				return stop(ctx, s, err)
			}
			if _, err := s.SubmitLabel(label); err != nil {
				return nil, err
			}
		case EventFinish:
			pts, err := s.Finish()
			return &Result{State: Finished, Points: pts}, err
		case EventCancel:
			return cancelled(s), nil
		default:
			s.log.WithField("event", ev.Kind).Warn("ignoring unknown event")
		}
	}
}

func cancelled(s *Session) *Result {
	s.Cancel()
	return &Result{State: Cancelled}
}

// stop cancels s after an operator error. Errors caused by ctx ending are a
// plain cancellation.
func stop(ctx context.Context, s *Session, err error) (*Result, error) {
	res := cancelled(s)
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return res, nil
	}
	return res, err
}
