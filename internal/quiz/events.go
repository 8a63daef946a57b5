package quiz

import (
	"context"
	"fmt"

	"github.com/verte-zerg/tuimath/internal/model"
)

// Event is an input delivered to a running session.
type Event interface {
	isEvent()
}

// AnswerSubmitted carries text entered by the player.
type AnswerSubmitted struct {
	Text string
}

// TickEvent marks one elapsed second.
type TickEvent struct{}

func (AnswerSubmitted) isEvent() {}
func (TickEvent) isEvent()       {}

// Handle applies a single event to the session.
func (s *Session) Handle(ev Event) (Outcome, error) {
	switch e := ev.(type) {
	case AnswerSubmitted:
		return s.Submit(e.Text)
	case TickEvent:
		return s.Tick()
	default:
		return Outcome{}, fmt.Errorf("unsupported event %T", ev)
	}
}

// Run consumes events until the session is finalized. Validation failures
// are reported through onOutcome and do not stop the loop.
func Run(ctx context.Context, s *Session, events <-chan Event, onOutcome func(Outcome, error)) (model.SessionRecord, error) {
	if s.State() == StateConfiguring {
		if err := s.Start(); err != nil {
			return model.SessionRecord{}, err
		}
	}
	for {
		select {
		case <-ctx.Done():
			return model.SessionRecord{}, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return model.SessionRecord{}, ErrEventsClosed
			}
			out, err := s.Handle(ev)
			if onOutcome != nil {
				onOutcome(out, err)
			}
			if err != nil {
				if IsValidation(err) {
					continue
				}
				return model.SessionRecord{}, err
			}
			if out.Kind == OutcomeFinalized {
				return *out.Record, nil
			}
		}
	}
}
