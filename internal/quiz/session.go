// Package quiz implements the timed question/answer session.
package quiz

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/tuimath/internal/model"
)

// answerScale is the rounding applied to both sides before comparing answers.
const answerScale = 1e6

// QuestionSource produces the next question for a configuration.
type QuestionSource interface {
	Generate(cfg model.OperationConfig) model.Question
}

// State is the session lifecycle position.
type State int

// Session states.
const (
	StateConfiguring State = iota
	StateRunning
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateRunning:
		return "running"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Options configures a session.
type Options struct {
	DurationSeconds int
	// ConfirmSkip enables the skip sub-mode: a wrong answer must be
	// confirmed by a second submission, which skips the question.
	ConfirmSkip bool
	Clock       func() time.Time
}

// OutcomeKind classifies what an event did to the session.
type OutcomeKind int

// Outcome kinds.
const (
	OutcomeAnswered OutcomeKind = iota
	OutcomeAwaitingConfirmation
	OutcomeSkipped
	OutcomeTick
	OutcomeFinalized
)

// Outcome describes the effect of one event.
type Outcome struct {
	Kind      OutcomeKind
	Event     *model.AnswerEvent
	Remaining int
	Record    *model.SessionRecord
}

// Session is the state machine for one timed play-through.
type Session struct {
	cfg   model.OperationConfig
	src   QuestionSource
	opts  Options
	now   func() time.Time
	state State

	st          model.SessionState
	startedAt   time.Time
	presentedAt time.Time

	awaitingConfirmation bool
	pendingAnswer        float64

	record *model.SessionRecord
}

// NewSession validates the configuration and returns a session ready to start.
func NewSession(cfg model.OperationConfig, src QuestionSource, opts Options) (*Session, error) {
	if err := ValidateConfig(model.GameConfig{DurationSeconds: opts.DurationSeconds, Ranges: cfg}); err != nil {
		return nil, err
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Session{
		cfg:   cfg.Clone(),
		src:   src,
		opts:  opts,
		now:   now,
		state: StateConfiguring,
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// AwaitingConfirmation reports whether the next submission will skip the question.
func (s *Session) AwaitingConfirmation() bool {
	return s.awaitingConfirmation
}

// Start enters the running state and presents the first question.
func (s *Session) Start() error {
	switch s.state {
	case StateRunning:
		return ErrAlreadyStarted
	case StateFinalized:
		return ErrFinalized
	}
	s.startedAt = s.now()
	s.st = model.SessionState{
		RemainingSeconds: s.opts.DurationSeconds,
		History:          []model.AnswerEvent{},
	}
	s.state = StateRunning
	s.nextQuestion()
	return nil
}

// Submit handles an answer typed by the player.
func (s *Session) Submit(text string) (Outcome, error) {
	if err := s.requireRunning(); err != nil {
		return Outcome{}, err
	}

	if s.awaitingConfirmation {
		answer := s.pendingAnswer
		ev := s.recordEvent(&answer, false, true)
		s.nextQuestion()
		return Outcome{Kind: OutcomeSkipped, Event: &ev, Remaining: s.st.RemainingSeconds}, nil
	}

	value, err := ParseAnswer(text)
	if err != nil {
		return Outcome{}, err
	}
	correct := AnswersMatch(value, s.st.CurrentQuestion.CorrectAnswer)
	if !correct && s.opts.ConfirmSkip {
		s.awaitingConfirmation = true
		s.pendingAnswer = value
		return Outcome{Kind: OutcomeAwaitingConfirmation, Remaining: s.st.RemainingSeconds}, nil
	}

	ev := s.recordEvent(&value, correct, false)
	s.nextQuestion()
	return Outcome{Kind: OutcomeAnswered, Event: &ev, Remaining: s.st.RemainingSeconds}, nil
}

// Tick advances the countdown by one second.
func (s *Session) Tick() (Outcome, error) {
	if err := s.requireRunning(); err != nil {
		return Outcome{}, err
	}
	s.st.RemainingSeconds--
	if s.st.RemainingSeconds > 0 {
		return Outcome{Kind: OutcomeTick, Remaining: s.st.RemainingSeconds}, nil
	}
	s.st.RemainingSeconds = 0
	rec := s.finalize()
	return Outcome{Kind: OutcomeFinalized, Remaining: 0, Record: &rec}, nil
}

// Snapshot returns a copy of the live state.
func (s *Session) Snapshot() model.SessionState {
	out := s.st
	out.History = append([]model.AnswerEvent(nil), s.st.History...)
	return out
}

// Record returns the finalized session once the countdown has ended.
func (s *Session) Record() (model.SessionRecord, bool) {
	if s.record == nil {
		return model.SessionRecord{}, false
	}
	return cloneRecord(*s.record), true
}

func (s *Session) requireRunning() error {
	switch s.state {
	case StateConfiguring:
		return ErrNotRunning
	case StateFinalized:
		return ErrFinalized
	}
	return nil
}

func (s *Session) recordEvent(answer *float64, correct, skipped bool) model.AnswerEvent {
	now := s.now()
	q := s.st.CurrentQuestion
	ev := model.AnswerEvent{
		Operation:      q.Operation,
		Operand1:       q.Operand1,
		Operand2:       q.Operand2,
		CorrectAnswer:  q.CorrectAnswer,
		UserAnswer:     answer,
		IsCorrect:      correct,
		Skipped:        skipped,
		ElapsedSeconds: now.Sub(s.presentedAt).Seconds(),
	}
	s.st.History = append(s.st.History, ev)
	s.st.QuestionsAsked++
	if correct {
		s.st.Score++
	}
	return ev
}

func (s *Session) nextQuestion() {
	s.st.CurrentQuestion = s.src.Generate(s.cfg)
	s.presentedAt = s.now()
	s.awaitingConfirmation = false
	s.pendingAnswer = 0
}

func (s *Session) finalize() model.SessionRecord {
	s.state = StateFinalized
	s.awaitingConfirmation = false
	rec := model.SessionRecord{
		ID:              model.SessionIDFor(s.startedAt),
		StartedAt:       s.startedAt,
		EndedAt:         s.now(),
		DurationSeconds: s.opts.DurationSeconds,
		Score:           s.st.Score,
		QuestionsAsked:  s.st.QuestionsAsked,
		Events:          append([]model.AnswerEvent(nil), s.st.History...),
	}
	s.record = &rec
	return cloneRecord(rec)
}

func cloneRecord(rec model.SessionRecord) model.SessionRecord {
	rec.Events = append([]model.AnswerEvent(nil), rec.Events...)
	return rec
}

// ParseAnswer converts player input into a number.
func ParseAnswer(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, NewValidationError("answer", "please enter a valid number")
	}
	// strconv also reads hexadecimal floats; answers are decimal only.
	if strings.HasPrefix(strings.ToLower(strings.TrimLeft(trimmed, "+-")), "0x") {
		return 0, NewValidationError("answer", "please enter a valid number")
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, &ValidationError{Field: "answer", Reason: "please enter a valid number", Err: err}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, NewValidationError("answer", "please enter a valid number")
	}
	return value, nil
}

// AnswersMatch compares two answers after rounding both to six decimal places.
func AnswersMatch(a, b float64) bool {
	return math.Round(a*answerScale) == math.Round(b*answerScale)
}
