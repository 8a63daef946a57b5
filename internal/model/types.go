// Package model defines shared data structures.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Operation is one of the four arithmetic operations.
type Operation string

// Supported operations.
const (
	Add      Operation = "add"
	Subtract Operation = "subtract"
	Multiply Operation = "multiply"
	Divide   Operation = "divide"
)

// AllOperations lists operations in canonical order.
var AllOperations = []Operation{Add, Subtract, Multiply, Divide}

// Symbol returns the display symbol for the operation.
func (o Operation) Symbol() string {
	switch o {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "×"
	case Divide:
		return "÷"
	default:
		return string(o)
	}
}

// Valid reports whether o is a known operation.
func (o Operation) Valid() bool {
	switch o {
	case Add, Subtract, Multiply, Divide:
		return true
	default:
		return false
	}
}

// ParseOperation accepts operation names and their symbols.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "+", "plus":
		return Add, nil
	case "subtract", "sub", "-", "minus":
		return Subtract, nil
	case "multiply", "mul", "×", "*", "x":
		return Multiply, nil
	case "divide", "div", "÷", "/":
		return Divide, nil
	default:
		return "", fmt.Errorf("unknown operation %q", s)
	}
}

// OperandRange is an inclusive integer range. Min must be less than Max.
type OperandRange struct {
	Min int
	Max int
}

// Contains reports whether v lies within the range.
func (r OperandRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// OperandRanges holds one range per operand.
type OperandRanges struct {
	Term1 OperandRange
	Term2 OperandRange
}

// OperationConfig maps each enabled operation to its operand ranges.
type OperationConfig map[Operation]OperandRanges

// Operations returns the configured operations in canonical order.
func (c OperationConfig) Operations() []Operation {
	ops := make([]Operation, 0, len(c))
	for _, op := range AllOperations {
		if _, ok := c[op]; ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// Clone returns an independent copy of the config.
func (c OperationConfig) Clone() OperationConfig {
	out := make(OperationConfig, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// DefaultOperationConfig mirrors the ranges offered by the menu on first start.
func DefaultOperationConfig() OperationConfig {
	return OperationConfig{
		Add:      {Term1: OperandRange{Min: 1, Max: 100}, Term2: OperandRange{Min: 1, Max: 100}},
		Subtract: {Term1: OperandRange{Min: 1, Max: 100}, Term2: OperandRange{Min: 1, Max: 100}},
		Multiply: {Term1: OperandRange{Min: 1, Max: 100}, Term2: OperandRange{Min: 1, Max: 12}},
		Divide:   {Term1: OperandRange{Min: 1, Max: 100}, Term2: OperandRange{Min: 1, Max: 12}},
	}
}

// Question is a single generated prompt and its ground-truth answer.
type Question struct {
	Operation     Operation
	Operand1      int
	Operand2      int
	CorrectAnswer float64
}

// Text renders the question as shown to the player.
func (q Question) Text() string {
	return fmt.Sprintf("%d %s %d", q.Operand1, q.Operation.Symbol(), q.Operand2)
}

// AnswerEvent records one question presented and one answer or skip rendered.
type AnswerEvent struct {
	Operation      Operation
	Operand1       int
	Operand2       int
	CorrectAnswer  float64
	UserAnswer     *float64
	IsCorrect      bool
	Skipped        bool
	ElapsedSeconds float64
}

// QuestionText renders the question this event answered.
func (e AnswerEvent) QuestionText() string {
	return Question{Operation: e.Operation, Operand1: e.Operand1, Operand2: e.Operand2}.Text()
}

// SessionState is the live state of a running session.
type SessionState struct {
	RemainingSeconds int
	Score            int
	QuestionsAsked   int
	CurrentQuestion  Question
	History          []AnswerEvent
}

// SessionRecord is a finalized session as handed to aggregation and storage.
type SessionRecord struct {
	ID              string
	StartedAt       time.Time
	EndedAt         time.Time
	DurationSeconds int
	Score           int
	QuestionsAsked  int
	Events          []AnswerEvent
}

// Statistics summarizes a sequence of answer events.
type Statistics struct {
	SessionID              string
	TotalQuestions         int
	CorrectAnswers         int
	Accuracy               float64
	PerformanceByOperation map[Operation]float64
	AverageElapsedSeconds  float64
}

// StatsConfig defines filters for history reporting.
type StatsConfig struct {
	Since *time.Time
	Last  int
}

// GameConfig is the validated input to a game session.
type GameConfig struct {
	DurationSeconds int
	Ranges          OperationConfig
	ConfirmSkip     bool
}

const sessionIDLayout = "20060102_150405"

// SessionIDFor builds a session identifier from its start time.
func SessionIDFor(t time.Time) string {
	return "Game_" + t.Format(sessionIDLayout)
}

// ParseSessionTime extracts the start time encoded in a session identifier.
func ParseSessionTime(id string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(id, "Game_")
	if !ok || len(rest) < len(sessionIDLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(sessionIDLayout, rest[:len(sessionIDLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatNumber renders integral values without a fractional part.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
