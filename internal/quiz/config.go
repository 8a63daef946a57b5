package quiz

import (
	"fmt"

	"github.com/verte-zerg/tuimath/internal/model"
)

// MaxOperand bounds every range endpoint so sums and products of two
// operands fit in int64.
const MaxOperand = 1_000_000_000

// ValidateConfig rejects configurations a session cannot run with.
func ValidateConfig(cfg model.GameConfig) error {
	if cfg.DurationSeconds <= 0 {
		return NewValidationError("duration", "time must be a positive integer")
	}
	return ValidateRanges(cfg.Ranges)
}

// ValidateRanges checks every configured operand range.
func ValidateRanges(ranges model.OperationConfig) error {
	if len(ranges) == 0 {
		return NewValidationError("operations", "enable at least one operation")
	}
	for op := range ranges {
		if !op.Valid() {
			return NewValidationError("operations", fmt.Sprintf("unknown operation %q", op))
		}
	}
	for _, op := range ranges.Operations() {
		r := ranges[op]
		if err := validateTerm(op, "term1", r.Term1); err != nil {
			return err
		}
		if err := validateTerm(op, "term2", r.Term2); err != nil {
			return err
		}
		if op == model.Divide && r.Term2.Contains(0) {
			return NewValidationError(string(op)+" term2", "divisor range must not include 0")
		}
	}
	return nil
}

func validateTerm(op model.Operation, term string, r model.OperandRange) error {
	field := string(op) + " " + term
	if r.Min >= r.Max {
		return NewValidationError(field, fmt.Sprintf("invalid range for %s %s: min must be less than max", op.Symbol(), term))
	}
	if r.Min < -MaxOperand || r.Max > MaxOperand {
		return NewValidationError(field, fmt.Sprintf("invalid range for %s %s: values must be within ±%d", op.Symbol(), term, MaxOperand))
	}
	return nil
}
