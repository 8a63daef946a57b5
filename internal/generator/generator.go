// Package generator builds randomized arithmetic questions.
package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/verte-zerg/tuimath/internal/model"
)

// Generator produces randomized questions from operand ranges.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource returns a Generator drawing from src.
func NewWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Generate picks an operation uniformly from cfg and draws its operands.
// Ranges are expected to satisfy Min < Max; divisor ranges must exclude zero.
func (g *Generator) Generate(cfg model.OperationConfig) model.Question {
	ops := cfg.Operations()
	if len(ops) == 0 {
		return model.Question{}
	}
	op := ops[g.rnd.Intn(len(ops))]
	ranges := cfg[op]

	q := model.Question{Operation: op}
	switch op {
	case model.Add:
		q.Operand1 = g.draw(ranges.Term1)
		q.Operand2 = g.draw(ranges.Term2)
		q.CorrectAnswer = float64(q.Operand1) + float64(q.Operand2)
	case model.Subtract:
		a := g.draw(ranges.Term1)
		b := g.draw(ranges.Term2)
		if b > a {
			a, b = b, a
		}
		q.Operand1, q.Operand2 = a, b
		q.CorrectAnswer = float64(a) - float64(b)
	case model.Multiply:
		q.Operand1 = g.draw(ranges.Term1)
		q.Operand2 = g.draw(ranges.Term2)
		q.CorrectAnswer = float64(q.Operand1) * float64(q.Operand2)
	case model.Divide:
		divisor := g.draw(ranges.Term2)
		multiplier := g.draw(ranges.Term1)
		q.Operand1 = divisor * multiplier
		q.Operand2 = divisor
		q.CorrectAnswer = float64(multiplier)
	}
	return q
}

// draw returns a uniform value in [r.Min, r.Max]. The span is computed in
// uint64 so ranges as wide as the whole int domain do not overflow.
func (g *Generator) draw(r model.OperandRange) int {
	if r.Max <= r.Min {
		return r.Min
	}
	span := uint64(r.Max) - uint64(r.Min)
	if span < math.MaxInt64 {
		return int(uint64(r.Min) + uint64(g.rnd.Int63n(int64(span)+1)))
	}
	for {
		if v := g.rnd.Uint64(); v <= span {
			return int(uint64(r.Min) + v)
		}
	}
}
