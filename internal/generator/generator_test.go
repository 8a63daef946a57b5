package generator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuimath/internal/model"
)

func TestGenerateStaysWithinRanges(t *testing.T) {
	cfg := model.OperationConfig{
		model.Add:      {Term1: model.OperandRange{Min: 1, Max: 10}, Term2: model.OperandRange{Min: 5, Max: 8}},
		model.Multiply: {Term1: model.OperandRange{Min: -3, Max: 3}, Term2: model.OperandRange{Min: 2, Max: 12}},
	}
	g := NewWithSource(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		q := g.Generate(cfg)
		ranges, ok := cfg[q.Operation]
		require.True(t, ok, "unexpected operation %q", q.Operation)
		assert.True(t, ranges.Term1.Contains(q.Operand1), "operand1 %d outside %+v", q.Operand1, ranges.Term1)
		assert.True(t, ranges.Term2.Contains(q.Operand2), "operand2 %d outside %+v", q.Operand2, ranges.Term2)
	}
}

func TestGenerateCoversRangeBounds(t *testing.T) {
	cfg := model.OperationConfig{
		model.Add: {Term1: model.OperandRange{Min: 1, Max: 3}, Term2: model.OperandRange{Min: 1, Max: 3}},
	}
	g := NewWithSource(rand.NewSource(1))
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		seen[g.Generate(cfg).Operand1] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, seen)
}

func TestGenerateSubtractIsNonNegative(t *testing.T) {
	cfg := model.OperationConfig{
		model.Subtract: {Term1: model.OperandRange{Min: 1, Max: 10}, Term2: model.OperandRange{Min: 1, Max: 50}},
	}
	g := NewWithSource(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		q := g.Generate(cfg)
		require.Equal(t, model.Subtract, q.Operation)
		assert.GreaterOrEqual(t, q.Operand1, q.Operand2)
		assert.Equal(t, float64(q.Operand1-q.Operand2), q.CorrectAnswer)
		assert.GreaterOrEqual(t, q.CorrectAnswer, 0.0)
	}
}

func TestGenerateDivideIsExact(t *testing.T) {
	term1 := model.OperandRange{Min: 1, Max: 100}
	term2 := model.OperandRange{Min: 1, Max: 12}
	cfg := model.OperationConfig{model.Divide: {Term1: term1, Term2: term2}}
	g := NewWithSource(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		q := g.Generate(cfg)
		require.Equal(t, model.Divide, q.Operation)
		require.NotZero(t, q.Operand2)
		assert.Zero(t, q.Operand1%q.Operand2, "%d not divisible by %d", q.Operand1, q.Operand2)
		multiplier := q.Operand1 / q.Operand2
		assert.True(t, term1.Contains(multiplier), "multiplier %d outside %+v", multiplier, term1)
		assert.True(t, term2.Contains(q.Operand2))
		assert.Equal(t, float64(multiplier), q.CorrectAnswer)
		assert.Equal(t, q.CorrectAnswer, math.Trunc(q.CorrectAnswer))
	}
}

func TestGenerateMultiply(t *testing.T) {
	cfg := model.OperationConfig{
		model.Multiply: {Term1: model.OperandRange{Min: 2, Max: 9}, Term2: model.OperandRange{Min: 2, Max: 9}},
	}
	g := NewWithSource(rand.NewSource(5))
	for i := 0; i < 200; i++ {
		q := g.Generate(cfg)
		assert.Equal(t, float64(q.Operand1*q.Operand2), q.CorrectAnswer)
	}
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	cfg := model.DefaultOperationConfig()
	a := NewWithSource(rand.NewSource(42))
	b := NewWithSource(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Generate(cfg), b.Generate(cfg))
	}
}

func TestGenerateUsesOnlyConfiguredOperations(t *testing.T) {
	cfg := model.DefaultOperationConfig()
	delete(cfg, model.Add)
	delete(cfg, model.Divide)
	g := NewWithSource(rand.NewSource(9))
	counts := map[model.Operation]int{}
	for i := 0; i < 1000; i++ {
		counts[g.Generate(cfg).Operation]++
	}
	assert.Len(t, counts, 2)
	assert.Greater(t, counts[model.Subtract], 350)
	assert.Greater(t, counts[model.Multiply], 350)
}

func TestGenerateWideRanges(t *testing.T) {
	full := model.OperationConfig{
		model.Add: {Term1: model.OperandRange{Min: math.MinInt, Max: math.MaxInt}, Term2: model.OperandRange{Min: 0, Max: math.MaxInt}},
	}
	g := NewWithSource(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		q := g.Generate(full)
		assert.GreaterOrEqual(t, q.Operand2, 0)
	}

	cfg := model.OperationConfig{
		model.Multiply: {Term1: model.OperandRange{Min: 900_000_000, Max: 1_000_000_000}, Term2: model.OperandRange{Min: 900_000_000, Max: 1_000_000_000}},
	}
	for i := 0; i < 100; i++ {
		q := g.Generate(cfg)
		assert.GreaterOrEqual(t, q.CorrectAnswer, 8.1e17)
		assert.Equal(t, float64(q.Operand1)*float64(q.Operand2), q.CorrectAnswer)
	}
}

func TestGenerateEmptyConfig(t *testing.T) {
	g := NewWithSource(rand.NewSource(1))
	assert.Equal(t, model.Question{}, g.Generate(model.OperationConfig{}))
}
