package stats

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuimath/internal/model"
)

func TestBuildHeatmapPivotsByOperand(t *testing.T) {
	events := []model.AnswerEvent{
		answered(model.Multiply, 7, 3, true, 1),
		answered(model.Multiply, 8, 3, false, 1),
		answered(model.Multiply, 4, 9, true, 1),
		answered(model.Add, 40, 3, true, 1),
	}
	h := BuildHeatmap(events)

	assert.Equal(t, []model.Operation{model.Add, model.Multiply}, h.Rows)
	assert.Equal(t, []string{"3", "9"}, h.Columns)
	assert.InDelta(t, 1.0, h.Cells[0][0], 1e-9)
	assert.True(t, math.IsNaN(h.Cells[0][1]))
	assert.InDelta(t, 0.5, h.Cells[1][0], 1e-9)
	assert.InDelta(t, 1.0, h.Cells[1][1], 1e-9)
	assert.Equal(t, 2, h.Counts[1][0])
}

func TestBuildHeatmapBinsWideRanges(t *testing.T) {
	var events []model.AnswerEvent
	for v := 1; v <= 100; v++ {
		events = append(events, answered(model.Add, 1, v, v%2 == 0, 1))
	}
	h := BuildHeatmap(events)

	require.Len(t, h.Columns, 12)
	assert.Equal(t, "1-9", h.Columns[0])
	assert.Equal(t, "100", h.Columns[11])
	total := 0
	for _, c := range h.Counts[0] {
		total += c
	}
	assert.Equal(t, 100, total)
}

func TestBuildHeatmapBinsExtremeOperands(t *testing.T) {
	var events []model.AnswerEvent
	for i := 0; i < 20; i++ {
		events = append(events, answered(model.Add, 1, math.MinInt+i, true, 1))
	}
	events = append(events, answered(model.Add, 1, math.MaxInt, false, 1))
	h := BuildHeatmap(events)

	require.LessOrEqual(t, len(h.Columns), 12)
	assert.Equal(t, 21, h.Counts[0][0]+h.Counts[0][len(h.Columns)-1])
	assert.True(t, strings.HasSuffix(h.Columns[len(h.Columns)-1], fmt.Sprint(math.MaxInt)))
}

func TestBuildHeatmapSkipsUnknownOperations(t *testing.T) {
	h := BuildHeatmap([]model.AnswerEvent{answered(model.Operation("modulo"), 7, 3, true, 1)})
	assert.True(t, h.Empty())

	h = BuildHeatmap([]model.AnswerEvent{
		answered(model.Operation("modulo"), 7, 5, true, 1),
		answered(model.Subtract, 7, 3, false, 1),
	})
	assert.Equal(t, []model.Operation{model.Subtract}, h.Rows)
	assert.Equal(t, []string{"3"}, h.Columns)
	assert.Equal(t, 1, h.Counts[0][0])
}

func TestBuildHeatmapEmpty(t *testing.T) {
	h := BuildHeatmap(nil)
	assert.True(t, h.Empty())

	var buf bytes.Buffer
	require.NoError(t, RenderHeatmap(&buf, h, false))
	assert.Equal(t, "No data for heatmap.\n", buf.String())
}

func TestRenderHeatmapPlain(t *testing.T) {
	h := BuildHeatmap([]model.AnswerEvent{
		answered(model.Divide, 12, 4, true, 1),
		answered(model.Divide, 12, 3, false, 1),
		answered(model.Divide, 20, 4, false, 1),
	})
	var buf bytes.Buffer
	require.NoError(t, RenderHeatmap(&buf, h, false))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "Accuracy by operation and second operand", lines[0])
	assert.Equal(t, "       3    4", lines[1])
	assert.Equal(t, "÷     0%  50%", lines[2])
}

func TestHeatColorEndpoints(t *testing.T) {
	assert.Equal(t, "#FF4D4F", heatColor(0))
	assert.Equal(t, "#52C44F", heatColor(1))
	assert.Equal(t, heatColor(1), heatColor(3))
}

func TestShouldUseColorHonoursNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ShouldUseColor(&bytes.Buffer{}, true))
}

func TestShouldUseColorNonTerminal(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.False(t, ShouldUseColor(&bytes.Buffer{}, false))
	assert.True(t, ShouldUseColor(&bytes.Buffer{}, true))
}
