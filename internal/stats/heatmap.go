package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/tuimath/internal/model"
)

const (
	maxHeatmapColumns = 12
	heatmapCellWidth  = 5
	heatmapEmptyCell  = "·"
)

// Heatmap is accuracy pivoted by operation (rows) and second operand (columns).
// Cells without data hold NaN.
type Heatmap struct {
	Rows    []model.Operation
	Columns []string
	Cells   [][]float64
	Counts  [][]int
}

// Empty reports whether the heatmap has no data.
func (h Heatmap) Empty() bool {
	return len(h.Rows) == 0 || len(h.Columns) == 0
}

type heatmapBin struct {
	lo, hi int
}

// BuildHeatmap pivots events into mean correctness per operation and operand.
// More than maxHeatmapColumns distinct operands are grouped into equal-width bins.
func BuildHeatmap(events []model.AnswerEvent) Heatmap {
	if len(events) == 0 {
		return Heatmap{}
	}
	opsSeen := map[model.Operation]bool{}
	valuesSeen := map[int]bool{}
	for _, ev := range events {
		if !ev.Operation.Valid() {
			continue
		}
		opsSeen[ev.Operation] = true
		valuesSeen[ev.Operand2] = true
	}
	var rows []model.Operation
	for _, op := range model.AllOperations {
		if opsSeen[op] {
			rows = append(rows, op)
		}
	}
	values := make([]int, 0, len(valuesSeen))
	for v := range valuesSeen {
		values = append(values, v)
	}
	sort.Ints(values)
	bins := heatmapBins(values)

	columns := make([]string, len(bins))
	for i, b := range bins {
		if b.lo == b.hi {
			columns[i] = fmt.Sprintf("%d", b.lo)
		} else {
			columns[i] = fmt.Sprintf("%d-%d", b.lo, b.hi)
		}
	}

	rowIdx := map[model.Operation]int{}
	for i, op := range rows {
		rowIdx[op] = i
	}
	correct := make([][]int, len(rows))
	counts := make([][]int, len(rows))
	for i := range rows {
		correct[i] = make([]int, len(bins))
		counts[i] = make([]int, len(bins))
	}
	for _, ev := range events {
		r, ok := rowIdx[ev.Operation]
		if !ok {
			continue
		}
		c := binIndex(bins, ev.Operand2)
		counts[r][c]++
		if ev.IsCorrect {
			correct[r][c]++
		}
	}

	cells := make([][]float64, len(rows))
	for r := range rows {
		cells[r] = make([]float64, len(bins))
		for c := range bins {
			if counts[r][c] == 0 {
				cells[r][c] = math.NaN()
				continue
			}
			cells[r][c] = float64(correct[r][c]) / float64(counts[r][c])
		}
	}
	return Heatmap{Rows: rows, Columns: columns, Cells: cells, Counts: counts}
}

func heatmapBins(values []int) []heatmapBin {
	if len(values) <= maxHeatmapColumns {
		bins := make([]heatmapBin, len(values))
		for i, v := range values {
			bins[i] = heatmapBin{lo: v, hi: v}
		}
		return bins
	}
	lo, hi := values[0], values[len(values)-1]
	// Offsets from lo are unsigned so the widest int ranges do not overflow.
	span := uint64(hi) - uint64(lo)
	size := span/maxHeatmapColumns + 1
	var bins []heatmapBin
	for off := uint64(0); ; off += size {
		start := int(uint64(lo) + off)
		if span-off < size {
			return append(bins, heatmapBin{lo: start, hi: hi})
		}
		bins = append(bins, heatmapBin{lo: start, hi: int(uint64(lo) + off + size - 1)})
	}
}

func binIndex(bins []heatmapBin, v int) int {
	idx := sort.Search(len(bins), func(i int) bool { return bins[i].hi >= v })
	if idx >= len(bins) {
		return len(bins) - 1
	}
	return idx
}

// RenderHeatmap draws the heatmap as a text grid, coloured when useColor is set.
func RenderHeatmap(w io.Writer, h Heatmap, useColor bool) error {
	if h.Empty() {
		_, err := fmt.Fprintln(w, "No data for heatmap.")
		return err
	}
	cellWidth := heatmapCellWidth
	for _, label := range h.Columns {
		if lw := runewidth.StringWidth(label) + 1; lw > cellWidth {
			cellWidth = lw
		}
	}
	const labelWidth = 3

	var header strings.Builder
	header.WriteString(strings.Repeat(" ", labelWidth))
	for _, label := range h.Columns {
		header.WriteString(runewidth.FillLeft(label, cellWidth))
	}
	if _, err := fmt.Fprintln(w, "Accuracy by operation and second operand"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, header.String()); err != nil {
		return err
	}
	for r, op := range h.Rows {
		var line strings.Builder
		line.WriteString(runewidth.FillRight(op.Symbol(), labelWidth))
		for c := range h.Columns {
			line.WriteString(renderHeatCell(h.Cells[r][c], cellWidth, useColor))
		}
		if _, err := fmt.Fprintln(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}

func renderHeatCell(v float64, width int, useColor bool) string {
	if math.IsNaN(v) {
		return runewidth.FillLeft(heatmapEmptyCell, width)
	}
	text := runewidth.FillLeft(fmt.Sprintf("%d%%", int(math.Round(v*100))), width)
	if !useColor {
		return text
	}
	style := lipgloss.NewStyle().
		Background(lipgloss.Color(heatColor(v))).
		Foreground(lipgloss.Color("#101010"))
	return style.Render(text)
}

// heatColor interpolates from red (0) through yellow (0.5) to green (1).
func heatColor(v float64) string {
	v = math.Max(0, math.Min(1, v))
	var r, g float64
	if v < 0.5 {
		r, g = 255, 77+(204-77)*(v/0.5)
	} else {
		r, g = 255-(255-82)*((v-0.5)/0.5), 204-(204-196)*((v-0.5)/0.5)
	}
	return fmt.Sprintf("#%02X%02X%02X", int(r), int(g), 79)
}

// ShouldUseColor reports whether coloured output suits w.
func ShouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
