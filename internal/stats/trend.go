package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	defaultTrendHeight = 8
	minTrendWidth      = 10
	fallbackTermWidth  = 80
	trendAxisWidth     = 4
	trendAxisSep       = " │ "
	trendWindow        = 5
)

var trendColors = []lipgloss.Color{"6", "5"}

// TrendLine is one plotted series with values in the range [0, 100].
type TrendLine struct {
	Name   string
	Values []float64
}

// AccuracyTrend returns per-session accuracy and its moving average.
func AccuracyTrend(h History) []TrendLine {
	acc := AccuracySeries(h)
	if len(acc) == 0 {
		return nil
	}
	return []TrendLine{
		{Name: "accuracy", Values: acc},
		{Name: fmt.Sprintf("avg(%d)", trendWindow), Values: MovingAverage(acc, trendWindow)},
	}
}

// TrendWidthFor returns the plot width that fits totalWidth columns.
func TrendWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minTrendWidth
	}
	width := totalWidth - trendAxisWidth - runewidth.StringWidth(trendAxisSep)
	if width < minTrendWidth {
		width = minTrendWidth
	}
	return width
}

// RenderTrend draws lines as a braille chart on a fixed 0-100% axis.
// A non-positive width fits the terminal; a non-positive height uses the default.
func RenderTrend(w io.Writer, title string, lines []TrendLine, width, height int, useColor bool) error {
	var plotted []TrendLine
	for _, l := range lines {
		if len(l.Values) > 0 {
			plotted = append(plotted, l)
		}
	}
	if len(plotted) == 0 {
		_, err := fmt.Fprintln(w, "No sessions to plot.")
		return err
	}
	if width <= 0 {
		width = TrendWidthFor(terminalWidth())
	}
	if width < minTrendWidth {
		width = minTrendWidth
	}
	if height <= 0 {
		height = defaultTrendHeight
	}

	grids := make([][][]uint8, len(plotted))
	for i, l := range plotted {
		grids[i] = plotBraille(resample(l.Values, width), width, height)
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(axisLabel(y, height), trendAxisWidth))
		row.WriteString(trendAxisSep)
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i := range grids {
				if m := grids[i][y][x]; m != 0 {
					mask |= m
					if owner < 0 {
						owner = i
					}
				}
			}
			cell := string(rune(0x2800 + int(mask)))
			if useColor && owner >= 0 {
				cell = lipgloss.NewStyle().Foreground(trendColors[owner%len(trendColors)]).Render(cell)
			}
			row.WriteString(cell)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}

	legend := make([]string, len(plotted))
	for i, l := range plotted {
		label := fmt.Sprintf("%s (last %.1f%%)", l.Name, l.Values[len(l.Values)-1])
		if useColor {
			label = lipgloss.NewStyle().Foreground(trendColors[i%len(trendColors)]).Render(label)
		}
		legend[i] = label
	}
	_, err := fmt.Fprintln(w, "Legend: "+strings.Join(legend, "  "))
	return err
}

func axisLabel(y, height int) string {
	switch {
	case y == 0:
		return "100%"
	case y == height-1:
		return "0%"
	case height > 2 && y == height/2:
		return "50%"
	}
	return ""
}

// plotBraille rasterises values (one per column) into a grid of braille masks.
// Each cell holds 2x4 dots; consecutive points are joined.
func plotBraille(values []float64, width, height int) [][]uint8 {
	grid := make([][]uint8, height)
	for y := range grid {
		grid[y] = make([]uint8, width)
	}
	dotRows := height * 4
	prevX, prevY := -1, -1
	for x, v := range values {
		v = math.Max(0, math.Min(100, v))
		py := int(math.Round((1 - v/100) * float64(dotRows-1)))
		px := x * 2
		if prevX < 0 {
			setDot(grid, px, py)
		} else {
			joinDots(prevX, prevY, px, py, func(dx, dy int) { setDot(grid, dx, dy) })
		}
		prevX, prevY = px, py
	}
	return grid
}

func setDot(grid [][]uint8, x, y int) {
	cy, cx := y/4, x/2
	if y < 0 || x < 0 || cy >= len(grid) || cx >= len(grid[cy]) {
		return
	}
	grid[cy][cx] |= dotBit(x%2, y%4)
}

func dotBit(col, row int) uint8 {
	if row == 3 {
		if col == 0 {
			return 0x40
		}
		return 0x80
	}
	bit := uint8(1) << uint(row)
	if col == 1 {
		bit <<= 3
	}
	return bit
}

// joinDots walks a Bresenham line between two dot coordinates.
func joinDots(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// resample stretches or averages values to exactly n points.
func resample(values []float64, n int) []float64 {
	out := make([]float64, n)
	switch {
	case len(values) == 0:
		return nil
	case len(values) == 1 || n == 1:
		for i := range out {
			out[i] = values[0]
		}
	case len(values) > n:
		for i := 0; i < n; i++ {
			start := i * len(values) / n
			end := max((i+1)*len(values)/n, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	default:
		for i := 0; i < n; i++ {
			pos := float64(i) * float64(len(values)-1) / float64(n-1)
			idx := int(pos)
			if idx >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}
