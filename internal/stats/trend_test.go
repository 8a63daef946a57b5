package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestRenderTrend(t *testing.T) {
	var buf bytes.Buffer
	lines := []TrendLine{
		{Name: "accuracy", Values: []float64{20, 80, 50, 100}},
		{Name: "avg(5)", Values: []float64{20, 50, 50, 62.5}},
	}
	if err := RenderTrend(&buf, "Accuracy trend", lines, 12, 4, false); err != nil {
		t.Fatalf("RenderTrend failed: %v", err)
	}
	out := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(out) != 1+4+1 {
		t.Fatalf("expected 6 lines, got %d: %q", len(out), out)
	}
	if out[0] != "Accuracy trend" {
		t.Fatalf("unexpected title: %q", out[0])
	}
	if !strings.HasPrefix(out[1], "100% │ ") || !strings.HasPrefix(out[4], "  0% │ ") {
		t.Fatalf("unexpected axis labels: %q / %q", out[1], out[4])
	}
	for _, row := range out[1:5] {
		if w := runewidth.StringWidth(row); w != 4+3+12 {
			t.Fatalf("unexpected row width %d: %q", w, row)
		}
	}
	if !strings.Contains(out[5], "accuracy (last 100.0%)") || !strings.Contains(out[5], "avg(5) (last 62.5%)") {
		t.Fatalf("unexpected legend: %q", out[5])
	}
}

func TestRenderTrendEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTrend(&buf, "", nil, 20, 4, false); err != nil {
		t.Fatalf("RenderTrend failed: %v", err)
	}
	if buf.String() != "No sessions to plot.\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestTrendWidthFor(t *testing.T) {
	if got := TrendWidthFor(80); got != 80-4-3 {
		t.Fatalf("expected width %d, got %d", 80-4-3, got)
	}
	if got := TrendWidthFor(0); got != minTrendWidth {
		t.Fatalf("expected min width %d, got %d", minTrendWidth, got)
	}
}

func TestResample(t *testing.T) {
	got := resample([]float64{0, 10}, 3)
	if len(got) != 3 || got[0] != 0 || got[1] != 5 || got[2] != 10 {
		t.Fatalf("unexpected stretch: %v", got)
	}
	got = resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected shrink: %v", got)
	}
}

func TestDotBitsCoverBrailleCell(t *testing.T) {
	var mask uint8
	for col := 0; col < 2; col++ {
		for row := 0; row < 4; row++ {
			mask |= dotBit(col, row)
		}
	}
	if mask != 0xFF {
		t.Fatalf("expected all dots set, got %#x", mask)
	}
	if dotBit(1, 0) != 0x08 || dotBit(0, 2) != 0x04 {
		t.Fatalf("unexpected dot layout")
	}
}
