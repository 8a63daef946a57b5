package ui

import (
	"strings"
	"testing"
)

func TestFitLinesPadsAndCrops(t *testing.T) {
	out := FitLines("ab\nc", 3, 3)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "ab " || lines[1] != "c  " || lines[2] != "   " {
		t.Fatalf("unexpected lines: %q", lines)
	}
	if got := FitLines("a\nb\nc", 1, 2); got != "a\nb" {
		t.Fatalf("expected crop, got %q", got)
	}
}

func TestTruncateLine(t *testing.T) {
	if got := TruncateLine("Game_20261016_093000", 10); got != "Game_20..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := TruncateLine("short", 10); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := TruncateLine("abcdef", 2); got != "ab" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestNextTabWraps(t *testing.T) {
	if got := NextTab(0, -1, 3); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := NextTab(2, 1, 3); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := NextTab(0, 1, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestColumnsFor(t *testing.T) {
	cols := ColumnsFor([]string{"Question", "Result"}, [][]string{{"100 ÷ 10", "Incorrect"}})
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(cols))
	}
	if cols[0].Width != 9 || cols[1].Width != 10 {
		t.Fatalf("unexpected widths: %d, %d", cols[0].Width, cols[1].Width)
	}
}
