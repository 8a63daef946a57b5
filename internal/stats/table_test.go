package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Question", "Your Answer", "Result"}
	rows := [][]string{
		{"12 ÷ 4", "3", "Correct"},
		{"100 + 7", "17", "Incorrect"},
	}
	rightAlign := map[int]bool{1: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Question  Your Answer  Result" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "12 ÷ 4              3  Correct" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "100 + 7            17  Incorrect" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := formatTable(nil, nil, nil); lines != nil {
		t.Fatalf("expected no lines, got %v", lines)
	}
}
