// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/tuimath/internal/model"
)

const sparkChars = " .:-=+*#%@"

// History holds per-session statistics plus an aggregate across all of them.
type History struct {
	Sessions []model.Statistics
	Overall  model.Statistics
}

// Aggregate computes accuracy and timing statistics for a sequence of events.
func Aggregate(events []model.AnswerEvent) model.Statistics {
	st := model.Statistics{
		TotalQuestions:         len(events),
		PerformanceByOperation: map[model.Operation]float64{},
	}
	if len(events) == 0 {
		return st
	}

	type opCount struct {
		correct int
		total   int
	}
	perOp := map[model.Operation]*opCount{}
	var elapsed float64
	for _, ev := range events {
		c, ok := perOp[ev.Operation]
		if !ok {
			c = &opCount{}
			perOp[ev.Operation] = c
		}
		c.total++
		if ev.IsCorrect {
			c.correct++
			st.CorrectAnswers++
		}
		elapsed += ev.ElapsedSeconds
	}
	for op, c := range perOp {
		st.PerformanceByOperation[op] = float64(c.correct) / float64(c.total)
	}
	st.Accuracy = float64(st.CorrectAnswers) / float64(st.TotalQuestions)
	st.AverageElapsedSeconds = elapsed / float64(len(events))
	return st
}

// AggregateAcrossSessions computes one labelled Statistics per non-empty
// session and an overall figure across every event.
func AggregateAcrossSessions(sessions []model.SessionRecord) History {
	var h History
	var all []model.AnswerEvent
	for _, s := range sessions {
		if len(s.Events) == 0 {
			continue
		}
		st := Aggregate(s.Events)
		st.SessionID = s.ID
		h.Sessions = append(h.Sessions, st)
		all = append(all, s.Events...)
	}
	h.Overall = Aggregate(all)
	return h
}

// AllEvents flattens the events of every session in order.
func AllEvents(sessions []model.SessionRecord) []model.AnswerEvent {
	var out []model.AnswerEvent
	for _, s := range sessions {
		out = append(out, s.Events...)
	}
	return out
}

// FormatPercent renders an accuracy ratio, or N/A when nothing was answered.
func FormatPercent(st model.Statistics) string {
	if st.TotalQuestions == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", st.Accuracy*100)
}

// FormatSeconds renders the average time per question.
func FormatSeconds(st model.Statistics) string {
	if st.TotalQuestions == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f seconds", st.AverageElapsedSeconds)
}

// FormatPerformance renders per-operation accuracy in canonical order.
func FormatPerformance(perf map[model.Operation]float64) string {
	parts := make([]string, 0, len(perf))
	for _, op := range model.AllOperations {
		acc, ok := perf[op]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %.2f%%", op.Symbol(), acc*100))
	}
	return strings.Join(parts, ", ")
}

// AccuracySeries returns per-session accuracy as percentages.
func AccuracySeries(h History) []float64 {
	out := make([]float64, len(h.Sessions))
	for i, s := range h.Sessions {
		out[i] = s.Accuracy * 100
	}
	return out
}

// ElapsedSeries returns per-session average seconds per question.
func ElapsedSeries(h History) []float64 {
	out := make([]float64, len(h.Sessions))
	for i, s := range h.Sessions {
		out[i] = s.AverageElapsedSeconds
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the headline figures for one session.
func RenderSummary(w io.Writer, rec model.SessionRecord, st model.Statistics) error {
	lines := []string{
		fmt.Sprintf("Game Session: %s", rec.ID),
		fmt.Sprintf("Score: %d/%d", rec.Score, rec.QuestionsAsked),
		fmt.Sprintf("Accuracy: %s", FormatPercent(st)),
		fmt.Sprintf("Average Time per Question: %s", FormatSeconds(st)),
	}
	if perf := FormatPerformance(st.PerformanceByOperation); perf != "" {
		lines = append(lines, fmt.Sprintf("Performance by Operation: %s", perf))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// QuestionHistoryRows builds table rows for the question history of a session.
func QuestionHistoryRows(events []model.AnswerEvent) (headers []string, rows [][]string) {
	headers = []string{"Question", "Your Answer", "Correct Answer", "Result"}
	rows = make([][]string, 0, len(events))
	for _, ev := range events {
		answer := "-"
		if ev.UserAnswer != nil {
			answer = model.FormatNumber(*ev.UserAnswer)
		}
		result := "Incorrect"
		switch {
		case ev.IsCorrect:
			result = "Correct"
		case ev.Skipped:
			result = "Skipped"
		}
		rows = append(rows, []string{ev.QuestionText(), answer, model.FormatNumber(ev.CorrectAnswer), result})
	}
	return headers, rows
}

// HistoryRows builds table rows for the all-games history.
func HistoryRows(h History) (headers []string, rows [][]string) {
	headers = []string{"Game Session", "Total Questions", "Correct Answers", "Accuracy", "Avg Time/Question", "Performance by Operation"}
	rows = make([][]string, 0, len(h.Sessions))
	for _, s := range h.Sessions {
		rows = append(rows, []string{
			s.SessionID,
			fmt.Sprintf("%d", s.TotalQuestions),
			fmt.Sprintf("%d", s.CorrectAnswers),
			FormatPercent(s),
			FormatSeconds(s),
			FormatPerformance(s.PerformanceByOperation),
		})
	}
	return headers, rows
}

// RenderQuestionHistory prints the question history table.
func RenderQuestionHistory(w io.Writer, events []model.AnswerEvent) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No questions answered.")
		return err
	}
	headers, rows := QuestionHistoryRows(events)
	return writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true}))
}

// RenderHistoryTable prints statistics for every stored session.
func RenderHistoryTable(w io.Writer, h History) error {
	if len(h.Sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	headers, rows := HistoryRows(h)
	if err := writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Overall: %d questions, %s accuracy, %s\n",
		h.Overall.TotalQuestions, FormatPercent(h.Overall), FormatSeconds(h.Overall))
	return err
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
