package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/tuimath/internal/model"
)

const defaultSheet = "Sheet1"

// Column headers of a session sheet.
const (
	colElapsed       = "Time_Taken_Seconds"
	colOperation     = "Operation"
	colTerm1         = "Term1"
	colTerm2         = "Term2"
	colCorrect       = "Correct"
	colUserAnswer    = "User_Answer"
	colCorrectAnswer = "Correct_Answer"
	colSkipped       = "Skipped"
)

var sheetHeader = []any{colElapsed, colOperation, colTerm1, colTerm2, colCorrect, colUserAnswer, colCorrectAnswer, colSkipped}

// Workbook stores each session as its own worksheet in an .xlsx file.
type Workbook struct {
	path   string
	logger *log.Logger
}

// OpenWorkbook prepares a workbook store. The file is created on first append.
func OpenWorkbook(path string, opts ...Option) (*Workbook, error) {
	if path == "" {
		return nil, wrapErr("open", path, errors.New("workbook path is empty"))
	}
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return nil, wrapErr("open", path, errors.New("workbook must have an .xlsx extension"))
	}
	return &Workbook{path: path, logger: newOptions(opts).logger}, nil
}

// Close is a no-op; the workbook is opened per operation.
func (w *Workbook) Close() error {
	return nil
}

// AppendSession writes rec as a new worksheet named after the session.
func (w *Workbook) AppendSession(_ context.Context, rec model.SessionRecord) (string, error) {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return "", wrapErr("create directory for", w.path, err)
	}
	f, created, err := w.openOrCreate()
	if err != nil {
		return "", wrapErr("open", w.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()

	id := uniqueID(rec.ID, func(candidate string) bool {
		idx, err := f.GetSheetIndex(candidate)
		return err == nil && idx >= 0
	})
	if created {
		if err := f.SetSheetName(defaultSheet, id); err != nil {
			return "", wrapErr("write", w.path, err)
		}
	} else if _, err := f.NewSheet(id); err != nil {
		return "", wrapErr("write", w.path, err)
	}

	if err := writeSessionSheet(f, id, rec.Events); err != nil {
		return "", wrapErr("write", w.path, err)
	}
	if err := w.save(f); err != nil {
		return "", wrapErr("write", w.path, err)
	}
	return id, nil
}

// ReadAllSessions returns one record per worksheet, in workbook order.
func (w *Workbook) ReadAllSessions(_ context.Context) ([]model.SessionRecord, error) {
	if _, err := os.Stat(w.path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, wrapErr("read", w.path, err)
	}
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, wrapErr("read", w.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, wrapErr("read", w.path, err)
		}
		events, bad, ok := parseSessionRows(rows)
		for _, err := range bad {
			w.logger.Warn("skipped malformed row", "path", w.path, "sheet", sheet, "err", err)
		}
		if !ok {
			continue
		}
		rec := model.SessionRecord{ID: sheet, Events: events, QuestionsAsked: len(events)}
		if started, ok := model.ParseSessionTime(sheet); ok {
			rec.StartedAt = started
			rec.EndedAt = started
		}
		for _, ev := range events {
			if ev.IsCorrect {
				rec.Score++
			}
		}
		sessions = append(sessions, rec)
	}
	return sessions, nil
}

func (w *Workbook) openOrCreate() (*excelize.File, bool, error) {
	if _, err := os.Stat(w.path); err != nil {
		if os.IsNotExist(err) {
			return excelize.NewFile(), true, nil
		}
		return nil, false, err
	}
	f, err := excelize.OpenFile(w.path)
	return f, false, err
}

// save writes to a temporary file and renames it over the workbook.
func (w *Workbook) save(f *excelize.File) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(w.path), "results-*.xlsx")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	if err := tmpFile.Close(); err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmpPath)
	}()
	if err := f.SaveAs(tmpPath); err != nil {
		return err
	}
	return os.Rename(tmpPath, w.path)
}

func writeSessionSheet(f *excelize.File, sheet string, events []model.AnswerEvent) error {
	if err := f.SetSheetRow(sheet, "A1", &sheetHeader); err != nil {
		return err
	}
	for i, ev := range events {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var answer any = ""
		if ev.UserAnswer != nil {
			answer = *ev.UserAnswer
		}
		row := []any{
			ev.ElapsedSeconds,
			ev.Operation.Symbol(),
			ev.Operand1,
			ev.Operand2,
			boolToInt(ev.IsCorrect),
			answer,
			ev.CorrectAnswer,
			boolToInt(ev.Skipped),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// parseSessionRows decodes a session sheet. Sheets without the expected
// headers report ok=false. Rows that fail to parse are left out and returned
// as errors naming the spreadsheet row.
func parseSessionRows(rows [][]string) (events []model.AnswerEvent, bad []error, ok bool) {
	if len(rows) == 0 {
		return nil, nil, false
	}
	cols := map[string]int{}
	for i, name := range rows[0] {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colElapsed, colOperation, colTerm1, colTerm2, colCorrect} {
		if _, found := cols[required]; !found {
			return nil, nil, false
		}
	}

	events = make([]model.AnswerEvent, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if rowEmpty(row) {
			continue
		}
		get := func(name string) string {
			idx, found := cols[name]
			if !found || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		ev, err := parseEventRow(get)
		if err != nil {
			bad = append(bad, fmt.Errorf("row %d: %w", n+2, err))
			continue
		}
		events = append(events, ev)
	}
	return events, bad, true
}

func parseEventRow(get func(string) string) (model.AnswerEvent, error) {
	var ev model.AnswerEvent
	var err error
	if ev.Operation, err = model.ParseOperation(get(colOperation)); err != nil {
		return ev, err
	}
	if ev.ElapsedSeconds, err = strconv.ParseFloat(get(colElapsed), 64); err != nil {
		return ev, fmt.Errorf("invalid %s: %w", colElapsed, err)
	}
	if ev.Operand1, err = parseInt(get(colTerm1)); err != nil {
		return ev, fmt.Errorf("invalid %s: %w", colTerm1, err)
	}
	if ev.Operand2, err = parseInt(get(colTerm2)); err != nil {
		return ev, fmt.Errorf("invalid %s: %w", colTerm2, err)
	}
	if ev.IsCorrect, err = parseBool(get(colCorrect)); err != nil {
		return ev, fmt.Errorf("invalid %s: %w", colCorrect, err)
	}
	if raw := get(colSkipped); raw != "" {
		if ev.Skipped, err = parseBool(raw); err != nil {
			return ev, fmt.Errorf("invalid %s: %w", colSkipped, err)
		}
	}
	if raw := get(colUserAnswer); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return ev, fmt.Errorf("invalid %s: %w", colUserAnswer, err)
		}
		ev.UserAnswer = &v
	}
	if raw := get(colCorrectAnswer); raw != "" {
		if ev.CorrectAnswer, err = strconv.ParseFloat(raw, 64); err != nil {
			return ev, fmt.Errorf("invalid %s: %w", colCorrectAnswer, err)
		}
	} else {
		ev.CorrectAnswer = computeAnswer(ev.Operation, ev.Operand1, ev.Operand2)
	}
	return ev, nil
}

// computeAnswer recovers the answer for sheets written without that column.
func computeAnswer(op model.Operation, a, b int) float64 {
	switch op {
	case model.Add:
		return float64(a + b)
	case model.Subtract:
		return float64(a - b)
	case model.Multiply:
		return float64(a * b)
	case model.Divide:
		if b == 0 {
			return 0
		}
		return float64(a) / float64(b)
	}
	return 0
}

func parseInt(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true":
		return true, nil
	case "0", "false", "":
		return false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
