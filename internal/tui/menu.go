package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/quiz"
	"github.com/verte-zerg/tuimath/internal/ui"
)

// Field layout: index 0 is the duration, then four range bounds per
// operation in model.AllOperations order (term1 min/max, term2 min/max).
const (
	fieldDuration = 0
	fieldsPerOp   = 4
	fieldCount    = 1 + fieldsPerOp*4
)

type menuModel struct {
	inputs      []textinput.Model
	enabled     map[model.Operation]bool
	focus       int
	confirmSkip bool
	err         string
}

func newMenu(cfg model.GameConfig) menuModel {
	m := menuModel{
		inputs:      make([]textinput.Model, fieldCount),
		enabled:     map[model.Operation]bool{},
		confirmSkip: cfg.ConfirmSkip,
	}
	defaults := model.DefaultOperationConfig()
	for i := range m.inputs {
		input := textinput.New()
		input.Prompt = ""
		input.CharLimit = 6
		input.Width = 6
		m.inputs[i] = input
	}
	m.inputs[fieldDuration].SetValue(strconv.Itoa(cfg.DurationSeconds))
	for i, op := range model.AllOperations {
		r, ok := cfg.Ranges[op]
		m.enabled[op] = ok
		if !ok {
			r = defaults[op]
		}
		base := 1 + i*fieldsPerOp
		m.inputs[base].SetValue(strconv.Itoa(r.Term1.Min))
		m.inputs[base+1].SetValue(strconv.Itoa(r.Term1.Max))
		m.inputs[base+2].SetValue(strconv.Itoa(r.Term2.Min))
		m.inputs[base+3].SetValue(strconv.Itoa(r.Term2.Max))
	}
	m.inputs[fieldDuration].Focus()
	return m
}

// opForField returns the operation whose row holds field idx.
func opForField(idx int) (model.Operation, bool) {
	if idx <= fieldDuration || idx >= fieldCount {
		return "", false
	}
	return model.AllOperations[(idx-1)/fieldsPerOp], true
}

func (m *menuModel) setFocus(idx int) tea.Cmd {
	idx = ui.NextTab(idx, 0, len(m.inputs))
	m.focus = idx
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == idx {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

// update handles a key press. start reports that the form was submitted
// and cfg holds the validated configuration.
func (m *menuModel) update(msg tea.KeyMsg) (cfg model.GameConfig, start bool, cmd tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		parsed, err := m.parse()
		if err != nil {
			m.err = errorMessage(err)
			return model.GameConfig{}, false, nil
		}
		m.err = ""
		return parsed, true, nil
	case tea.KeyTab, tea.KeyDown:
		return model.GameConfig{}, false, m.setFocus(m.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return model.GameConfig{}, false, m.setFocus(m.focus - 1)
	case tea.KeySpace:
		if op, ok := opForField(m.focus); ok {
			m.enabled[op] = !m.enabled[op]
		}
		return model.GameConfig{}, false, nil
	case tea.KeyCtrlS:
		m.confirmSkip = !m.confirmSkip
		return model.GameConfig{}, false, nil
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if (r < '0' || r > '9') && r != '-' {
				return model.GameConfig{}, false, nil
			}
		}
	}
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return model.GameConfig{}, false, cmd
}

// parse reads the form into a validated game configuration.
func (m *menuModel) parse() (model.GameConfig, error) {
	duration, err := parseField(m.inputs[fieldDuration].Value(), "time")
	if err != nil {
		return model.GameConfig{}, err
	}
	cfg := model.GameConfig{
		DurationSeconds: duration,
		Ranges:          model.OperationConfig{},
		ConfirmSkip:     m.confirmSkip,
	}
	for i, op := range model.AllOperations {
		if !m.enabled[op] {
			continue
		}
		base := 1 + i*fieldsPerOp
		var bounds [fieldsPerOp]int
		for j := range bounds {
			field := fmt.Sprintf("%s term %d", op.Symbol(), j/2+1)
			if bounds[j], err = parseField(m.inputs[base+j].Value(), field); err != nil {
				return model.GameConfig{}, err
			}
		}
		cfg.Ranges[op] = model.OperandRanges{
			Term1: model.OperandRange{Min: bounds[0], Max: bounds[1]},
			Term2: model.OperandRange{Min: bounds[2], Max: bounds[3]},
		}
	}
	if err := quiz.ValidateConfig(cfg); err != nil {
		return model.GameConfig{}, err
	}
	return cfg, nil
}

func parseField(value, field string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &quiz.ValidationError{Field: field, Reason: field + " must be an integer", Err: err}
	}
	return v, nil
}

func (m *menuModel) view() string {
	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render("Arithmetic Game"))
	b.WriteString("\n\n")
	b.WriteString("Time (seconds): " + m.inputs[fieldDuration].View())
	b.WriteString("\n\n")
	b.WriteString(ui.MutedStyle.Render(fmt.Sprintf("%-6s %-20s %-20s", "", "Term 1", "Term 2")))
	b.WriteString("\n")
	for i, op := range model.AllOperations {
		base := 1 + i*fieldsPerOp
		check := "[ ]"
		if m.enabled[op] {
			check = "[x]"
		}
		row := fmt.Sprintf("%s %s  %s to %s   %s to %s",
			check, op.Symbol(),
			m.fieldView(base), m.fieldView(base+1),
			m.fieldView(base+2), m.fieldView(base+3))
		if !m.enabled[op] {
			row = ui.MutedStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	skip := "off"
	if m.confirmSkip {
		skip = "on"
	}
	b.WriteString(ui.MutedStyle.Render("Confirm before skipping a wrong answer: " + skip))
	b.WriteString("\n\n")
	b.WriteString(ui.MutedStyle.Render("tab/shift+tab: move  space: toggle operation  ctrl+s: toggle confirm  enter: start  ctrl+c: quit"))
	if m.err != "" {
		b.WriteString("\n\n")
		b.WriteString(ui.ErrorStyle.Render("Invalid input: " + m.err))
	}
	return b.String()
}

func (m *menuModel) fieldView(idx int) string {
	return lipgloss.NewStyle().Width(7).Render(m.inputs[idx].View())
}

func errorMessage(err error) string {
	var ve *quiz.ValidationError
	if errors.As(err, &ve) {
		return ve.Message()
	}
	return err.Error()
}
