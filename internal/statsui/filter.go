package statsui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/ui"
)

const sinceLayout = "2006-01-02"

var (
	errBadSince = errors.New("invalid since date (expected YYYY-MM-DD)")
	errBadLast  = errors.New("invalid last value (use 0 or positive integer)")
)

// filterForm edits the since/last filters of the browser.
type filterForm struct {
	open   bool
	since  textinput.Model
	last   textinput.Model
	onLast bool
	err    string
}

func newFilterForm() filterForm {
	return filterForm{
		since: filterInput("Since (YYYY-MM-DD): "),
		last:  filterInput("Last: "),
	}
}

func filterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

// show opens the form prefilled from cfg.
func (f *filterForm) show(cfg model.StatsConfig) tea.Cmd {
	f.open = true
	f.err = ""
	f.since.SetValue("")
	if cfg.Since != nil {
		f.since.SetValue(cfg.Since.Format(sinceLayout))
	}
	f.last.SetValue("")
	if cfg.Last > 0 {
		f.last.SetValue(strconv.Itoa(cfg.Last))
	}
	return f.focus(false)
}

func (f *filterForm) focus(onLast bool) tea.Cmd {
	f.onLast = onLast
	if onLast {
		f.since.Blur()
		return f.last.Focus()
	}
	f.last.Blur()
	return f.since.Focus()
}

func (f *filterForm) setWidth(width int) {
	for _, input := range []*textinput.Model{&f.since, &f.last} {
		input.Width = max(10, width-lipgloss.Width(input.Prompt)-2)
	}
}

// update handles a key while the form is open. applied reports that the
// form closed with a valid cfg.
func (f *filterForm) update(msg tea.KeyMsg) (cfg model.StatsConfig, applied bool, cmd tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		f.open = false
		f.err = ""
		return cfg, false, nil
	case tea.KeyEnter:
		parsed, err := f.parse()
		if err != nil {
			f.err = err.Error()
			return cfg, false, nil
		}
		f.open = false
		f.err = ""
		return parsed, true, nil
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		return cfg, false, f.focus(!f.onLast)
	}
	if f.onLast {
		f.last, cmd = f.last.Update(msg)
	} else {
		f.since, cmd = f.since.Update(msg)
	}
	return cfg, false, cmd
}

func (f *filterForm) parse() (model.StatsConfig, error) {
	since, err := ParseSince(f.since.Value())
	if err != nil {
		return model.StatsConfig{}, err
	}
	last := 0
	if raw := strings.TrimSpace(f.last.Value()); raw != "" {
		last, err = strconv.Atoi(raw)
		if err != nil || last < 0 {
			return model.StatsConfig{}, errBadLast
		}
	}
	return model.StatsConfig{Since: since, Last: last}, nil
}

func (f *filterForm) view() string {
	lines := []string{"Filters (enter to apply, esc to cancel)", f.since.View(), f.last.View()}
	if f.err != "" {
		lines = append(lines, ui.ErrorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}

// ParseSince parses a YYYY-MM-DD date in local time. Blank input means no bound.
func ParseSince(input string) (*time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(sinceLayout, input, time.Local)
	if err != nil {
		return nil, errBadSince
	}
	return &parsed, nil
}
