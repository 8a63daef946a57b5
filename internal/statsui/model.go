// Package statsui provides the Bubble Tea history browser.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/stats"
	"github.com/verte-zerg/tuimath/internal/store"
	"github.com/verte-zerg/tuimath/internal/ui"
)

const (
	tabOverview = iota
	tabSessions
	tabHeatmap
)

const (
	plotHeight   = 10
	weakTop      = 2
	defaultWidth = 80
)

var browserTabs = []string{"Overview", "Sessions", "Heatmap"}

// Model implements the Bubble Tea history browser.
type Model struct {
	store    store.Store
	cfg      model.StatsConfig
	useColor bool

	report  stats.Report
	loadErr string

	active int
	pages  []viewport.Model
	table  table.Model
	filter filterForm

	width  int
	height int
}

// NewModel constructs a history browser over st.
func NewModel(st store.Store, cfg model.StatsConfig, useColor bool) *Model {
	m := &Model{
		store:    st,
		cfg:      cfg,
		useColor: useColor,
		pages:    make([]viewport.Model, len(browserTabs)),
		table:    table.New(),
		filter:   newFilterForm(),
	}
	for i := range m.pages {
		m.pages[i] = viewport.New(0, 0)
	}
	m.table.SetStyles(ui.TableStyles())
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.renderPages()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filter.open {
			cfg, applied, cmd := m.filter.update(msg)
			if applied {
				m.cfg = cfg
				m.reload()
			}
			return m, cmd
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	onTable := m.active == tabSessions
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.switchTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.switchTab(1)
		return m, tea.ClearScreen
	case "/":
		return m, m.filter.show(m.cfg)
	case "g", "home":
		if onTable {
			m.table.GotoTop()
		} else {
			m.pages[m.active].GotoTop()
		}
		return m, nil
	case "G", "end":
		if onTable {
			m.table.GotoBottom()
		} else {
			m.pages[m.active].GotoBottom()
		}
		return m, nil
	}
	var cmd tea.Cmd
	if onTable {
		m.table, cmd = m.table.Update(msg)
	} else {
		m.pages[m.active], cmd = m.pages[m.active].Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	top, body, bottom := m.heights()
	return strings.Join([]string{
		ui.FitLines(m.header(), m.width, top),
		ui.FitLines(m.body(), m.width, body),
		ui.FitLines(m.footer(), m.width, bottom),
	}, "\n")
}

// heights splits the window into header, body and footer rows.
func (m *Model) heights() (top, body, bottom int) {
	top = ui.TabsHeight() + 1
	bottom = 1
	if !m.filter.open && m.loadErr != "" {
		bottom = 2
	}
	return top, max(1, m.height-top-bottom), bottom
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, body, _ := m.heights()
	for i := range m.pages {
		m.pages[i].Width = m.width
		m.pages[i].Height = body
	}
	m.table.SetWidth(m.width)
	m.table.SetHeight(body)
	m.filter.setWidth(m.width)
}

func (m *Model) switchTab(delta int) {
	m.active = ui.NextTab(m.active, delta, len(browserTabs))
	if m.active == tabSessions {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) header() string {
	since, last := "any", "all"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(sinceLayout)
	}
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Filters: since=%s  last=%s  sessions=%d", since, last, len(m.report.History.Sessions))
	return ui.PadLines(ui.Tabs(browserTabs, m.active), m.width) + "\n" +
		ui.MutedStyle.Render(ui.TruncateLine(summary, m.width))
}

func (m *Model) footer() string {
	if m.filter.open {
		return ui.MutedStyle.Render("tab: switch field  enter: apply  esc: cancel")
	}
	help := ui.MutedStyle.Render("left/right: tabs  up/down/pgup/pgdn: scroll  /: filters  q: quit")
	if m.loadErr != "" {
		help += "\n" + ui.ErrorStyle.Render(m.loadErr)
	}
	return help
}

func (m *Model) body() string {
	switch {
	case m.filter.open:
		return m.filter.view()
	case m.active != tabSessions:
		return m.pages[m.active].View()
	case len(m.report.History.Sessions) == 0:
		return "No sessions found."
	default:
		return ui.TableMutedStyle.Render(m.table.View())
	}
}

// reload reads the store through the current filters and rebuilds every tab.
func (m *Model) reload() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	m.report, m.loadErr = report, ""
	if err != nil {
		m.report, m.loadErr = stats.Report{}, err.Error()
	}
	headers, rows := stats.HistoryRows(m.report.History)
	m.table.SetRows(nil)
	m.table.SetColumns(ui.ColumnsFor(headers, rows))
	m.table.SetRows(ui.Rows(rows))
	m.table.GotoBottom()
	m.resize()
	m.renderPages()
}

func (m *Model) renderPages() {
	if m.loadErr != "" {
		for i := range m.pages {
			m.pages[i].SetContent("Failed to load history.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	m.pages[tabOverview].SetContent(overview(m.report.History, width, m.useColor))
	m.pages[tabHeatmap].SetContent(heatmap(m.report.Heatmap, m.useColor))
}

func overview(h stats.History, width int, useColor bool) string {
	if len(h.Sessions) == 0 {
		return "No sessions found."
	}
	sections := []string{summaryCards(h, width)}
	if weak := stats.WeakOperations(h.Overall, weakTop); len(weak) > 0 {
		labels := make([]string, len(weak))
		for i, op := range weak {
			labels[i] = fmt.Sprintf("%s %.0f%%", op.Symbol(), h.Overall.PerformanceByOperation[op]*100)
		}
		sections = append(sections, ui.MutedStyle.Render("Weakest operations: "+strings.Join(labels, ", ")))
	}
	sections = append(sections,
		ui.MutedStyle.Render("Accuracy: "+stats.Sparkline(stats.AccuracySeries(h))+
			"  Seconds: "+stats.Sparkline(stats.ElapsedSeries(h))),
		trend(h, width, useColor))
	return strings.TrimRight(strings.Join(sections, "\n\n"), "\n")
}

func summaryCards(h stats.History, width int) string {
	best := h.Sessions[0]
	for _, s := range h.Sessions[1:] {
		if s.Accuracy > best.Accuracy {
			best = s
		}
	}
	cards := []string{
		ui.MetricCard("Sessions", strconv.Itoa(len(h.Sessions))),
		ui.MetricCard("Questions", strconv.Itoa(h.Overall.TotalQuestions)),
		ui.MetricCard("Accuracy", stats.FormatPercent(h.Overall)),
		ui.MetricCard("Avg Time", fmt.Sprintf("%.2fs", h.Overall.AverageElapsedSeconds)),
		ui.MetricCard("Best Acc", stats.FormatPercent(best)),
	}
	if width < defaultWidth {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...),
		lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...))
}

func trend(h stats.History, width int, useColor bool) string {
	var buf bytes.Buffer
	if err := stats.RenderTrend(&buf, "Accuracy per session", stats.AccuracyTrend(h), stats.TrendWidthFor(width), plotHeight, useColor); err != nil {
		return fmt.Sprintf("Failed to render trend: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func heatmap(h stats.Heatmap, useColor bool) string {
	var buf bytes.Buffer
	if err := stats.RenderHeatmap(&buf, h, useColor); err != nil {
		return fmt.Sprintf("Failed to render heatmap: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}
