package tui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/stats"
	"github.com/verte-zerg/tuimath/internal/ui"
)

const (
	tabCurrent = iota
	tabAllGames
	tabHeatmap
)

var resultTabs = []string{"Current Game", "All Games", "Heatmap"}

type resultsModel struct {
	record   model.SessionRecord
	current  model.Statistics
	history  stats.History
	heatmap  stats.Heatmap
	useColor bool

	status    string
	statusErr bool

	active    int
	viewports []viewport.Model
	games     table.Model

	width  int
	height int
}

func newResults(rec model.SessionRecord, useColor bool) resultsModel {
	r := resultsModel{
		record:    rec,
		current:   stats.Aggregate(rec.Events),
		useColor:  useColor,
		viewports: []viewport.Model{viewport.New(0, 0), viewport.New(0, 0), viewport.New(0, 0)},
		games:     table.New(table.WithFocused(true)),
		status:    "Saving results...",
	}
	r.games.SetStyles(ui.TableStyles())
	r.setSessions([]model.SessionRecord{rec})
	return r
}

// setSessions replaces the all-games data and re-renders every tab.
func (r *resultsModel) setSessions(sessions []model.SessionRecord) {
	r.history = stats.AggregateAcrossSessions(sessions)
	r.heatmap = stats.BuildHeatmap(stats.AllEvents(sessions))
	headers, rows := stats.HistoryRows(r.history)
	r.games.SetRows(nil)
	r.games.SetColumns(ui.ColumnsFor(headers, rows))
	r.games.SetRows(ui.Rows(rows))
	r.games.GotoBottom()
	r.render()
}

func (r *resultsModel) setStatus(text string, isErr bool) {
	r.status = text
	r.statusErr = isErr
}

func (r *resultsModel) resize(width, height int) {
	r.width = width
	r.height = height
	body := r.bodyHeight()
	for i := range r.viewports {
		r.viewports[i].Width = width
		r.viewports[i].Height = body
	}
	r.games.SetWidth(width)
	r.games.SetHeight(max(1, body-2))
	r.render()
}

func (r *resultsModel) bodyHeight() int {
	return max(1, r.height-ui.TabsHeight()-2)
}

func (r *resultsModel) render() {
	r.viewports[tabCurrent].SetContent(r.renderCurrent())
	r.viewports[tabHeatmap].SetContent(r.renderHeatmap())
}

func (r *resultsModel) renderCurrent() string {
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, r.record, r.current); err != nil {
		return fmt.Sprintf("Failed to render summary: %v", err)
	}
	buf.WriteString("\nQuestion History\n")
	if err := stats.RenderQuestionHistory(&buf, r.record.Events); err != nil {
		return fmt.Sprintf("Failed to render question history: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (r *resultsModel) renderHeatmap() string {
	var buf bytes.Buffer
	if err := stats.RenderHeatmap(&buf, r.heatmap, r.useColor); err != nil {
		return fmt.Sprintf("Failed to render heatmap: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (r *resultsModel) renderAllGames() string {
	if len(r.history.Sessions) == 0 {
		return "No sessions found."
	}
	overall := fmt.Sprintf("Overall: %d questions, %s accuracy, %s",
		r.history.Overall.TotalQuestions, stats.FormatPercent(r.history.Overall), stats.FormatSeconds(r.history.Overall))
	return ui.TableMutedStyle.Render(r.games.View()) + "\n" + ui.MutedStyle.Render(overall)
}

func (r *resultsModel) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "h", "shift+tab":
		r.active = ui.NextTab(r.active, -1, len(resultTabs))
		return nil
	case "right", "l", "tab":
		r.active = ui.NextTab(r.active, 1, len(resultTabs))
		return nil
	}
	var cmd tea.Cmd
	if r.active == tabAllGames {
		r.games, cmd = r.games.Update(msg)
		return cmd
	}
	r.viewports[r.active], cmd = r.viewports[r.active].Update(msg)
	return cmd
}

func (r *resultsModel) view() string {
	status := ui.MutedStyle.Render(r.status)
	if r.statusErr {
		status = ui.ErrorStyle.Render(r.status)
	}
	header := ui.Tabs(resultTabs, r.active) + "\n" + status
	var body string
	if r.active == tabAllGames {
		body = r.renderAllGames()
	} else {
		body = r.viewports[r.active].View()
	}
	help := ui.MutedStyle.Render("left/right: tabs  up/down: scroll  r: play again  q: quit")
	if r.width <= 0 || r.height <= 0 {
		return header + "\n" + body + "\n" + help
	}
	return strings.Join([]string{
		ui.FitLines(header, r.width, ui.TabsHeight()+1),
		ui.FitLines(body, r.width, r.bodyHeight()),
		ui.FitLines(help, r.width, 1),
	}, "\n")
}
