// Package tui provides the Bubble Tea arithmetic game interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/tuimath/internal/logging"
	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/quiz"
	"github.com/verte-zerg/tuimath/internal/store"
)

type screen int

const (
	screenMenu screen = iota
	screenGame
	screenResults
)

// Options configures the game UI. Store may be nil, in which case results
// are shown but not persisted.
type Options struct {
	Config       model.GameConfig
	Store        store.Store
	Source       quiz.QuestionSource
	Logger       *log.Logger
	Clock        func() time.Time
	TickInterval time.Duration
	UseColor     bool
}

// Model implements the Bubble Tea game UI: menu, timed game and results.
type Model struct {
	opts Options

	screen  screen
	menu    menuModel
	game    gameModel
	results resultsModel

	// round identifies the current game so ticks from a previous game are dropped.
	round      int
	lastConfig model.GameConfig

	width  int
	height int
}

type tickMsg struct {
	round int
}

type persistedMsg struct {
	round    int
	id       string
	saveErr  error
	sessions []model.SessionRecord
	loadErr  error
}

// NewModel constructs the game UI starting at the menu.
func NewModel(opts Options) *Model {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Model{
		opts:       opts,
		screen:     screenMenu,
		menu:       newMenu(opts.Config),
		lastConfig: opts.Config,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.screen == screenResults {
			m.results.resize(m.width, m.height)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.updateKey(msg)
	case tickMsg:
		return m, m.handleTick(msg)
	case persistedMsg:
		m.handlePersisted(msg)
		return m, nil
	}
	if m.screen == screenGame {
		var cmd tea.Cmd
		m.game.input, cmd = m.game.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenMenu:
		cfg, start, cmd := m.menu.update(msg)
		if !start {
			return m, cmd
		}
		return m, m.startGame(cfg)
	case screenGame:
		if msg.Type != tea.KeyEnter {
			var cmd tea.Cmd
			m.game.input, cmd = m.game.input.Update(msg)
			return m, cmd
		}
		if _, err := m.game.submit(); err != nil && !quiz.IsValidation(err) {
			m.opts.Logger.Error("failed to submit answer", "err", err)
		}
		return m, nil
	case screenResults:
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "r":
			m.menu = newMenu(m.lastConfig)
			m.screen = screenMenu
			return m, textinput.Blink
		}
		return m, m.results.update(msg)
	}
	return m, nil
}

func (m *Model) startGame(cfg model.GameConfig) tea.Cmd {
	session, err := quiz.NewSession(cfg.Ranges, m.opts.Source, quiz.Options{
		DurationSeconds: cfg.DurationSeconds,
		ConfirmSkip:     cfg.ConfirmSkip,
		Clock:           m.opts.Clock,
	})
	if err == nil {
		err = session.Start()
	}
	if err != nil {
		m.menu.err = errorMessage(err)
		return nil
	}
	m.lastConfig = cfg
	m.round++
	m.game = newGame(session)
	m.screen = screenGame
	m.opts.Logger.Debug("session started", "duration", cfg.DurationSeconds, "operations", len(cfg.Ranges))
	return tea.Batch(textinput.Blink, m.tickCmd())
}

func (m *Model) tickCmd() tea.Cmd {
	round := m.round
	return tea.Tick(m.opts.TickInterval, func(time.Time) tea.Msg {
		return tickMsg{round: round}
	})
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if m.screen != screenGame || msg.round != m.round {
		return nil
	}
	out, err := m.game.session.Tick()
	if err != nil {
		if !errors.Is(err, quiz.ErrFinalized) {
			m.opts.Logger.Error("tick failed", "err", err)
		}
		return nil
	}
	if out.Kind != quiz.OutcomeFinalized {
		return m.tickCmd()
	}
	return m.finish(*out.Record)
}

func (m *Model) finish(rec model.SessionRecord) tea.Cmd {
	m.opts.Logger.Info("session finished", "id", rec.ID, "score", rec.Score, "questions", rec.QuestionsAsked)
	m.results = newResults(rec, m.opts.UseColor)
	m.results.resize(m.width, m.height)
	m.screen = screenResults
	if m.opts.Store == nil {
		m.results.setStatus("Results are not saved.", false)
		return nil
	}
	st := m.opts.Store
	round := m.round
	return func() tea.Msg {
		ctx := context.Background()
		msg := persistedMsg{round: round}
		msg.id, msg.saveErr = st.AppendSession(ctx, rec)
		msg.sessions, msg.loadErr = st.ReadAllSessions(ctx)
		return msg
	}
}

func (m *Model) handlePersisted(msg persistedMsg) {
	if m.screen != screenResults || msg.round != m.round {
		return
	}
	rec := m.results.record
	sessions := msg.sessions
	switch {
	case msg.saveErr != nil:
		m.opts.Logger.Warn("failed to save session", "id", rec.ID, "err", msg.saveErr)
		m.results.setStatus(fmt.Sprintf("Could not save results: %v", msg.saveErr), true)
	default:
		if msg.id != "" && msg.id != rec.ID {
			m.results.record.ID = msg.id
		}
		m.results.setStatus("Saved as "+m.results.record.ID, false)
	}
	if msg.loadErr != nil {
		m.opts.Logger.Warn("failed to load history", "err", msg.loadErr)
		m.results.setStatus(m.results.status+" (history unavailable)", true)
		sessions = nil
	}
	if msg.saveErr != nil || msg.loadErr != nil {
		sessions = append(sessions, m.results.record)
	}
	m.results.setSessions(sessions)
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.screen {
	case screenMenu:
		content = m.menu.view()
	case screenGame:
		return m.game.view(m.width, m.height)
	case screenResults:
		return m.results.view()
	}
	if m.width <= 0 || m.height <= 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
