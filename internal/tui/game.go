package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/quiz"
	"github.com/verte-zerg/tuimath/internal/ui"
)

var (
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true).Padding(1, 4).
			Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#C89A3A"))
	lowTimeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
)

const lowTimeSeconds = 10

type gameModel struct {
	session *quiz.Session
	input   textinput.Model
	notice  string
	good    bool
}

func newGame(session *quiz.Session) gameModel {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "answer"
	input.CharLimit = 24
	input.Width = 16
	input.Focus()
	return gameModel{session: session, input: input}
}

// submit feeds the typed answer to the session and updates the feedback line.
func (g *gameModel) submit() (quiz.Outcome, error) {
	out, err := g.session.Submit(g.input.Value())
	if err != nil {
		if quiz.IsValidation(err) {
			g.notice = errorMessage(err)
			g.good = false
		}
		return out, err
	}
	g.input.SetValue("")
	switch out.Kind {
	case quiz.OutcomeAwaitingConfirmation:
		g.notice = "Not quite. Press Enter to skip this question."
		g.good = false
	case quiz.OutcomeSkipped:
		g.notice = fmt.Sprintf("Skipped: %s = %s", out.Event.QuestionText(), model.FormatNumber(out.Event.CorrectAnswer))
		g.good = false
	case quiz.OutcomeAnswered:
		if out.Event.IsCorrect {
			g.notice = "Correct!"
			g.good = true
		} else {
			g.notice = fmt.Sprintf("Wrong: %s = %s", out.Event.QuestionText(), model.FormatNumber(out.Event.CorrectAnswer))
			g.good = false
		}
	}
	return out, nil
}

// statusLine renders score, time and question count for the footer.
func statusLine(st model.SessionState) string {
	timeText := fmt.Sprintf("Time: %d", st.RemainingSeconds)
	if st.RemainingSeconds <= lowTimeSeconds {
		timeText = lowTimeStyle.Render(timeText)
	}
	return strings.Join([]string{
		fmt.Sprintf("Score: %d", st.Score),
		timeText,
		fmt.Sprintf("Questions: %d", st.QuestionsAsked),
	}, "  ·  ")
}

func (g *gameModel) view(width, height int) string {
	st := g.session.Snapshot()
	lines := []string{
		questionStyle.Render(st.CurrentQuestion.Text()),
		"",
		g.input.View(),
		"",
	}
	switch {
	case g.notice == "":
		lines = append(lines, "")
	case g.good:
		lines = append(lines, ui.GoodStyle.Render(g.notice))
	default:
		lines = append(lines, ui.WarningStyle.Render(g.notice))
	}
	lines = append(lines, "", statusLine(st))
	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if width <= 0 || height <= 0 {
		return content
	}
	help := ui.MutedStyle.Render("enter: submit  ctrl+c: quit")
	if height < 3 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(width, height-1, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.Place(width, 1, lipgloss.Center, lipgloss.Center, help)
}
