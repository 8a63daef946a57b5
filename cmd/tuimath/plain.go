package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/quiz"
	"github.com/verte-zerg/tuimath/internal/stats"
	"github.com/verte-zerg/tuimath/internal/store"
)

type plainOptions struct {
	In       io.Reader
	Out      io.Writer
	Config   model.GameConfig
	Store    store.Store
	Source   quiz.QuestionSource
	Logger   *log.Logger
	Clock    func() time.Time
	UseColor bool
	// Ticks replaces the one-second ticker when set.
	Ticks <-chan time.Time
}

// runPlain plays one session on line-oriented input and prints the results.
func runPlain(ctx context.Context, opts plainOptions) error {
	session, err := quiz.NewSession(opts.Config.Ranges, opts.Source, quiz.Options{
		DurationSeconds: opts.Config.DurationSeconds,
		ConfirmSkip:     opts.Config.ConfirmSkip,
		Clock:           opts.Clock,
	})
	if err != nil {
		return err
	}
	if err := session.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticks := opts.Ticks
	if ticks == nil {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		ticks = ticker.C
	}

	events := make(chan quiz.Event)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				select {
				case events <- quiz.TickEvent{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	go func() {
		scanner := bufio.NewScanner(opts.In)
		for scanner.Scan() {
			select {
			case events <- quiz.AnswerSubmitted{Text: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
	}()

	w := opts.Out
	fmt.Fprintf(w, "You have %d seconds. Press Enter after each answer.\n", opts.Config.DurationSeconds)
	promptQuestion(w, session.Snapshot())

	rec, err := quiz.Run(ctx, session, events, func(out quiz.Outcome, err error) {
		if err != nil {
			if quiz.IsValidation(err) {
				fmt.Fprintln(w, errorMessage(err))
				promptQuestion(w, session.Snapshot())
			}
			return
		}
		if line := feedback(out); line != "" {
			fmt.Fprintln(w, line)
		}
		switch out.Kind {
		case quiz.OutcomeFinalized:
			fmt.Fprintln(w, "Time's up!")
		case quiz.OutcomeTick:
		default:
			promptQuestion(w, session.Snapshot())
		}
	})
	if err != nil {
		return err
	}
	opts.Logger.Info("session finished", "id", rec.ID, "score", rec.Score, "questions", rec.QuestionsAsked)
	return reportSession(ctx, w, opts.Store, rec, opts.Logger, opts.UseColor)
}

func promptQuestion(w io.Writer, st model.SessionState) {
	fmt.Fprintf(w, "[%3ds] %s = ", st.RemainingSeconds, st.CurrentQuestion.Text())
}

// feedback renders the line printed after an answer or skip.
func feedback(out quiz.Outcome) string {
	switch out.Kind {
	case quiz.OutcomeAwaitingConfirmation:
		return "Not quite. Press Enter to skip this question."
	case quiz.OutcomeSkipped:
		return fmt.Sprintf("Skipped: %s = %s", out.Event.QuestionText(), model.FormatNumber(out.Event.CorrectAnswer))
	case quiz.OutcomeAnswered:
		if out.Event.IsCorrect {
			return "Correct!"
		}
		return fmt.Sprintf("Wrong: %s = %s", out.Event.QuestionText(), model.FormatNumber(out.Event.CorrectAnswer))
	}
	return ""
}

func errorMessage(err error) string {
	var ve *quiz.ValidationError
	if errors.As(err, &ve) {
		return ve.Message()
	}
	return err.Error()
}

// reportSession prints the summary, persists rec and prints the history
// across every stored session. A nil store only prints.
func reportSession(ctx context.Context, w io.Writer, st store.Store, rec model.SessionRecord, logger *log.Logger, useColor bool) error {
	fmt.Fprintln(w)
	if err := stats.RenderSummary(w, rec, stats.Aggregate(rec.Events)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintln(w, "\nQuestion History")
	if err := stats.RenderQuestionHistory(w, rec.Events); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	sessions := []model.SessionRecord{rec}
	if st != nil {
		id, saveErr := st.AppendSession(ctx, rec)
		if saveErr != nil {
			logger.Warn("failed to save session", "id", rec.ID, "err", saveErr)
			fmt.Fprintf(w, "\nCould not save results: %v\n", saveErr)
		} else {
			rec.ID = id
			fmt.Fprintf(w, "\nSaved as %s\n", id)
		}
		all, loadErr := st.ReadAllSessions(ctx)
		switch {
		case loadErr != nil:
			logger.Warn("failed to load history", "err", loadErr)
			sessions = []model.SessionRecord{rec}
		case saveErr != nil:
			sessions = append(all, rec)
		default:
			sessions = all
		}
	}

	fmt.Fprintln(w, "\nAll Games")
	if err := stats.RenderHistoryTable(w, stats.AggregateAcrossSessions(sessions)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintln(w, "\nHeatmap")
	if err := stats.RenderHeatmap(w, stats.BuildHeatmap(stats.AllEvents(sessions)), useColor); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
