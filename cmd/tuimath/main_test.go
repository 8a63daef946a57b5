package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuimath/internal/config"
	"github.com/verte-zerg/tuimath/internal/logging"
	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/quiz"
	"github.com/verte-zerg/tuimath/internal/stats"
	"github.com/verte-zerg/tuimath/internal/store"
)

type fixedSource struct {
	q model.Question
}

func (s fixedSource) Generate(model.OperationConfig) model.Question {
	return s.q
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func divideGame(duration int) model.GameConfig {
	return model.GameConfig{
		DurationSeconds: duration,
		Ranges: model.OperationConfig{
			model.Divide: {Term1: model.OperandRange{Min: 1, Max: 10}, Term2: model.OperandRange{Min: 1, Max: 10}},
		},
	}
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 10, 16, 9, 30, 0, 0, time.Local)
	return func() time.Time { return t }
}

func TestRunPlainPlaysAndSaves(t *testing.T) {
	st, err := store.OpenWorkbook(filepath.Join(t.TempDir(), "results.xlsx"))
	require.NoError(t, err)

	ticks := make(chan time.Time)
	out := &lockedBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- runPlain(context.Background(), plainOptions{
			In:     strings.NewReader("3\nabc\n"),
			Out:    out,
			Config: divideGame(1),
			Store:  st,
			Source: fixedSource{q: model.Question{Operation: model.Divide, Operand1: 12, Operand2: 4, CorrectAnswer: 3}},
			Logger: logging.Discard(),
			Clock:  fixedClock(),
			Ticks:  ticks,
		})
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "please enter a valid number")
	}, 2*time.Second, 5*time.Millisecond)
	ticks <- time.Now()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}

	text := out.String()
	assert.Contains(t, text, "[  1s] 12 ÷ 4 = ")
	assert.Contains(t, text, "Correct!")
	assert.Contains(t, text, "Time's up!")
	assert.Contains(t, text, "Score: 1/1")
	assert.Contains(t, text, "Saved as Game_20261016_093000")
	assert.Contains(t, text, "Overall: 1 questions, 100.00% accuracy")

	sessions, err := st.ReadAllSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].Score)
}

func TestRunPlainRejectsInvalidConfig(t *testing.T) {
	err := runPlain(context.Background(), plainOptions{
		In:     strings.NewReader(""),
		Out:    &lockedBuffer{},
		Config: divideGame(0),
		Source: fixedSource{},
		Logger: logging.Discard(),
	})
	assert.True(t, quiz.IsValidation(err))
}

func TestReportSessionWithoutStore(t *testing.T) {
	var buf bytes.Buffer
	rec := model.SessionRecord{ID: "Game_20261016_093000", Score: 0, QuestionsAsked: 0}
	require.NoError(t, reportSession(context.Background(), &buf, nil, rec, logging.Discard(), false))
	text := buf.String()
	assert.Contains(t, text, "Accuracy: N/A")
	assert.Contains(t, text, "No questions answered.")
	assert.Contains(t, text, "No sessions found.")
	assert.NotContains(t, text, "Saved as")
}

func TestFeedbackLines(t *testing.T) {
	answer := 7.0
	ev := &model.AnswerEvent{Operation: model.Add, Operand1: 2, Operand2: 3, CorrectAnswer: 5, UserAnswer: &answer}
	assert.Equal(t, "Wrong: 2 + 3 = 5", feedback(quiz.Outcome{Kind: quiz.OutcomeAnswered, Event: ev}))
	assert.Equal(t, "Skipped: 2 + 3 = 5", feedback(quiz.Outcome{Kind: quiz.OutcomeSkipped, Event: ev}))
	assert.Equal(t, "Not quite. Press Enter to skip this question.", feedback(quiz.Outcome{Kind: quiz.OutcomeAwaitingConfirmation}))
	assert.Empty(t, feedback(quiz.Outcome{Kind: quiz.OutcomeTick}))
}

func TestFocusWeakRestrictsToWeakest(t *testing.T) {
	st, err := store.OpenWorkbook(filepath.Join(t.TempDir(), "results.xlsx"))
	require.NoError(t, err)
	ctx := context.Background()

	ranges, ok, err := focusWeak(ctx, st, model.DefaultOperationConfig(), 1, 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, ranges)

	started := time.Date(2026, 10, 15, 8, 0, 0, 0, time.Local)
	_, err = st.AppendSession(ctx, model.SessionRecord{
		ID:        model.SessionIDFor(started),
		StartedAt: started,
		Events: []model.AnswerEvent{
			{Operation: model.Add, Operand1: 1, Operand2: 2, CorrectAnswer: 3, IsCorrect: true},
			{Operation: model.Multiply, Operand1: 3, Operand2: 4, CorrectAnswer: 12},
		},
	})
	require.NoError(t, err)

	ranges, ok, err = focusWeak(ctx, st, model.DefaultOperationConfig(), 1, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []model.Operation{model.Multiply}, ranges.Operations())
}

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--duration", "45"}))

	fileDuration := 90
	confirm := true
	applyIntConfig(cmd, "duration", &playDuration, &fileDuration)
	applyBoolConfig(cmd, "confirm-skip", &playConfirmSkip, &confirm)
	assert.Equal(t, 45, playDuration)
	assert.True(t, playConfirmSkip)

	applySetting(cmd, "store", &storeBackend, "")
	assert.Equal(t, store.BackendXLSX, storeBackend)
	applySetting(cmd, "store", &storeBackend, store.BackendSQLite)
	assert.Equal(t, store.BackendSQLite, storeBackend)
}

func TestStatsConfigParsesFlags(t *testing.T) {
	statsSince, statsLast = "2026-10-01", 3
	t.Cleanup(func() { statsSince, statsLast = "", 0 })
	cfg, err := statsConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg.Since)
	assert.Equal(t, 3, cfg.Last)

	statsSince = "October"
	_, err = statsConfig()
	assert.ErrorContains(t, err, "invalid --since value")

	statsSince, statsLast = "", -1
	_, err = statsConfig()
	assert.ErrorContains(t, err, "--last must be >= 0")
}

func TestWriteHistoryWithPlotAndHeatmap(t *testing.T) {
	started := time.Date(2026, 10, 15, 8, 0, 0, 0, time.Local)
	report := stats.NewReport([]model.SessionRecord{{
		ID:        model.SessionIDFor(started),
		StartedAt: started,
		Events: []model.AnswerEvent{
			{Operation: model.Divide, Operand1: 12, Operand2: 4, CorrectAnswer: 3, IsCorrect: true, ElapsedSeconds: 2},
		},
	}})
	var buf bytes.Buffer
	require.NoError(t, writeHistory(&buf, report, true, true, false))
	text := buf.String()
	assert.Contains(t, text, "Game_20261015_080000")
	assert.Contains(t, text, "Accuracy per session")
	assert.Contains(t, text, "Legend: accuracy (last 100.0%)")
	assert.Contains(t, text, "÷")
}

func TestEnsureConfigFileWritesTemplateOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuimath", "config.toml")
	require.NoError(t, ensureConfigFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTemplate(), string(data))

	require.NoError(t, os.WriteFile(path, []byte("[game]\nduration = 30\n"), 0o644))
	require.NoError(t, ensureConfigFile(path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[game]\nduration = 30\n", string(data))
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"config", "stats", "history"} {
		assert.True(t, names[want], "missing %s", want)
	}
}
