// Package main provides the CLI entrypoint for tuimath.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuimath/internal/config"
	"github.com/verte-zerg/tuimath/internal/generator"
	"github.com/verte-zerg/tuimath/internal/logging"
	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/quiz"
	"github.com/verte-zerg/tuimath/internal/stats"
	"github.com/verte-zerg/tuimath/internal/statsui"
	"github.com/verte-zerg/tuimath/internal/store"
	"github.com/verte-zerg/tuimath/internal/tui"
)

const (
	defaultWeakTop    = 2
	defaultWeakWindow = 20
)

var (
	storeBackend string
	storePath    string
	logLevel     string

	playDuration    int
	playOps         string
	playConfirmSkip bool
	playPlain       bool
	playFocusWeak   bool
	playWeakTop     int
	playWeakWindow  int

	statsSince string
	statsLast  int

	historyPlot    bool
	historyHeatmap bool
	historyColor   bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuimath",
		Short:         "Timed arithmetic practice in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", store.BackendXLSX, "results backend (xlsx or sqlite)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store-path", "", "results file (default: XDG data directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.Flags().IntVar(&playDuration, "duration", config.DefaultDurationSeconds, "session length in seconds")
	rootCmd.Flags().StringVar(&playOps, "ops", "", "comma-separated operations (default: all)")
	rootCmd.Flags().BoolVar(&playConfirmSkip, "confirm-skip", false, "ask once more before recording a wrong answer")
	rootCmd.Flags().BoolVar(&playPlain, "plain", false, "play on stdin/stdout without the full-screen UI")
	rootCmd.Flags().BoolVar(&playFocusWeak, "focus-weak", false, "practice only the weakest operations")
	rootCmd.Flags().IntVar(&playWeakTop, "weak-top", defaultWeakTop, "number of weak operations to focus on")
	rootCmd.Flags().IntVar(&playWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak operations")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

// loadSettings resolves the config file, .env files and environment, then
// applies any storage and logging flags set on cmd.
func loadSettings(cmd *cobra.Command) (config.FileConfig, error) {
	if err := config.LoadEnv(config.DefaultEnvPath(), ".env"); err != nil {
		return config.FileConfig{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	settings, err := config.ResolveSettings(fileCfg)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applySetting(cmd, "store", &storeBackend, settings.StoreBackend)
	applySetting(cmd, "store-path", &storePath, settings.StorePath)
	applySetting(cmd, "log-level", &logLevel, settings.LogLevel)
	if !store.ValidBackend(storeBackend) {
		return config.FileConfig{}, fmt.Errorf("--store must be %s or %s", store.BackendXLSX, store.BackendSQLite)
	}
	settings.StoreBackend, settings.StorePath = storeBackend, storePath
	storePath = settings.ResolvedStorePath()
	return fileCfg, nil
}

func openStore(opts ...store.Option) (store.Store, error) {
	st, err := store.Open(storeBackend, storePath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open results: %w", err)
	}
	return st, nil
}

func closeStore(st store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close results: %v\n", cerr)
	}
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "duration", &playDuration, fileCfg.Game.Duration)
	applyBoolConfig(cmd, "confirm-skip", &playConfirmSkip, fileCfg.Game.ConfirmSkip)
	if cmd.Flags().Changed("ops") {
		if _, err := config.ParseOperationList(playOps); err != nil {
			return fmt.Errorf("invalid --ops: %w", err)
		}
		fileCfg.Game.Operations = strings.Split(playOps, ",")
	}
	if playWeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if playWeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}

	gameCfg, err := fileCfg.GameConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	gameCfg.DurationSeconds = playDuration
	gameCfg.ConfirmSkip = playConfirmSkip

	logger, closer, err := openLogger(playPlain)
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() {
			if cerr := closer.Close(); cerr != nil {
				// Best-effort close.
				_ = cerr
			}
		}()
	}

	st, err := openStore(store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if playFocusWeak {
		ranges, ok, err := focusWeak(ctx, st, gameCfg.Ranges, playWeakTop, playWeakWindow)
		switch {
		case err != nil:
			logErrf("failed to load weak operations: %v\n", err)
		case !ok:
			logErrln("no stats available for weak-operation focus yet; using all operations")
		default:
			gameCfg.Ranges = ranges
			logger.Info("focusing on weak operations", "operations", len(ranges))
		}
	}

	if err := quiz.ValidateConfig(gameCfg); err != nil {
		return fmt.Errorf("invalid game settings: %s", errorMessage(err))
	}

	if playPlain {
		return runPlain(ctx, plainOptions{
			In:       os.Stdin,
			Out:      cmd.OutOrStdout(),
			Config:   gameCfg,
			Store:    st,
			Source:   generator.New(),
			Logger:   logger,
			UseColor: stats.ShouldUseColor(cmd.OutOrStdout(), false),
		})
	}

	m := tui.NewModel(tui.Options{
		Config:   gameCfg,
		Store:    st,
		Source:   generator.New(),
		Logger:   logger,
		UseColor: stats.ShouldUseColor(os.Stdout, false),
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// openLogger logs to stderr in plain mode and to the state directory while
// the full-screen UI owns the terminal.
func openLogger(plain bool) (*log.Logger, io.Closer, error) {
	if plain {
		logger, err := logging.New(os.Stderr, logLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --log-level: %w", err)
		}
		return logger, nil, nil
	}
	logger, closer, err := logging.OpenFile(config.DefaultLogPath(), logLevel)
	if err != nil {
		return nil, nil, err
	}
	return logger, closer, nil
}

// focusWeak restricts ranges to the weakest operations over the last window
// sessions. ok is false when there is no history to judge from.
func focusWeak(ctx context.Context, st store.Store, ranges model.OperationConfig, top, window int) (model.OperationConfig, bool, error) {
	sessions, err := st.ReadAllSessions(ctx)
	if err != nil {
		return nil, false, err
	}
	recent := stats.FilterSessions(sessions, model.StatsConfig{Last: window})
	overall := stats.Aggregate(stats.AllEvents(recent))
	weak := stats.WeakOperations(overall, top)
	restricted := config.Restrict(ranges, weak)
	if len(restricted) == 0 {
		return nil, false, nil
	}
	return restricted, true, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// ensureConfigFile writes the default template to path unless a file exists.
func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse past sessions",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	return cmd
}

func statsConfig() (model.StatsConfig, error) {
	since, err := statsui.ParseSince(statsSince)
	if err != nil {
		return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
	}
	if statsLast < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	return model.StatsConfig{Since: since, Last: statsLast}, nil
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfig()
	if err != nil {
		return err
	}
	if _, err := loadSettings(cmd); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	m := statsui.NewModel(st, cfg, stats.ShouldUseColor(os.Stdout, false))
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print past sessions as a table",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().BoolVar(&historyPlot, "plot", false, "plot accuracy per session")
	cmd.Flags().BoolVar(&historyHeatmap, "heatmap", false, "print the accuracy heatmap")
	cmd.Flags().BoolVar(&historyColor, "color", false, "force coloured output")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfig()
	if err != nil {
		return err
	}
	if _, err := loadSettings(cmd); err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, logLevel)
	if err != nil {
		return err
	}
	st, err := openStore(store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	return writeHistory(out, report, historyPlot, historyHeatmap, stats.ShouldUseColor(out, historyColor))
}

func writeHistory(w io.Writer, report stats.Report, plot, heatmap, useColor bool) error {
	if err := stats.RenderHistoryTable(w, report.History); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if plot {
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := stats.RenderTrend(w, "Accuracy per session", stats.AccuracyTrend(report.History), 0, 0, useColor); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if heatmap {
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := stats.RenderHeatmap(w, report.Heatmap, useColor); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func applySetting(cmd *cobra.Command, name string, target *string, value string) {
	if value == "" {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
