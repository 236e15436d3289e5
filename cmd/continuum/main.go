// Command continuum runs the persistent conversational memory engine:
// it tails session logs, evolves relationship and memory state, and
// maintains a live briefing for a host application to read. Subcommands
// cover startup, inspecting and restoring checkpoints, and forcing a
// briefing re-render.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"continuum/internal/backfill"
	"continuum/internal/config"
	"continuum/internal/errkind"
	"continuum/internal/orchestrator"
)

var (
	configPath string
	stateDir   string
	watchDir   string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "continuum",
	Short: "Continuum persistent conversational memory engine",
	Long: `Continuum tails append-only session logs, evolves an affective
relationship model and a multi-scale memory hierarchy, and keeps a live
briefing on disk for a host LLM application to read at the start of every
conversation.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the engine: backfill once, then tail the watch directory",
	RunE:  runRun,
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replay a checkpoint into a fresh engine and re-render its briefing",
	RunE:  runRestore,
}

var listCheckpointsCmd = &cobra.Command{
	Use:   "list-checkpoints",
	Short: "List retained checkpoints for the configured checkpoint targets",
	RunE:  runListCheckpoints,
}

var exportBriefingCmd = &cobra.Command{
	Use:   "export-briefing",
	Short: "Force a fresh briefing render and write it to --out",
	RunE:  runExportBriefing,
}

var checkpointID string
var briefingOut string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config overlay")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "override the configured state directory")
	rootCmd.PersistentFlags().StringVar(&watchDir, "watch-dir", "", "override the configured watch directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	restoreCmd.Flags().StringVar(&checkpointID, "checkpoint-id", "", "restore this checkpoint instead of the latest")
	exportBriefingCmd.Flags().StringVar(&briefingOut, "out", "", "write the rendered briefing to this path (required)")
	exportBriefingCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(runCmd, restoreCmd, listCheckpointsCmd, exportBriefingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	var kerr *errkind.Error
	if errors.As(err, &kerr) {
		return kerr.Kind().ExitCode()
	}
	return 1
}

func loadConfig() (config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, errkind.New(errkind.ConfigError, "main.loadConfig", err)
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if watchDir != "" {
		cfg.WatchDir = watchDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func buildLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	var parsed zapcore.Level
	if err := parsed.UnmarshalText([]byte(level)); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	return zapCfg.Build()
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return errkind.New(errkind.ConfigError, "main.runRun", fmt.Errorf("build logger: %w", err))
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := backfill.Run(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if result.Skipped {
		logger.Info("main: history backfill already complete, skipping")
	} else {
		logger.Info("main: history backfill complete",
			zap.Int("files_processed", result.FilesProcessed),
			zap.Int("messages_total", result.MessagesTotal))
	}

	o, err := orchestrator.New(cfg, logger)
	if err != nil {
		return err
	}
	if err := o.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("main: shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	o.Shutdown(shutdownCtx)
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return errkind.New(errkind.ConfigError, "main.runRestore", fmt.Errorf("build logger: %w", err))
	}
	defer logger.Sync()

	engine, err := orchestrator.NewEngine(cfg, logger)
	if err != nil {
		return err
	}

	if checkpointID != "" {
		if err := engine.RestoreByID(checkpointID); err != nil {
			return err
		}
	} else if err := engine.Restore(); err != nil {
		return err
	}

	if err := engine.ProjectNow(time.Now()); err != nil {
		return err
	}
	fmt.Println("restore complete, briefing re-rendered")
	return nil
}

func runListCheckpoints(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return errkind.New(errkind.ConfigError, "main.runListCheckpoints", fmt.Errorf("build logger: %w", err))
	}
	defer logger.Sync()

	engine, err := orchestrator.NewEngine(cfg, logger)
	if err != nil {
		return err
	}

	idx, err := engine.ListCheckpoints()
	if err != nil {
		return err
	}
	for _, e := range idx.Entries {
		fmt.Printf("%s\t%s\t%s\t%d bytes\n", e.ID, e.Trigger, e.CreatedAt.Format(time.RFC3339), e.SizeBytes)
	}
	return nil
}

func runExportBriefing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return errkind.New(errkind.ConfigError, "main.runExportBriefing", fmt.Errorf("build logger: %w", err))
	}
	defer logger.Sync()

	engine, err := orchestrator.NewEngine(cfg, logger)
	if err != nil {
		return err
	}
	if err := engine.ProjectNow(time.Now()); err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(engine.StateDir(), "briefing.md"))
	if err != nil {
		return errkind.New(errkind.StateIO, "main.runExportBriefing", fmt.Errorf("read rendered briefing: %w", err))
	}
	if err := os.WriteFile(briefingOut, data, 0o644); err != nil {
		return errkind.New(errkind.StateIO, "main.runExportBriefing", fmt.Errorf("write %s: %w", briefingOut, err))
	}
	fmt.Printf("briefing written to %s\n", briefingOut)
	return nil
}
