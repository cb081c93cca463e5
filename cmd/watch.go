package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mimic/internal/config"
	"github.com/conneroisu/mimic/internal/logging"
	"github.com/conneroisu/mimic/internal/propagate"
	"github.com/conneroisu/mimic/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Re-run propagation whenever a template changes",
	Long: `Run propagation once, then watch the input folder and run it again
each time a template is created, changed or removed. Bursts of changes
are grouped into a single run.

Examples:
  mimic watch --input templates --in-place
  mimic watch --input templates --output dist --debounce 1s`,
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before a batch of changes triggers a run")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := propagate.NewRunner(cfg, logger)
	runOnce(ctx, cfg, logger, runner)

	fileWatcher, err := watcher.NewFileWatcher(watchDebounce, logger)
	if err != nil {
		return err
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.ExtensionFilter(cfg.TemplateExt))
	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		for _, event := range events {
			logger.Info(ctx, "Template changed", "path", event.Path, "change", event.Type.String())
		}
		runOnce(ctx, cfg, logger, runner)
		return nil
	})

	if err := fileWatcher.AddRecursive(cfg.InputPath()); err != nil {
		return err
	}
	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	logger.Info(ctx, "Watching for template changes", "input", cfg.InputPath(), "debounce", watchDebounce.String())
	<-ctx.Done()
	logger.Info(context.Background(), "Stopping file watcher")

	return nil
}

// runOnce runs propagation and publishes the result. Failures are logged;
// the watch loop keeps going.
func runOnce(ctx context.Context, cfg *config.Config, logger logging.Logger, runner *propagate.Runner) {
	report, err := runner.Run(ctx)
	if err != nil {
		logger.Error(ctx, err, "Propagation failed")
		return
	}
	if err := publish(ctx, cfg, logger, report); err != nil {
		logger.Error(ctx, err, "Publishing changes failed")
	}
}
