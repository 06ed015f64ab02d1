package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/conceptgen/internal/cli/config"
	"github.com/conduit-lang/conceptgen/internal/cli/ui"
	"github.com/conduit-lang/conceptgen/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand(opts *GlobalOptions) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the concept model when specifications change",
		Long: `Generate once, then watch the specification directories and regenerate
whenever a specification file is written, created, removed or renamed.

Changes arriving within the debounce window are batched into one run. A failed
run is reported and watching continues.`,
		Example: `  # Watch with settings from conceptgen.yml
  conceptgen watch

  # Batch changes over a longer window
  conceptgen watch --debounce 1s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), opts.NoColor))
				return err
			}

			logger, err := opts.newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			dirs, err := watchDirs(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			regenerate := func() {
				res, err := generate(ctx, cfg, logger, false)
				if err != nil {
					reportGenerateError(cmd, err, false, opts.NoColor)
					return
				}
				reportGenerateResult(cmd, res, opts.NoColor)
			}
			regenerate()

			sw, err := watch.NewSpecWatcher(dirs, debounce, logger, func(files []string) error {
				logger.Info("specifications changed", zap.Strings("files", files))
				regenerate()
				return nil
			})
			if err != nil {
				return err
			}
			if err := sw.Start(); err != nil {
				_ = sw.Stop()
				return fmt.Errorf("failed to start watcher: %w", err)
			}

			out := cmd.OutOrStdout()
			banner := color.New(color.FgCyan, color.Bold)
			if opts.NoColor {
				banner.DisableColor()
			}
			fmt.Fprintln(out)
			banner.Fprintln(out, "👀 Watching specifications")
			for _, dir := range dirs {
				fmt.Fprintf(out, "   %s\n", dir)
			}
			fmt.Fprintln(out, "   Press Ctrl+C to stop")
			fmt.Fprintln(out)

			return waitAndStop(ctx, sw, out)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before regenerating")

	return cmd
}

// waitAndStop blocks until ctx is done, then stops the watcher
func waitAndStop(ctx context.Context, sw *watch.SpecWatcher, out io.Writer) error {
	<-ctx.Done()
	fmt.Fprintln(out, "\nShutting down...")
	if err := sw.Stop(); err != nil {
		return fmt.Errorf("error stopping watcher: %w", err)
	}
	return nil
}

// watchDirs returns the directories holding the configured specifications
func watchDirs(cfg *config.Config) ([]string, error) {
	if len(cfg.Specs.Files) == 0 {
		info, err := os.Stat(cfg.Specs.Dir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("specification directory %s not found", cfg.Specs.Dir)
		}
		return []string{cfg.Specs.Dir}, nil
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, f := range cfg.Specs.Files {
		dir := filepath.Dir(f)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
