package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/conceptgen/internal/cache"
	"github.com/conduit-lang/conceptgen/internal/cli/config"
	"github.com/conduit-lang/conceptgen/internal/cli/ui"
	cerrors "github.com/conduit-lang/conceptgen/internal/compiler/errors"
	"github.com/conduit-lang/conceptgen/internal/compiler/pipeline"
	"github.com/conduit-lang/conceptgen/internal/emit"
	"github.com/conduit-lang/conceptgen/internal/spec"
)

// errGenerateFailed is returned after the failure has already been reported
var errGenerateFailed = errors.New("generation failed")

// generateResult summarizes one generation run
type generateResult struct {
	Files    int
	Skipped  bool
	RunID    string
	Entities int
	Types    int
	Output   string
	Duration time.Duration
	Warnings []string
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand(opts *GlobalOptions) *cobra.Command {
	var (
		force      bool
		jsonErrors bool
	)

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"g"},
		Short:   "Build the concept model and emit it",
		Long: `Load every specification file, build the concept model and hand it to the
configured target backend.

The generation process:
  1. Load specifications - parse YAML files concurrently
  2. Index - validate declarations
  3. Build namespaces, entities and traits
  4. Compose traits and normalize inheritance
  5. Resolve property types and union rules
  6. Build the visitor tree and verify the model
  7. Emit - write the model with the target backend

Generation is skipped when neither the specifications nor the target settings
changed since the last successful run.`,
		Example: `  # Generate with settings from conceptgen.yml
  conceptgen generate

  # Regenerate even if nothing changed
  conceptgen generate --force

  # Output errors in JSON format (useful for tooling)
  conceptgen generate --json`,
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

			res, err := generate(commandContext(cmd), cfg, logger, force)
			if err != nil {
				reportGenerateError(cmd, err, jsonErrors, opts.NoColor)
				return errGenerateFailed
			}
			reportGenerateResult(cmd, res, opts.NoColor)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Regenerate even if the inputs are unchanged")
	cmd.Flags().BoolVar(&jsonErrors, "json", false, "Output errors in JSON format")

	return cmd
}

// generate runs one full generation: load, build, emit, record the fingerprint.
func generate(ctx context.Context, cfg *config.Config, logger *zap.Logger, force bool) (*generateResult, error) {
	start := time.Now()

	backends := emit.DefaultRegistry()
	if !backends.Exists(cfg.Target.Language) {
		return nil, fmt.Errorf("unknown target language %q (available: %s)",
			cfg.Target.Language, strings.Join(backends.Languages(), ", "))
	}

	files, err := cfg.SpecFiles()
	if err != nil {
		return nil, err
	}
	res := &generateResult{Files: len(files), Output: cfg.Output.Dir}

	var store *cache.Store
	var fingerprint string
	if cfg.Cache.Enabled {
		fingerprint, err = cache.Fingerprint(files, cfg.Salt())
		if err != nil {
			return nil, err
		}
		store = cache.NewStore(cfg.Cache.File)
		if force {
			// A forced run that fails leaves no fingerprint behind.
			if err := store.Clear(); err != nil {
				return nil, fmt.Errorf("failed to clear fingerprint: %w", err)
			}
		} else if outputExists(cfg.Output.Dir) {
			same, err := store.Matches(fingerprint)
			if err != nil {
				logger.Warn("discarding unreadable fingerprint", zap.String("file", store.Path()), zap.Error(err))
				res.Warnings = append(res.Warnings, fmt.Sprintf("Discarding unreadable fingerprint %s", store.Path()))
				if err := store.Clear(); err != nil {
					return nil, fmt.Errorf("failed to clear fingerprint: %w", err)
				}
			} else if same {
				logger.Info("specifications unchanged, skipping generation", zap.String("fingerprint", fingerprint))
				res.Skipped = true
				res.Duration = time.Since(start)
				return res, nil
			}
		}
	}

	logger.Debug("loading specifications", zap.Int("files", len(files)), zap.Int("concurrency", cfg.Loader.Concurrency))
	reg, err := spec.LoadFiles(ctx, files, cfg.Loader.Concurrency)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(reg, pipeline.WithLogger(logger))
	if err := p.Run(ctx); err != nil {
		return nil, err
	}
	m, err := p.Model()
	if err != nil {
		return nil, err
	}

	backend, err := backends.New(cfg.Target.Language, emit.Options{Format: cfg.Output.Format, RunID: p.RunID()})
	if err != nil {
		return nil, err
	}
	if err := backend.Emit(m, emit.DirOutput{Dir: cfg.Output.Dir}); err != nil {
		return nil, fmt.Errorf("failed to write model: %w", err)
	}

	if store != nil {
		if err := store.Save(fingerprint); err != nil {
			return nil, fmt.Errorf("failed to save fingerprint: %w", err)
		}
	}

	_, res.Entities, _, _ = m.Index().Counts()
	res.Types = len(m.Types())
	res.RunID = p.RunID()
	res.Duration = time.Since(start)
	return res, nil
}

func outputExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

func reportGenerateResult(cmd *cobra.Command, res *generateResult, noColor bool) {
	for _, warning := range res.Warnings {
		fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(warning, noColor))
	}

	out := cmd.OutOrStdout()
	if res.Skipped {
		fmt.Fprint(out, ui.Info("Specifications unchanged; use --force to regenerate", noColor))
		return
	}
	ui.WriteSuccess(out, fmt.Sprintf("Generated %d entities and %d types from %d file(s) into %s (%s)",
		res.Entities, res.Types, res.Files, res.Output, res.Duration.Round(time.Millisecond)), noColor)
}

func reportGenerateError(cmd *cobra.Command, err error, jsonErrors, noColor bool) {
	if jsonErrors {
		payload, jErr := cerrors.ToJSON(err)
		if jErr == nil {
			fmt.Fprintln(cmd.OutOrStdout(), payload)
			return
		}
	}
	fmt.Fprint(cmd.ErrOrStderr(), ui.GenerateError(err, noColor))
}

// commandContext returns the command's context, or Background when the command
// runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
