package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/conceptgen/internal/cli/ui"
	"github.com/conduit-lang/conceptgen/internal/compiler/model"
	"github.com/conduit-lang/conceptgen/internal/compiler/pipeline"
	"github.com/conduit-lang/conceptgen/internal/emit"
	"github.com/conduit-lang/conceptgen/internal/spec"
)

// NewInspectCommand creates the inspect command
func NewInspectCommand(opts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [prefix]",
		Short: "Show entities of the concept model",
		Long: `Build the concept model in memory and show its entities.

With no argument every entity is listed. A prefix of a full entity name lists
the matching entities; an exact name, or a prefix matching a single entity,
shows that entity with its merged properties in canonical order: the explicit
property order first, then the rest alphabetically, with "*" last.`,
		Example: `  # List all entities
  conceptgen inspect

  # List the entities of one namespace
  conceptgen inspect io.example.openapi.v30

  # Show one entity
  conceptgen inspect io.example.openapi.v30.Document`,
		Args: cobra.MaximumNArgs(1),
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

			files, err := cfg.SpecFiles()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			reg, err := spec.LoadFiles(ctx, files, cfg.Loader.Concurrency)
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.GenerateError(err, opts.NoColor))
				return errGenerateFailed
			}
			m, err := pipeline.Build(ctx, reg, pipeline.WithLogger(logger))
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.GenerateError(err, opts.NoColor))
				return errGenerateFailed
			}

			prefix := ""
			if len(args) > 0 {
				prefix = args[0]
			}
			return inspectModel(cmd.OutOrStdout(), cmd.ErrOrStderr(), m, prefix, opts.NoColor)
		},
	}

	return cmd
}

// inspectModel lists the entities matching prefix, or describes the single match
func inspectModel(out, errOut io.Writer, m *model.Model, prefix string, noColor bool) error {
	if e, ok := m.Index().LookupEntity(prefix); ok {
		describeEntity(out, m, e, noColor)
		return nil
	}

	entities := m.Index().FindEntities(prefix)
	switch len(entities) {
	case 0:
		var names []string
		for _, e := range m.Index().FindEntities("") {
			names = append(names, e.FullName)
		}
		fmt.Fprint(errOut, ui.EntityNotFoundError(prefix, ui.FindSimilar(prefix, names, nil), noColor))
		return fmt.Errorf("no entity matches %q", prefix)
	case 1:
		describeEntity(out, m, entities[0], noColor)
		return nil
	}

	ui.Header(out, fmt.Sprintf("Entities (%d)", len(entities)), noColor)
	table := ui.NewTable(out, []string{"Entity", "Parent", "Version", "Properties"}, &ui.TableOptions{NoColor: noColor})
	for _, e := range entities {
		table.AddRow(e.FullName, parentName(m, e), versionName(e), strconv.Itoa(len(m.AllEntityProperties(e))))
	}
	table.Render()
	return nil
}

func describeEntity(out io.Writer, m *model.Model, e *model.Entity, noColor bool) {
	kv := ui.NewKeyValueTable(out, noColor)
	kv.AddRow("Entity", e.FullName)
	kv.AddRow("Namespace", m.Namespace(e.Namespace).FullName)
	if parent := parentName(m, e); parent != "" {
		kv.AddRow("Parent", parent)
	}
	if version := versionName(e); version != "" {
		kv.AddRow("Version", version)
	}
	var flags []string
	if e.Root {
		flags = append(flags, "root")
	}
	if e.Leaf {
		flags = append(flags, "leaf")
	}
	if e.Synthetic {
		flags = append(flags, "synthetic")
	}
	if len(flags) > 0 {
		kv.AddRow("Flags", strings.Join(flags, ", "))
	}
	var traits []string
	for _, id := range e.Traits {
		traits = append(traits, m.Trait(id).FullName)
	}
	if len(traits) > 0 {
		kv.AddRow("Traits", strings.Join(traits, ", "))
	}
	kv.Render()
	fmt.Fprintln(out)

	table := ui.NewTable(out, []string{"Property", "Type", "Type Name", "Origin"}, &ui.TableOptions{NoColor: noColor})
	for _, v := range m.AllEntityProperties(e) {
		table.AddRow(v.Property.Name, v.Property.Canonical(), emit.TypeName(m.Type(v.Property.Type)), v.Origin.FullName())
	}
	table.Render()
}

func parentName(m *model.Model, e *model.Entity) string {
	if parent := m.Entity(e.Parent); parent != nil {
		return parent.FullName
	}
	return ""
}

func versionName(e *model.Entity) string {
	if e.Version == nil {
		return ""
	}
	return e.Version.String()
}
