package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/conceptgen/internal/cli/config"
	"github.com/conduit-lang/conceptgen/internal/emit"
	"github.com/conduit-lang/conceptgen/internal/spec"
)

const exampleSpec = `name: example
versions:
  - version: "1.0"
    namespace: io.example.v1
    traits:
      - name: Extensible
        transparent: true
        properties:
          - { name: "*", type: "{any}" }
    entities:
      - name: Document
        root: true
        traits: [Extensible]
        propertyOrder: [title]
        properties:
          - { name: title, type: string }
          - { name: tags, type: "[string]" }
          - name: body
            type: "string|Section"
            unionRules:
              - { branch: Section, rule: isObject }
      - name: Section
        properties:
          - { name: heading, type: string }
`

// NewInitCommand creates the init command
func NewInitCommand(opts *GlobalOptions) *cobra.Command {
	var (
		yes   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a conceptgen.yml in the current directory",
		Long: `Create a conceptgen.yml configuration and a specification directory with an
example specification.

Interactive mode asks for each setting; --yes accepts the defaults.`,
		Example: `  # Answer prompts
  conceptgen init

  # Accept defaults
  conceptgen init --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.ConfigPath
			if path == "" {
				path = config.FileName + ".yml"
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Defaults()
			if !yes {
				if err := askConfig(cfg); err != nil {
					return err
				}
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			if err := config.Save(path, cfg); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			created, err := writeExampleSpec(cfg.Specs.Dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			successColor := color.New(color.FgGreen, color.Bold)
			infoColor := color.New(color.FgCyan)
			if opts.NoColor {
				successColor.DisableColor()
				infoColor.DisableColor()
			}

			successColor.Fprintf(out, "✓ Created %s\n", path)
			if created != "" {
				successColor.Fprintf(out, "✓ Created %s\n", created)
			}
			infoColor.Fprintln(out, "\nNext steps:")
			fmt.Fprintf(out, "  1. Add specifications to %s/\n", cfg.Specs.Dir)
			fmt.Fprintln(out, "  2. Run 'conceptgen generate' to build the concept model")
			fmt.Fprintln(out, "  3. Run 'conceptgen inspect' to browse it")
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Accept the default settings without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")

	return cmd
}

// askConfig prompts for the settings a new project usually changes
func askConfig(cfg *config.Config) error {
	answers := struct {
		SpecsDir  string `survey:"specs_dir"`
		OutputDir string `survey:"output_dir"`
		Format    string `survey:"format"`
		Language  string `survey:"language"`
		Cache     bool   `survey:"cache"`
	}{}

	questions := []*survey.Question{
		{
			Name:     "specs_dir",
			Prompt:   &survey.Input{Message: "Specification directory:", Default: cfg.Specs.Dir},
			Validate: survey.Required,
		},
		{
			Name:     "output_dir",
			Prompt:   &survey.Input{Message: "Output directory:", Default: cfg.Output.Dir},
			Validate: survey.Required,
		},
		{
			Name: "format",
			Prompt: &survey.Select{
				Message: "Output format:",
				Options: []string{emit.FormatYAML, emit.FormatJSON},
				Default: cfg.Output.Format,
			},
		},
		{
			Name: "language",
			Prompt: &survey.Select{
				Message: "Target backend:",
				Options: emit.DefaultRegistry().Languages(),
				Default: cfg.Target.Language,
			},
		},
		{
			Name:   "cache",
			Prompt: &survey.Confirm{Message: "Skip generation when nothing changed?", Default: cfg.Cache.Enabled},
		},
	}

	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	cfg.Specs.Dir = answers.SpecsDir
	cfg.Output.Dir = answers.OutputDir
	cfg.Output.Format = answers.Format
	cfg.Target.Language = answers.Language
	cfg.Cache.Enabled = answers.Cache
	return nil
}

// writeExampleSpec creates dir and, if it holds no specifications yet, an
// example specification. It returns the path of the created file, if any.
func writeExampleSpec(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	existing, err := spec.FindSpecFiles(dir)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return "", nil
	}

	path := filepath.Join(dir, "example.yaml")
	if err := os.WriteFile(path, []byte(exampleSpec), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
