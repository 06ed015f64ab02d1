package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCompletionCommand creates the completion command for shell completions
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for conceptgen.

To load completions:

Bash:

  $ source <(conceptgen completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ conceptgen completion bash > /etc/bash_completion.d/conceptgen
  # macOS:
  $ conceptgen completion bash > $(brew --prefix)/etc/bash_completion.d/conceptgen

Zsh:

  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:

  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ conceptgen completion zsh > "${fpath[1]}/_conceptgen"

  # You will need to start a new shell for this setup to take effect.

Fish:

  $ conceptgen completion fish | source

  # To load completions for each session, execute once:
  $ conceptgen completion fish > ~/.config/fish/completions/conceptgen.fish

PowerShell:

  PS> conceptgen completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> conceptgen completion powershell > conceptgen.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			out := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}

	return cmd
}
