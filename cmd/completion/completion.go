// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for prpulse.

Install instructions:
  Bash:       prpulse completion bash > /etc/bash_completion.d/prpulse
              echo 'source <(prpulse completion bash)' >> ~/.bashrc
  Zsh:        prpulse completion zsh > ~/.zsh/completions/_prpulse
  Fish:       prpulse completion fish > ~/.config/fish/completions/prpulse.fish
  PowerShell: prpulse completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				fmt.Fprintln(out, "# prpulse bash completion")
				fmt.Fprintln(out, "# Install: prpulse completion bash > /etc/bash_completion.d/prpulse")
				fmt.Fprintln(out)
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				fmt.Fprintln(out, "# prpulse zsh completion")
				fmt.Fprintln(out, "# Install: prpulse completion zsh > ~/.zsh/completions/_prpulse")
				fmt.Fprintln(out)
				return rootCmd.GenZshCompletion(out)
			case "fish":
				fmt.Fprintln(out, "# prpulse fish completion")
				fmt.Fprintln(out, "# Install: prpulse completion fish > ~/.config/fish/completions/prpulse.fish")
				fmt.Fprintln(out)
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				fmt.Fprintln(out, "# prpulse PowerShell completion")
				fmt.Fprintln(out, "# Install: prpulse completion powershell >> $PROFILE")
				fmt.Fprintln(out)
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", args[0])
			}
		},
	}
	return cmd
}
