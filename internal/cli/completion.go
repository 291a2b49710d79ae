package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

// shellCompletion describes how one shell loads and installs completions.
type shellCompletion struct {
	// hints are printed before the script when writing to stdout.
	hints []string
	// target returns the install path below home; nil means no --install.
	target func(home string) string
	gen    func(w io.Writer) error
	after  func(target string)
}

var shellCompletions = map[string]shellCompletion{
	"bash": {
		hints: []string{
			`#   eval "$(flowpulse completion bash)"`,
			"#",
			"# To install permanently:",
			"#   flowpulse completion bash --install",
		},
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "bash-completion", "completions", "flowpulse")
		},
		gen: func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		after: func(target string) {
			fmt.Printf("Restart your shell or run: source %s\n", target)
		},
	},
	"zsh": {
		hints: []string{
			`#   eval "$(flowpulse completion zsh)"`,
			"#",
			"# To install permanently:",
			"#   flowpulse completion zsh --install",
		},
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "zsh", "site-functions", "_flowpulse")
		},
		gen: func(w io.Writer) error { return rootCmd.GenZshCompletion(w) },
		after: func(target string) {
			fmt.Println("Ensure this directory is in your fpath. Add to ~/.zshrc if needed:")
			fmt.Printf("  fpath=(%s $fpath)\n", filepath.Dir(target))
			fmt.Println("  autoload -Uz compinit && compinit")
		},
	},
	"fish": {
		hints: []string{
			"#   flowpulse completion fish | source",
			"#",
			"# To install permanently:",
			"#   flowpulse completion fish --install",
		},
		target: func(home string) string {
			return filepath.Join(home, ".config", "fish", "completions", "flowpulse.fish")
		},
		gen: func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		after: func(string) {
			fmt.Println("Completions will be available in new fish sessions automatically.")
		},
	},
	"powershell": {
		hints: []string{
			"#   flowpulse completion powershell | Out-String | Invoke-Expression",
			"#",
			"# Add the above command to your PowerShell profile to make it permanent.",
		},
		gen: func(w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for flowpulse",
	Long: `Set up shell tab-completions for flowpulse commands, flags, and arguments.

Supported shells: bash, zsh, fish, powershell

  flowpulse completion zsh --install   # add to your shell profile
  flowpulse completion bash            # print the script for manual setup`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into your shell profile")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell, ok := shellCompletions[args[0]]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", args[0])
	}

	if completionInstall {
		return installCompletion(args[0], shell)
	}

	// Hints go to stderr so that eval "$(flowpulse completion bash)" works.
	w := cmd.ErrOrStderr()
	_, _ = fmt.Fprintln(w, "# To load completions in your current session:")
	for _, line := range shell.hints {
		_, _ = fmt.Fprintln(w, line)
	}
	return shell.gen(cmd.OutOrStdout())
}

func installCompletion(name string, shell shellCompletion) error {
	if shell.target == nil {
		return fmt.Errorf("automatic install is not supported for %s; run 'flowpulse completion %s' and add the output to your profile", name, name)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}
	target := shell.target(home)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}
	writeErr := shell.gen(f)
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}

	fmt.Printf("%s completions installed to %s\n", name, target)
	if shell.after != nil {
		shell.after(target)
	}
	return nil
}
