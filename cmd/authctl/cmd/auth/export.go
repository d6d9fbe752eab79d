package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/igor-raits/serverless-api-react-auth-demo/internal/config"
)

var shellFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the session's temporary AWS credentials",
	Long: `Export the signed-in user's temporary AWS credentials as environment
variables, for tools that sign requests themselves (awscurl, the AWS CLI).

Supported shells:
  - posix (bash, zsh, sh) - default
  - fish
  - powershell

Usage:
  # POSIX shells (bash/zsh/sh)
  eval $(authctl auth export)

  # Fish shell
  eval (authctl auth export --shell fish)

  # PowerShell
  authctl auth export --shell powershell | Invoke-Expression

The credentials come from the identity pool exchange for the stored
session; run 'authctl auth login' first.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&shellFormat, "shell", "", "Shell format: posix, fish, powershell (auto-detected if not specified)")
}

func runExport(cmd *cobra.Command, args []string) error {
	creds, err := provider.SessionCredentials().Get(cmd.Context())
	if err != nil {
		return fmt.Errorf("resolve temporary credentials: %w", err)
	}

	// Auto-detect shell if not specified
	if shellFormat == "" {
		shellFormat = detectShell()
	}
	shellFormat = strings.ToLower(shellFormat)

	// Only print instructions if stdout is a TTY (interactive mode, not being piped/eval'd)
	if isTerminal(os.Stdout) {
		fmt.Fprintln(os.Stderr, "# Run this command to configure your shell:")
		fmt.Fprintln(os.Stderr, "#   eval $(authctl auth export)")
		fmt.Fprintln(os.Stderr, "")
	}

	pairs := []config.Pair{
		{Name: "AWS_ACCESS_KEY_ID", Value: creds.AccessKeyID},
		{Name: "AWS_SECRET_ACCESS_KEY", Value: creds.SecretAccessKey},
		{Name: "AWS_SESSION_TOKEN", Value: creds.SessionToken},
	}
	return config.WritePairs(os.Stdout, shellFormat, pairs)
}

// detectShell attempts to detect the current shell from the SHELL environment variable
func detectShell() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		// Default to POSIX if we can't detect
		return config.FormatPosix
	}

	switch filepath.Base(shell) {
	case "fish":
		return config.FormatFish
	case "pwsh", "powershell":
		return config.FormatPowerShell
	default:
		// Default to POSIX for bash, zsh, sh, and unknown shells
		return config.FormatPosix
	}
}

// isTerminal checks if the given file is a terminal (TTY)
func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
