package config

import (
	"fmt"
	"io"
	"strings"
)

// FrontendPrefix is the variable prefix the SPA build reads.
const FrontendPrefix = "VITE_"

// Shell dialects WritePairs understands.
const (
	FormatDotenv     = "dotenv"
	FormatPosix      = "posix"
	FormatFish       = "fish"
	FormatPowerShell = "powershell"
)

// Pair is one exported variable.
type Pair struct {
	Name  string
	Value string
}

// ExportOptions controls how Export renders a config.
type ExportOptions struct {
	// Prefix is prepended to each variable name. Defaults to
	// FrontendPrefix.
	Prefix string
	// Shell picks the output dialect. Defaults to dotenv, which the SPA
	// build consumes as-is.
	Shell string
}

// Export writes the frontend-facing variables of c to w.
func Export(w io.Writer, c *Config, opts ExportOptions) error {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = FrontendPrefix
	}
	shell := opts.Shell
	if shell == "" {
		shell = FormatDotenv
	}
	return WritePairs(w, shell, c.Pairs(prefix))
}

// Pairs returns the frontend-facing variables in a stable order, each name
// carrying the given prefix. Names mirror the stack's output names.
func (c *Config) Pairs(prefix string) []Pair {
	return []Pair{
		{Name: prefix + "API_ENDPOINT", Value: c.APIEndpoint},
		{Name: prefix + "COGNITO_REGION", Value: c.Region},
		{Name: prefix + "COGNITO_USER_POOL_ID", Value: c.UserPoolID},
		{Name: prefix + "COGNITO_CLIENT_ID", Value: c.ClientID},
		{Name: prefix + "COGNITO_IDENTITY_POOL_ID", Value: c.IdentityPoolID},
		{Name: prefix + "COGNITO_DOMAIN", Value: c.Domain},
		{Name: prefix + "SIGN_IN_REDIRECT_URL", Value: c.SignInRedirectURL},
		{Name: prefix + "SIGN_OUT_REDIRECT_URL", Value: c.SignOutRedirectURL},
	}
}

// WritePairs renders pairs in the given shell dialect. The posix form is
// meant for eval, fish for its eval, powershell for Invoke-Expression.
func WritePairs(w io.Writer, shell string, pairs []Pair) error {
	switch strings.ToLower(shell) {
	case FormatDotenv, "env":
		for _, p := range pairs {
			fmt.Fprintf(w, "%s=\"%s\"\n", p.Name, p.Value)
		}
	case FormatPosix, "bash", "zsh", "sh":
		for _, p := range pairs {
			fmt.Fprintf(w, "export %s=\"%s\"\n", p.Name, p.Value)
		}
	case FormatFish:
		for _, p := range pairs {
			fmt.Fprintf(w, "set -x %s \"%s\"\n", p.Name, p.Value)
		}
	case FormatPowerShell, "pwsh", "ps1":
		for _, p := range pairs {
			fmt.Fprintf(w, "$env:%s=\"%s\"\n", p.Name, p.Value)
		}
	default:
		return fmt.Errorf("unsupported shell format: %s\n\nSupported formats: dotenv, posix, fish, powershell", shell)
	}
	return nil
}
