// Package auth holds the sign-in lifecycle commands.
package auth

import (
	"github.com/spf13/cobra"

	"github.com/igor-raits/serverless-api-react-auth-demo/cmd/authctl/internal/session"
)

var (
	provider       *session.Provider
	nonInteractive bool
)

// AuthCmd is the parent command for auth operations
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the sign-in session",
	Long:  `Commands for signing in against the Cognito user pool and inspecting the stored session.`,
}

func init() {
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(statusCmd)
	AuthCmd.AddCommand(exportCmd)
}

// SetProvider injects the shared session provider.
func SetProvider(p *session.Provider) {
	provider = p
}

// SetNonInteractive sets the non-interactive mode for all auth commands
func SetNonInteractive(value bool) {
	nonInteractive = value
}
