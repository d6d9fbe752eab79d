// Package config exposes the resolved deployment configuration.
package config

import (
	"github.com/spf13/cobra"

	"github.com/igor-raits/serverless-api-react-auth-demo/cmd/authctl/internal/session"
)

var provider *session.Provider

// ConfigCmd is the parent command for configuration operations
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and export the deployment configuration",
	Long: `Shows the resolved deployment coordinates (environment, terraform
outputs and flags combined) and exports them for the SPA build.`,
}

func init() {
	ConfigCmd.AddCommand(showCmd)
	ConfigCmd.AddCommand(exportCmd)
}

// SetProvider injects the shared session provider.
func SetProvider(p *session.Provider) {
	provider = p
}
