package config

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/igor-raits/serverless-api-react-auth-demo/internal/config"
)

var (
	exportPrefix string
	exportOutput string
	exportShell  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the configuration for the SPA build",
	Long: `Writes the deployment coordinates as environment variable assignments
for the frontend build, VITE_-prefixed by default.

  authctl config export                       # dotenv to stdout
  authctl config export --output .env.local   # dotenv file for the SPA
  authctl config export --shell posix         # eval-able exports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := provider.Config(cmd.Context())
		if err != nil {
			return err
		}

		opts := config.ExportOptions{Prefix: exportPrefix, Shell: exportShell}
		if exportOutput == "" {
			return config.Export(os.Stdout, cfg, opts)
		}

		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOutput, err)
		}
		if err := config.Export(f, cfg, opts); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		pterm.Success.Printf("Wrote %s\n", exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "", "Variable name prefix (default VITE_)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Write to a file instead of stdout")
	exportCmd.Flags().StringVar(&exportShell, "shell", "", "Output format: dotenv, posix, fish, powershell (default dotenv)")
}
