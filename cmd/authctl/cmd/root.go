package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/igor-raits/serverless-api-react-auth-demo/cmd/authctl/cmd/auth"
	"github.com/igor-raits/serverless-api-react-auth-demo/cmd/authctl/cmd/call"
	configcmd "github.com/igor-raits/serverless-api-react-auth-demo/cmd/authctl/cmd/config"
	"github.com/igor-raits/serverless-api-react-auth-demo/cmd/authctl/cmd/groups"
	"github.com/igor-raits/serverless-api-react-auth-demo/cmd/authctl/cmd/smoke"
	"github.com/igor-raits/serverless-api-react-auth-demo/cmd/authctl/internal/session"
)

var (
	endpoint       string
	region         string
	profile        string
	tfDir          string
	nonInteractive bool
)

var rootCmd = &cobra.Command{
	Use:   "authctl",
	Short: "Client for the serverless auth demo API",
	Long: `authctl exercises the serverless auth demo: sign in against the Cognito
user pool, mint temporary AWS credentials from the identity pool, and call
the API's three routes with SigV4-signed requests.

Deployment coordinates come from the environment (API_ENDPOINT,
COGNITO_USER_POOL_ID, ...) or from the stack's terraform outputs via
--tf-dir / TERRAFORM_DIR.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Check for AUTHCTL_NON_INTERACTIVE environment variable
		if os.Getenv("AUTHCTL_NON_INTERACTIVE") == "1" {
			nonInteractive = true
		}

		provider := session.NewProvider(session.Options{
			Endpoint: endpoint,
			Region:   region,
			Profile:  profile,
			TFDir:    tfDir,
		})

		// Propagate shared state to subcommands
		auth.SetProvider(provider)
		auth.SetNonInteractive(nonInteractive)
		call.SetProvider(provider)
		smoke.SetProvider(provider)
		smoke.SetNonInteractive(nonInteractive)
		groups.SetProvider(provider)
		configcmd.SetProvider(provider)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "API endpoint URL (env: API_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "AWS region override (env: AWS_REGION)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "AWS shared config profile for IAM-credential calls (env: AWS_PROFILE)")
	rootCmd.PersistentFlags().StringVar(&tfDir, "tf-dir", "", "Terraform directory to read deployment outputs from (env: TERRAFORM_DIR)")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Disable interactive prompts (also set via AUTHCTL_NON_INTERACTIVE=1)")
	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(call.CallCmd)
	rootCmd.AddCommand(smoke.SmokeCmd)
	rootCmd.AddCommand(groups.GroupsCmd)
	rootCmd.AddCommand(configcmd.ConfigCmd)
}
