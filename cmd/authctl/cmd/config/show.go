package config

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := provider.Config(cmd.Context())
		if err != nil {
			return err
		}

		pterm.DefaultSection.Println("Deployment configuration")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Region\t%s\n", cfg.Region)
		fmt.Fprintf(w, "API endpoint\t%s\n", orUnset(cfg.APIEndpoint))
		fmt.Fprintf(w, "User pool\t%s\n", orUnset(cfg.UserPoolID))
		fmt.Fprintf(w, "App client\t%s\n", orUnset(cfg.ClientID))
		fmt.Fprintf(w, "Identity pool\t%s\n", orUnset(cfg.IdentityPoolID))
		fmt.Fprintf(w, "Hosted domain\t%s\n", orUnset(cfg.Domain))
		fmt.Fprintf(w, "Sign-in redirect\t%s\n", cfg.SignInRedirectURL)
		fmt.Fprintf(w, "Sign-out redirect\t%s\n", cfg.SignOutRedirectURL)
		if cfg.UserPoolID != "" {
			fmt.Fprintf(w, "Issuer\t%s\n", cfg.IssuerURL())
		}
		return w.Flush()
	},
}

func orUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}
