package auth

import (
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/igor-raits/serverless-api-react-auth-demo/internal/identity"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the sign-in status",
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens, err := provider.Tokens(cmd.Context())
		if err != nil {
			return err
		}

		pterm.DefaultSection.Println("Session")
		pterm.Info.Printf("Signed in as: %s (%s flow)\n", tokens.Username, tokens.AuthFlow)
		pterm.Info.Printf("Tokens expire: %s\n", tokens.ExpiresAt.Format(time.RFC1123))

		claims := tokens.Claims()
		if groups := identity.Groups(claims); len(groups) > 0 {
			pterm.Info.Printf("Groups: %s\n", strings.Join(groups, ", "))
		}
		if sub := claims.String("sub"); sub != "" {
			pterm.Info.Printf("Subject: %s\n", sub)
		}

		creds, err := provider.SessionCredentials().Get(cmd.Context())
		if err != nil {
			pterm.Warning.Printf("Temporary AWS credentials unavailable: %v\n", err)
			return nil
		}

		pterm.DefaultSection.Println("Temporary credentials")
		pterm.Info.Printf("Access key: %s\n", creds.AccessKeyID)
		if creds.IdentityID != "" {
			pterm.Info.Printf("Identity: %s\n", creds.IdentityID)
		}
		pterm.Info.Printf("Expire: %s\n", creds.Expiration.Format(time.RFC1123))
		return nil
	},
}
