// Package groups inspects the user pool's group catalog.
package groups

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/igor-raits/serverless-api-react-auth-demo/cmd/authctl/internal/session"
	"github.com/igor-raits/serverless-api-react-auth-demo/internal/identity"
)

var (
	provider      *session.Provider
	groupUsername string
)

// SetProvider injects the shared session provider.
func SetProvider(p *session.Provider) {
	provider = p
}

// GroupsCmd lists the pool's groups and their role mappings.
var GroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List user pool groups and role mappings",
	Long: `Lists the pool's groups with precedence and mapped IAM role. With
--username (or a stored session) it also shows that user's memberships and
which group's role wins the credential exchange.

Group listing is an administrative call; it runs with IAM credentials from
the AWS shared config (--profile / AWS_PROFILE).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := provider.AdminUserPool(ctx)
		if err != nil {
			return err
		}

		catalog, err := pool.ListGroups(ctx)
		if err != nil {
			return fmt.Errorf("list groups: %w", err)
		}

		rows := pterm.TableData{{"NAME", "PRECEDENCE", "ROLE ARN", "DESCRIPTION"}}
		for _, g := range catalog {
			rows = append(rows, []string{g.Name, strconv.Itoa(g.Precedence), g.RoleARN, g.Description})
		}
		pterm.DefaultSection.Println("Pool groups")
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}

		username := groupUsername
		if username == "" {
			if tokens, err := provider.Tokens(ctx); err == nil {
				username = tokens.Username
			}
		}
		if username == "" {
			return nil
		}

		memberships, err := pool.UserGroups(ctx, username)
		if err != nil {
			return fmt.Errorf("list groups for %s: %w", username, err)
		}

		pterm.DefaultSection.Printf("Memberships for %s\n", username)
		if len(memberships) == 0 {
			pterm.Info.Println("No group memberships")
			return nil
		}
		for _, g := range memberships {
			pterm.Info.Printf("%s (precedence %d)\n", g.Name, g.Precedence)
		}
		if winner, ok := identity.SelectRole(memberships); ok {
			pterm.Success.Printf("Credential exchange role: %s (via %s)\n", winner.RoleARN, winner.Name)
		} else {
			pterm.Info.Println("No group carries a role mapping; the pool's default role applies")
		}
		return nil
	},
}

func init() {
	GroupsCmd.Flags().StringVar(&groupUsername, "username", "", "Show memberships and the winning role for this user")
}
