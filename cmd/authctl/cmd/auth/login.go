package auth

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/igor-raits/serverless-api-react-auth-demo/internal/identity"
	"github.com/igor-raits/serverless-api-react-auth-demo/pkg/sdk"
)

var (
	loginUsername string
	loginPassword string
	loginFlow     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the user pool",
	Long: `Signs in against the Cognito user pool and stores the resulting tokens
for later calls.

Three flows are supported:
  - srp (default): SRP challenge flow; falls back to plain password auth
    when the app client has SRP disabled.
  - password: plain USER_PASSWORD_AUTH.
  - hosted: browser-based sign-in through the pool's hosted UI; needs the
    hosted domain configured and the redirect URL registered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens, err := signIn(cmd)
		if err != nil {
			return err
		}
		if err := provider.SaveTokens(tokens); err != nil {
			return fmt.Errorf("save session: %w", err)
		}

		pterm.Success.Printf("Signed in as %s (%s flow)\n", tokens.Username, tokens.AuthFlow)
		claims := tokens.Claims()
		if email := claims.String("email"); email != "" {
			pterm.Info.Printf("Email: %s\n", email)
		}
		if groups := identity.Groups(claims); len(groups) > 0 {
			pterm.Info.Printf("Groups: %s\n", strings.Join(groups, ", "))
		}
		pterm.Info.Printf("Tokens expire at %s\n", tokens.ExpiresAt.Local().Format("15:04:05"))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginUsername, "username", "", "User pool username (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when omitted; prefer the prompt)")
	loginCmd.Flags().StringVar(&loginFlow, "auth-flow", "srp", "Authentication flow: srp, password or hosted")
}

func signIn(cmd *cobra.Command) (*sdk.Tokens, error) {
	ctx := cmd.Context()

	if loginFlow == "hosted" {
		cfg, err := provider.Config(ctx)
		if err != nil {
			return nil, err
		}
		if err := cfg.RequireUserPool(); err != nil {
			return nil, err
		}
		pterm.Info.Println("Opening the hosted sign-in page in your browser...")
		return sdk.HostedSignIn(ctx, sdk.HostedSignInOptions{
			IssuerURL:   cfg.IssuerURL(),
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.SignInRedirectURL,
		})
	}

	username, password, err := credentialsFromFlags()
	if err != nil {
		return nil, err
	}
	pool, err := provider.UserPool(ctx)
	if err != nil {
		return nil, err
	}

	switch loginFlow {
	case "srp":
		return pool.SignInAuto(ctx, username, password)
	case "password":
		return pool.SignIn(ctx, username, password)
	default:
		return nil, fmt.Errorf("unknown auth flow %q: expected srp, password or hosted", loginFlow)
	}
}

func credentialsFromFlags() (username, password string, err error) {
	username = loginUsername
	if username == "" {
		if nonInteractive {
			return "", "", fmt.Errorf("--username is required in non-interactive mode")
		}
		username, err = pterm.DefaultInteractiveTextInput.Show("Username")
		if err != nil {
			return "", "", fmt.Errorf("read username: %w", err)
		}
	}

	password = loginPassword
	if password == "" {
		if nonInteractive {
			return "", "", fmt.Errorf("--password is required in non-interactive mode")
		}
		password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
	}
	return username, password, nil
}
