package call

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/igor-raits/serverless-api-react-auth-demo/pkg/sdk"
)

var useIAM bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Call /test/auth with the session credentials",
	Long: `Calls /test/auth with a SigV4-signed request. By default the request is
signed with the signed-in user's temporary credentials and carries the ID
token header so the backend can display the decoded claims.

With --iam the request is signed with IAM credentials from the AWS shared
config instead (--profile / AWS_PROFILE); no ID token is attached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			client *sdk.APIClient
			err    error
		)
		if useIAM {
			client, err = provider.ProfileClient(cmd.Context())
		} else {
			client, err = provider.SessionClient(cmd.Context())
		}
		if err != nil {
			return err
		}

		res, err := client.CallSigned(cmd.Context(), "/test/auth")
		if err != nil {
			return err
		}
		fmt.Println(res.Display())
		return nil
	},
}

func init() {
	authCmd.Flags().BoolVar(&useIAM, "iam", false, "Sign with IAM credentials from the AWS shared config instead of the session")
}
