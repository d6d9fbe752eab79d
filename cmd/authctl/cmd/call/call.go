// Package call invokes the demo API's routes.
package call

import (
	"github.com/spf13/cobra"

	"github.com/igor-raits/serverless-api-react-auth-demo/cmd/authctl/internal/session"
)

var provider *session.Provider

// CallCmd is the parent command for route invocations
var CallCmd = &cobra.Command{
	Use:   "call",
	Short: "Call the demo API routes",
	Long: `Invokes the API's test routes and prints the status plus response body.

  plain   open route, no signature
  public  SigV4-signed with guest role credentials
  auth    SigV4-signed with the signed-in user's credentials

Non-2xx responses are printed like successful ones; a 403 from the gate is
a demo outcome, not a client failure.`,
}

func init() {
	CallCmd.AddCommand(plainCmd)
	CallCmd.AddCommand(publicCmd)
	CallCmd.AddCommand(authCmd)
}

// SetProvider injects the shared session provider.
func SetProvider(p *session.Provider) {
	provider = p
}
