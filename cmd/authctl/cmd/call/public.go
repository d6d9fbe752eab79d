package call

import (
	"fmt"

	"github.com/spf13/cobra"
)

var publicCmd = &cobra.Command{
	Use:   "public",
	Short: "Call /test/public with guest credentials",
	Long: `Fetches guest role credentials from the identity pool (no sign-in
needed) and calls /test/public with a SigV4-signed request.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := provider.GuestClient(cmd.Context())
		if err != nil {
			return err
		}
		res, err := client.CallSigned(cmd.Context(), "/test/public")
		if err != nil {
			return err
		}
		fmt.Println(res.Display())
		return nil
	},
}
