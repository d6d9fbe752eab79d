package call

import (
	"fmt"

	"github.com/spf13/cobra"
)

var plainCmd = &cobra.Command{
	Use:   "plain",
	Short: "Call /test/plain without signing",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := provider.PlainClient(cmd.Context())
		if err != nil {
			return err
		}
		res, err := client.Call(cmd.Context(), "/test/plain")
		if err != nil {
			return err
		}
		fmt.Println(res.Display())
		return nil
	},
}
