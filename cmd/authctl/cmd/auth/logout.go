package auth

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := provider.SignOut(); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		fmt.Println("Signed out")
		return nil
	},
}
