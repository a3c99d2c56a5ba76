package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/recall/pkg/auth"
)

var (
	ownerFlag string

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an owner",
		Long:  longToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			authService := auth.NewService(viper.GetString("auth.signing_key"))

			pair, err := authService.IssueTokens(ownerFlag)

			if err != nil {
				return err
			}

			fmt.Println("token:  ", pair.Token)
			fmt.Println("refresh:", pair.RefreshToken)
			fmt.Println("expires:", pair.ExpiresAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVarP(&ownerFlag, "owner", "o", "", "Owner ID the token authenticates as")
	tokenCmd.MarkFlagRequired("owner")
}

var longToken = `
Issue a signed bearer token for local development and testing.

Example:
  recall token --owner alice | pbcopy
`
