package signin

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openkcm/storefront-client/internal/business"
	"github.com/openkcm/storefront-client/internal/cmdutils"
	"github.com/openkcm/storefront-client/internal/config"
)

func Cmd(buildInfo string) *cobra.Command {
	var email, password string

	cmd := cmdutils.CobraCommand(
		"sign-in",
		"Sign in to the storefront",
		"Signs in and stores the access token for the configured profile. Without --password the password is read from stdin.",
		buildInfo,
		cmdutils.RunAsJob,
		func(ctx context.Context, cfg *config.Config) error {
			return business.SignInMain(ctx, cfg, email, password)
		},
	)

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
