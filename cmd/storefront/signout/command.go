package signout

import (
	"github.com/spf13/cobra"

	"github.com/openkcm/storefront-client/internal/business"
	"github.com/openkcm/storefront-client/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"sign-out",
		"Forget the stored access token",
		"Deletes the stored access token of the configured profile.",
		buildInfo,
		cmdutils.RunAsJob,
		business.SignOutMain,
	)
}
