package resetpassword

import (
	"github.com/spf13/cobra"

	"github.com/openkcm/storefront-client/internal/business"
	"github.com/openkcm/storefront-client/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"reset-password",
		"Reset a forgotten password",
		"Requests a verification code by email, verifies it and sets a new password.",
		buildInfo,
		cmdutils.RunInteractive,
		business.ResetPasswordMain,
	)
}
