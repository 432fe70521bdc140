package search

import (
	"github.com/spf13/cobra"

	"github.com/openkcm/storefront-client/internal/business"
	"github.com/openkcm/storefront-client/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"search",
		"Search products as you type",
		"Searches the product catalogue while typing. Further result pages load with ctrl+n.",
		buildInfo,
		cmdutils.RunInteractive,
		business.SearchMain,
	)
}
