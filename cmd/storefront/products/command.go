package products

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openkcm/storefront-client/internal/business"
	"github.com/openkcm/storefront-client/internal/cmdutils"
	"github.com/openkcm/storefront-client/internal/config"
)

func Cmd(buildInfo string) *cobra.Command {
	var (
		manufacturerID string
		pages          int
	)

	cmd := cmdutils.CobraCommand(
		"products",
		"List the products of a manufacturer",
		"Lists the products of a manufacturer page by page.",
		buildInfo,
		cmdutils.RunAsJob,
		func(ctx context.Context, cfg *config.Config) error {
			if manufacturerID != "" {
				cfg.Catalog.ManufacturerID = manufacturerID
			}
			if pages > 0 {
				cfg.Catalog.MaxPages = pages
			}

			return business.ProductsMain(ctx, cfg)
		},
	)

	cmd.Flags().StringVar(&manufacturerID, "manufacturer", "", "manufacturer ID, overrides catalog.manufacturerID")
	cmd.Flags().IntVar(&pages, "pages", 0, "number of pages to load, overrides catalog.maxPages")

	return cmd
}
