package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/refugee-resources/resource-locator/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locator",
		Short: "locator matches people to social-service resources",
		Long: "locator serves the resource-locator functions locally and exposes the\n" +
			"matcher from the command line.",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", os.Getenv("LOCATOR_CONFIG"), "Path to locator.yaml (environment variables are used when empty)")

	root.AddCommand(newServeCmd(), newSearchCmd(), newAskCmd(), newTagsCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadOrEnv(path)
}
