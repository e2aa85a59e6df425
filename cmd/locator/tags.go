package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refugee-resources/resource-locator/internal/resource"
)

func newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the service types and languages the matcher understands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Service types:")
			for _, t := range resource.ServiceTags {
				fmt.Fprintf(w, "- %s\n", t)
			}
			fmt.Fprintln(w, "Languages:")
			for _, t := range resource.LanguageTags {
				fmt.Fprintf(w, "- %s\n", t)
			}
			return nil
		},
	}
}
