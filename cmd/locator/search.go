package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	locator "github.com/refugee-resources/resource-locator"
	"github.com/refugee-resources/resource-locator/internal/catalog"
	"github.com/refugee-resources/resource-locator/internal/resource"
	"github.com/refugee-resources/resource-locator/internal/search"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Match resources against a location, service type and language",
		Long:  "Match resources against explicit criteria. Example:\n  locator search --location Boston --service Food --language Spanish",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var c search.Criteria
			c.Location, _ = cmd.Flags().GetString("location")
			service, _ := cmd.Flags().GetString("service")
			language, _ := cmd.Flags().GetString("language")
			if service != "" {
				tag, ok := resource.CanonicalService(service)
				if !ok {
					return fmt.Errorf("unknown service type %q", service)
				}
				c.Service = tag
			}
			if language != "" {
				tag, ok := resource.CanonicalLanguage(language)
				if !ok {
					return fmt.Errorf("unknown language %q", language)
				}
				c.Language = tag
			}

			src, err := locator.NewSource(cfg.Dataset)
			if err != nil {
				return err
			}
			idx, err := catalog.New(src, nil, locator.IndexOptions(cfg)).Index(cmd.Context())
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), search.Evaluate(c, idx))
			return nil
		},
	}
	cmd.Flags().String("location", "", "City, neighborhood or ZIP")
	cmd.Flags().String("service", "", "Service type, e.g. Food")
	cmd.Flags().String("language", "", "Preferred language, e.g. Spanish")
	return cmd
}

func printResult(w io.Writer, res search.Result) {
	if res.Empty() {
		fmt.Fprintln(w, "No matching resources")
		return
	}
	if res.IsFull() {
		fmt.Fprintf(w, "%d full match(es)\n", len(res.Full))
	} else {
		fmt.Fprintf(w, "No full match, %d partial match(es)\n", len(res.Partial))
	}
	for _, m := range res.Selected() {
		r := m.Record
		fmt.Fprintf(w, "- %s\n", r.OrganizationName)
		fmt.Fprintf(w, "    %s\n", r.Address())
		fmt.Fprintf(w, "    services: %s | languages: %s\n",
			resource.JoinServiceTypes(r.ServiceTypes), resource.JoinLanguages(r.Languages))
		if !res.IsFull() {
			fmt.Fprintf(w, "    matches: %s\n", strings.Join(matchedOn(m), ", "))
		}
	}
}

func matchedOn(m search.Match) []string {
	var out []string
	if m.Location {
		out = append(out, "location")
	}
	if m.Service {
		out = append(out, "service")
	}
	if m.Language {
		out = append(out, "language")
	}
	return out
}
