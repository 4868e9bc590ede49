package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/around-the-grounds/internal/config"
)

func (a *app) sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List parser types, available sites and configured sources",
		Args:  cobra.NoArgs,
		RunE:  a.runSources,
	}
}

func (a *app) runSources(cmd *cobra.Command, _ []string) error {
	w := a.opts.Stdout
	supported := a.opts.Registry.Supported()

	fmt.Fprintf(w, "Parser types: %s\n", strings.Join(supported, ", "))

	if a.settings.ConfigPath == "" {
		sites, err := config.ListSites(a.settings.SitesDir)
		if err != nil {
			return fmt.Errorf("listing sites: %w", err)
		}
		fmt.Fprintf(w, "Sites: %s\n", strings.Join(sites, ", "))
	}

	site, err := a.loadSite()
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(supported))
	for _, t := range supported {
		known[t] = true
	}

	fmt.Fprintf(w, "\nSources for %s:\n", site.Name)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tPARSER\tURL")
	for _, src := range site.Sources {
		parserType := src.ParserType
		if !known[parserType] {
			parserType += " (unsupported)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", src.Key, src.Name, parserType, src.URL)
	}
	return tw.Flush()
}
