package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mozdados/mozdados/components/dashboard"
	"github.com/mozdados/mozdados/components/dashboard/queries"
)

type catalogCmd struct {
	Kind  string `arg:"" enum:"topics,indicators,countries" help:"List to search (topics, indicators, countries)."`
	Term  string `arg:"" optional:"" help:"Case-insensitive name fragment."`
	Topic string `help:"Restrict indicators to a topic id."`
	Limit int    `default:"50" help:"Maximum number of rows."`
	JSON  bool   `name:"json" help:"Print JSON instead of a table."`

	out io.Writer
}

func (c *catalogCmd) Run(ctx context.Context, rt *runtime) error {
	a, err := newApp(rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return c.search(ctx, queries.NewCatalogSearchQuery(a.Service))
}

func (c *catalogCmd) search(ctx context.Context, query *queries.CatalogSearchQuery) error {
	entries, err := query.Query(ctx, queries.CatalogSearchInput{
		Kind:    c.Kind,
		Term:    c.Term,
		Limit:   c.Limit,
		TopicID: c.Topic,
	})
	if err != nil {
		return err
	}
	out := c.out
	if out == nil {
		out = os.Stdout
	}
	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	return printEntries(out, entries)
}

func printEntries(out io.Writer, entries []dashboard.CatalogEntry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAGGREGATE")
	for _, entry := range entries {
		aggregate := ""
		if entry.Aggregate {
			aggregate = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", entry.ID, entry.Name, aggregate)
	}
	return w.Flush()
}
