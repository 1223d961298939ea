package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/helpers"
	"github.com/mohammad-safakhou/researcher/models"
)

func askCMD(cfgPath *string) *cobra.Command {
	var asJSON bool
	var ask = &cobra.Command{
		Use:   "ask [query]",
		Short: "Research a query once and print the stored report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			id, err := a.engine.Research(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			r, err := a.engine.Report(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			printReport(cmd.OutOrStdout(), r)
			return nil
		},
	}
	ask.Flags().BoolVar(&asJSON, "json", false, "print the stored report as JSON")
	return ask
}

const citationSnippetLen = 120

func printReport(w io.Writer, r models.Report) {
	fmt.Fprintf(w, "#%d %s [%s]\n", r.ID, r.Title, r.Status)
	if msg, ok := r.SummaryError(); ok {
		fmt.Fprintf(w, "\n%s\n", msg)
	} else if m := r.SummaryMap(); m != nil {
		if s, _ := m["summary"].(string); s != "" {
			fmt.Fprintf(w, "\n%s\n", s)
		}
		if points, ok := m["key_points"].([]any); ok && len(points) > 0 {
			fmt.Fprintln(w)
			for _, p := range points {
				kp, _ := p.(map[string]any)
				point, _ := kp["point"].(string)
				detail, _ := kp["detail"].(string)
				if detail != "" {
					fmt.Fprintf(w, "- %s: %s\n", point, detail)
				} else {
					fmt.Fprintf(w, "- %s\n", point)
				}
			}
		}
	}
	if sources, err := r.SourceList(); err == nil && len(sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for i, s := range sources {
			fmt.Fprintln(w, helpers.FormatCitation(helpers.Citation{
				Index:    i + 1,
				Title:    s.Title,
				URL:      s.URL,
				Snippet:  s.Excerpt,
				Accessed: r.CreatedAt,
			}, helpers.WithMaxSnippetLength(citationSnippetLen)))
		}
	}
	if r.Notes != "" {
		fmt.Fprintf(w, "\nNotes:\n%s\n", r.Notes)
	}
}
