package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xavierca1/leadbase/internal/entity"
	"github.com/xavierca1/leadbase/internal/search"
	"github.com/xavierca1/leadbase/internal/usecase"
)

type filterFlags struct {
	campaigns []string
	exclude   []string
	from      string
	to        string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.campaigns, "campaign", nil, "only leads in any of these campaigns")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "skip leads in any of these campaigns")
	cmd.Flags().StringVar(&f.from, "from", "", "added on or after YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "added on or before YYYY-MM-DD")
}

func (f *filterFlags) filters(query string) (entity.SearchFilters, error) {
	out := entity.SearchFilters{Query: query, Campaigns: f.campaigns, ExcludeCampaigns: f.exclude}
	for _, d := range []struct {
		value string
		dst   **time.Time
	}{{f.from, &out.StartDate}, {f.to, &out.EndDate}} {
		if d.value == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, d.value)
		if err != nil {
			return out, fmt.Errorf("dates must be YYYY-MM-DD, got %q", d.value)
		}
		*d.dst = &t
	}
	return out, nil
}

func (c *cli) searchCmd() *cobra.Command {
	var (
		ff          filterFlags
		page        int
		pageSize    int
		interactive bool
		sortBy      string
		desc        bool
		debounce    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "search [QUERY]",
		Short: "Search stored leads",
		Long: `Searches leads by email substring and filters.

With --interactive each line read from stdin is a new query against the
full lead snapshot; only the last query typed within the debounce window runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				if !cmd.Flags().Changed("debounce") {
					debounce = c.app.Config.SearchDebounce
				}
				if debounce <= 0 {
					debounce = search.DefaultQuietWindow
				}
				return c.interactiveSearch(cmd, sortBy, desc, debounce)
			}

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			filters, err := ff.filters(query)
			if err != nil {
				return err
			}
			filters.Page, filters.PageSize = page, pageSize

			res, err := c.app.Search.Execute(ctxOf(cmd), filters)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printLeads(out, res.Leads)
			fmt.Fprintf(out, "page %d of %d, %d total\n", res.CurrentPage, res.Pages, res.Total)
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", usecase.DefaultPageSize, "results per page")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "read queries from stdin")
	cmd.Flags().StringVar(&sortBy, "sort", "", "interactive sort column: email, display_name or date_added")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "quiet window before an interactive query runs (default SEARCH_DEBOUNCE)")
	return cmd
}

func (c *cli) interactiveSearch(cmd *cobra.Command, sortBy string, desc bool, window time.Duration) error {
	ctx := ctxOf(cmd)
	out := cmd.OutOrStdout()

	var (
		mu      sync.Mutex
		lastErr error
	)
	d := search.NewDebouncer(window, func(q string) {
		leads, err := c.app.Search.Browse(ctx, q, sortBy, desc)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			lastErr = err
			return
		}
		fmt.Fprintf(out, "> %s\n", q)
		printLeads(out, leads)
		fmt.Fprintf(out, "%d matches\n", len(leads))
	})

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		d.Trigger(strings.TrimSpace(scanner.Text()))
	}

	// Let the last query run before exiting.
	for d.Pending() {
		select {
		case <-ctx.Done():
			d.Stop()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	if lastErr != nil {
		return lastErr
	}
	return scanner.Err()
}

func (c *cli) exportCmd() *cobra.Command {
	var (
		ff     filterFlags
		query  string
		format string
		label  string
		tag    string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export matching leads to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := ff.filters(query)
			if err != nil {
				return err
			}
			f, err := usecase.ParseExportFormat(format)
			if err != nil {
				return err
			}

			res, err := c.app.Export.Execute(ctxOf(cmd), usecase.ExportLeadsInput{
				Filters: filters, Format: f, Label: label, TagCampaign: tag,
			})
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = res.Filename
			}
			if path == "-" {
				_, err := cmd.OutOrStdout().Write(res.Content)
				return err
			}
			if err := os.WriteFile(path, res.Content, 0o644); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d leads to %s", res.Count, path)
			if res.Tagged > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", tagged %d with %q", res.Tagged, tag)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVarP(&query, "query", "q", "", "email substring")
	cmd.Flags().StringVar(&format, "format", string(usecase.FormatCore), "all, core or email-only")
	cmd.Flags().StringVar(&label, "label", "", "filename label")
	cmd.Flags().StringVar(&tag, "tag", "", "also tag every exported lead with this campaign")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path, - for stdout (default: generated filename)")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete EMAIL...",
		Short: "Delete leads by email",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.app.Manage.Delete(ctxOf(cmd), args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d of %d\n", n, len(args))
			return nil
		},
	}
}

func (c *cli) notesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes EMAIL NOTES",
		Short: "Replace the notes on a lead",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Manage.UpdateNotes(ctxOf(cmd), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "notes saved")
			return nil
		},
	}
}

func (c *cli) tagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag CAMPAIGN EMAIL...",
		Short: "Add a campaign to existing leads",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.app.Manage.TagLeads(ctxOf(cmd), args[1:], args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tagged %d leads with %q\n", n, args[0])
			return nil
		},
	}
}

func printLeads(w io.Writer, leads []entity.Lead) {
	if len(leads) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tNAME\tCAMPAIGNS\tADDED")
	for _, l := range leads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Email, l.DisplayName, strings.Join(l.Campaigns, ", "), l.DateAdded.Format(time.DateOnly))
	}
	tw.Flush()
}
