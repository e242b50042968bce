package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xavierca1/leadbase/internal/usecase"
)

func (c *cli) ingestCmd() *cobra.Command {
	var (
		campaign    string
		emailColumn string
		preview     bool
		cleanOut    string
	)

	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Classify a CSV against stored leads and save it under a campaign",
		Long: `Parses FILE, detects the email column and classifies each row as new,
duplicate or invalid. Valid rows are stored and tagged with the campaign,
which defaults to a name derived from the filename.

  --preview      only report what would happen
  --clean-out    write the new rows to a CSV instead of storing anything`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := ctxOf(cmd)
			out := cmd.OutOrStdout()
			name := filepath.Base(path)

			switch {
			case preview:
				p, err := c.app.Ingest.Preview(ctx, usecase.PreviewInput{Filename: name, Content: f, EmailColumn: emailColumn})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "campaign:     %s\n", p.Campaign)
				fmt.Fprintf(out, "encoding:     %s (delimiter %q)\n", p.Encoding, p.Delimiter)
				fmt.Fprintf(out, "rows:         %d\n", p.TotalRows)
				fmt.Fprintf(out, "candidates:   %v\n", p.Candidates)
				if p.EmailColumn == "" {
					fmt.Fprintf(out, "email column: ambiguous, suggested %q (use --email-column)\n", p.Suggested)
					return nil
				}
				fmt.Fprintf(out, "email column: %s\n", p.EmailColumn)
				fmt.Fprintf(out, "valid:        %d\n", p.ValidRows)
				fmt.Fprintf(out, "invalid:      %d\n", p.InvalidRows)
				return nil

			case cleanOut != "":
				res, err := c.app.Ingest.CleanExport(ctx, usecase.IngestLeadsInput{
					Filename: name, Content: f, Campaign: campaign, EmailColumn: emailColumn,
				})
				if err != nil {
					return err
				}
				if err := os.WriteFile(cleanOut, res.Content, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %d new rows to %s (%d duplicates, %d invalid removed)\n",
					res.NewCount, cleanOut, res.DuplicateCount, res.InvalidCount)
				return nil
			}

			res, err := c.app.Ingest.Execute(ctx, usecase.IngestLeadsInput{
				Filename: name, Content: f, Campaign: campaign, EmailColumn: emailColumn,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "campaign:   %s\n", res.Campaign)
			fmt.Fprintf(out, "column:     %s\n", res.EmailColumn)
			fmt.Fprintf(out, "rows:       %d\n", res.TotalRows)
			fmt.Fprintf(out, "new:        %d\n", res.NewCount)
			fmt.Fprintf(out, "duplicates: %d\n", res.DuplicateCount)
			fmt.Fprintf(out, "invalid:    %d\n", res.InvalidCount)
			for _, inv := range res.Invalid {
				fmt.Fprintf(out, "  row %d: %q\n", inv.Row, inv.Value)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&campaign, "campaign", "c", "", "campaign label (default: derived from filename)")
	cmd.Flags().StringVar(&emailColumn, "email-column", "", "header of the email column")
	cmd.Flags().BoolVar(&preview, "preview", false, "report without storing")
	cmd.Flags().StringVar(&cleanOut, "clean-out", "", "write new rows to this CSV instead of storing")
	cmd.MarkFlagsMutuallyExclusive("preview", "clean-out")
	return cmd
}
