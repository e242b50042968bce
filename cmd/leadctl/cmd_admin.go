package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xavierca1/leadbase/internal/usecase"
)

func (c *cli) campaignsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "campaigns",
		Short: "List every campaign label in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			campaigns, err := c.app.Manage.Campaigns(ctxOf(cmd))
			if err != nil {
				return err
			}
			for _, name := range campaigns {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := c.app.Stats.Execute(ctxOf(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total leads:  %d\n", stats.TotalLeads)
			fmt.Fprintf(out, "this week:    %d\n", stats.LeadsThisWeek)
			fmt.Fprintf(out, "this month:   %d\n", stats.LeadsThisMonth)
			fmt.Fprintf(out, "campaigns:    %d\n", stats.TotalCampaigns)
			return nil
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent ingestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.app.Manage.ListIngestions(ctxOf(cmd), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tFILE\tCAMPAIGN\tNEW\tDUPLICATE\tINVALID")
			for _, ing := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
					ing.CreatedAt.Format(time.DateTime), ing.Filename, ing.Campaign,
					ing.NewRows, ing.DuplicateRows, ing.InvalidRows)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", usecase.DefaultIngestionListLimit, "number of entries")
	return cmd
}

func (c *cli) purgeCmd() *cobra.Command {
	var confirm string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every stored lead",
		Long:  fmt.Sprintf("Deletes all leads. Requires --confirm %q.", usecase.ClearAllConfirmation),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			count, err := c.app.Manage.Count(ctx)
			if err != nil {
				return err
			}
			n, err := c.app.Manage.ClearAll(ctx, confirm)
			if err != nil {
				return fmt.Errorf("%w (about %d leads would be deleted)", err, count.Approximate)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d leads\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&confirm, "confirm", "", "confirmation phrase")
	return cmd
}
