package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pdfchat"
)

// usagePeriod is "day" or "month"
var usagePeriod string

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.Flags().StringVar(&usagePeriod, "period", "day", "reporting period: day or month")
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show provider token budgets",
	Long: `Show token usage against the embedding and chat budgets configured
under embedding.budget and chat.budget. Counters are shared with the
server when both use redis.`,
	Args: cobra.NoArgs,
	RunE: runUsage,
}

func runUsage(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer closeClient(client)

	rep, err := client.Usage(ctx, usagePeriod)
	if err != nil {
		return fmt.Errorf("usage: %w", err)
	}
	if outputJSON {
		return printJSON(cmd.OutOrStdout(), rep)
	}
	return printUsage(cmd.OutOrStdout(), rep)
}

func printUsage(out io.Writer, rep pdfchat.UsageReport) error {
	if len(rep.Budgets) == 0 {
		_, err := fmt.Fprintln(out, "No token budgets configured.")
		return err
	}
	w := newTable(out)
	fmt.Fprintf(w, "SCOPE\tUSED\tLIMIT\tREMAINING\tRESETS (%s)\n", rep.Period)
	for _, b := range rep.Budgets {
		limit, remaining := "unlimited", "-"
		if b.Limit > 0 {
			limit = strconv.FormatInt(b.Limit, 10)
			remaining = strconv.FormatInt(b.Remaining, 10)
			if b.Exhausted {
				remaining += " (exhausted)"
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			b.Scope, b.Used, limit, remaining, b.ResetsAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}
