package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history [RULE_ID]",
		Short: "Show recent executions, plus decay-weighted stats for one rule",
		Args:  cobra.MaximumNArgs(1),
		Run:   runHistory,
	}
	cmd.Flags().IntP("limit", "l", 20, "Max entries")
	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	ruleID := ""
	if len(args) == 1 {
		ruleID = args[0]
	}

	hist, err := openHistory()
	if err != nil {
		exitErr("open history", err)
	}
	defer hist.Close()

	entries, err := hist.Recent(ruleID, limit)
	if err != nil {
		exitErr("history", err)
	}
	for _, e := range entries {
		status := "ok"
		switch {
		case !e.Success:
			status = "failed: " + e.Err
		case e.Degraded:
			status = "degraded"
		case e.ViaFallback:
			status = "fallback"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s %-8s %-24s %s (%dms)\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.RuleID, e.ActionTarget, e.ActionName, status, e.DurationMS)
	}

	if ruleID == "" {
		return
	}
	stats, err := hist.RuleStats(ruleID)
	if err != nil {
		exitErr("stats", err)
	}
	if stats.Samples == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no recorded executions")
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "samples=%d success=%.0f%% degraded=%.0f%% avg=%.0fms\n",
		stats.Samples, stats.SuccessRate*100, stats.DegradedShare*100, stats.AvgDurationMS)
}
