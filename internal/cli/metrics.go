package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display activity metrics",
	Long: `Display counts derived from the activity log: pauses, resumes, appends, clears,
exports, imports (and failures), storage failures, alerts raised, and
severity filter changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (activity log may be unavailable)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		out := cmd.OutOrStdout()
		if metricsJSON {
			return writeJSON(out, metrics)
		}

		fmt.Fprintf(out, "Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Fprintf(out, "  %-24s %d\n", "Entries recorded:", metrics.EntryCount)
		fmt.Fprintf(out, "  %-24s %d\n", "Pauses:", metrics.Pauses)
		fmt.Fprintf(out, "  %-24s %d\n", "Resumes:", metrics.Resumes)
		fmt.Fprintf(out, "  %-24s %d\n", "Appends:", metrics.Appends)
		fmt.Fprintf(out, "  %-24s %d\n", "Clears:", metrics.Clears)
		fmt.Fprintf(out, "  %-24s %d\n", "Exports:", metrics.Exports)
		fmt.Fprintf(out, "  %-24s %d (%d events)\n", "Imports:", metrics.Imports, metrics.EventsImported)
		fmt.Fprintf(out, "  %-24s %d\n", "Import failures:", metrics.ImportFailures)
		fmt.Fprintf(out, "  %-24s %d\n", "Storage failures:", metrics.SaveFailures)
		fmt.Fprintf(out, "  %-24s %d\n", "Alerts raised:", metrics.AlertsRaised)

		if len(metrics.FilterChanges) > 0 {
			fmt.Fprintln(out, "\n  Filter changes:")
			for _, f := range models.SeverityFilters {
				if n := metrics.FilterChanges[string(f)]; n > 0 {
					fmt.Fprintf(out, "    %-20s %d\n", string(f)+":", n)
				}
			}
		}

		if metrics.OldestEntry != nil {
			fmt.Fprintf(out, "\n  %-24s %s\n", "Oldest entry:", metrics.OldestEntry.Format(time.RFC3339))
		}
		if metrics.NewestEntry != nil {
			fmt.Fprintf(out, "  %-24s %s\n", "Newest entry:", metrics.NewestEntry.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
