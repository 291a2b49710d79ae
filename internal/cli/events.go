package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

var (
	eventsJSON   bool
	eventsLimit  int
	summaryJSON  bool
	synthAppend  bool
	synthJSON    bool
	synthSeedStr string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List stored events matching the severity filter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return errNotInitialized
		}
		visible := Service.State().Visible()
		if eventsLimit > 0 && len(visible) > eventsLimit {
			visible = visible[:eventsLimit]
		}

		out := cmd.OutOrStdout()
		if eventsJSON {
			return writeJSON(out, emptyIfNil(visible))
		}
		if len(visible) == 0 {
			fmt.Fprintln(out, "No events yet.")
			return nil
		}
		for _, e := range visible {
			fmt.Fprintf(out, "%-24s %-8s %-6s %5.0f ms  %s\n", e.TS, e.Service, e.Severity, e.LatencyMs, e.ID)
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the events matching the severity filter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return errNotInitialized
		}
		state := Service.State()
		summary := state.Summary()

		out := cmd.OutOrStdout()
		if summaryJSON {
			return writeJSON(out, summary)
		}
		fmt.Fprintf(out, "Summary (filter: %s)\n\n", state.Filter)
		fmt.Fprintf(out, "  %-16s %d\n", "Visible events:", summary.Count)
		fmt.Fprintf(out, "  %-16s %d ms\n", "Avg latency:", summary.AvgLatency)
		fmt.Fprintf(out, "  %-16s %d\n", "Info:", summary.BySeverity.Info)
		fmt.Fprintf(out, "  %-16s %d\n", "Warnings:", summary.BySeverity.Warn)
		fmt.Fprintf(out, "  %-16s %d\n", "Errors:", summary.BySeverity.Error)
		return nil
	},
}

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Synthesize one event from a seed",
	Long: `Print the event derived from a seed. The same seed always produces the same
event. Without --seed the current time in Unix milliseconds is used.

With --append the event is prepended to the stored list (capped at 200),
even while the stream is paused.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := parseSeed(synthSeedStr)
		if err != nil {
			return err
		}
		event := core.Synthesize(seed)

		if synthAppend {
			if Service == nil {
				return errNotInitialized
			}
			Service.Append(event)
		}

		out := cmd.OutOrStdout()
		if synthJSON {
			return writeJSON(out, event)
		}
		fmt.Fprintf(out, "%s  %s  %.0f ms  %s  %s\n", event.ID, event.Service, event.LatencyMs, event.Severity, event.TS)
		return nil
	},
}

// parseSeed parses a decimal seed, defaulting to the current Unix milliseconds.
func parseSeed(s string) (int64, error) {
	if s == "" {
		return time.Now().UnixMilli(), nil
	}
	seed, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q: must be a decimal integer", s)
	}
	return seed, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting as JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// emptyIfNil keeps JSON output an array rather than null.
func emptyIfNil(events []models.Event) []models.Event {
	if events == nil {
		return []models.Event{}
	}
	return events
}

func init() {
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Print events as JSON")
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 0, "Show at most n events (0 = all)")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Print the summary as JSON")
	synthCmd.Flags().StringVar(&synthSeedStr, "seed", "", "Seed (defaults to current Unix milliseconds)")
	synthCmd.Flags().BoolVar(&synthAppend, "append", false, "Prepend the event to the stored list")
	synthCmd.Flags().BoolVar(&synthJSON, "json", false, "Print the event as JSON")

	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(synthCmd)
}
