package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/internal/observability"
)

var alertsNotify bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Evaluate latency alerts over the stored events",
	Long: `Evaluate the demo alert rules against every stored event, regardless of the
severity filter: overall error rate, average latency, and per-service error
bursts. Thresholds come from the alerts section of .flowpulse.yaml.

With --notify, triggered alerts are also posted to the configured Slack webhook.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized")
		}
		if Service == nil {
			return errNotInitialized
		}

		events := Service.State().Events
		alerts := AlertEngine.Evaluate(events)
		out := cmd.OutOrStdout()

		if len(alerts) == 0 {
			fmt.Fprintln(out, "No active alerts.")
			return nil
		}

		observability.Record(EventLog, observability.LevelWarn, observability.TypeAlertsTriggered,
			fmt.Sprintf("%d alert(s) triggered", len(alerts)), map[string]any{"count": len(alerts)})

		fmt.Fprintf(out, "%d active alert(s):\n\n", len(alerts))
		for _, alert := range alerts {
			severity := strings.ToUpper(string(alert.Severity))
			fmt.Fprintf(out, "  [%s] %s\n", severity, alert.Message)
			fmt.Fprintf(out, "         triggered at %s\n\n", alert.TriggeredAt.Format("2006-01-02 15:04 UTC"))
		}

		if alertsNotify {
			if Notifier == nil {
				return fmt.Errorf("notifications not configured (set notifications.enabled and notifications.slack.webhook_url)")
			}
			if err := Notifier.Notify(commandContext(cmd), alerts, core.Summarize(events)); err != nil {
				return fmt.Errorf("sending notification: %w", err)
			}
			fmt.Fprintln(out, "Notification sent.")
		}

		return nil
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsNotify, "notify", false, "Post triggered alerts to the configured Slack webhook")
	rootCmd.AddCommand(alertsCmd)
}
