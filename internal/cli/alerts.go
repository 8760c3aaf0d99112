package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/eisenhower/internal/observability"
)

var (
	alertsNotify bool
	alertsJSON   bool
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show active alerts and warnings",
	Long: `Evaluate alert conditions against the event log and display any triggered alerts.

Alerts check for a failing classification service, remote deletes that did not
reach the service, and drafts that never received a quadrant. With --notify
the alerts are also posted to observability.alerts.webhook_url.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized (event log may be disabled)")
		}

		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			return fmt.Errorf("evaluating alerts: %w", err)
		}

		if alertsNotify {
			if Notifier == nil {
				return fmt.Errorf("no webhook configured (set observability.alerts.webhook_url)")
			}
			if err := Notifier.Notify(cmd.Context(), alerts); err != nil {
				return fmt.Errorf("sending alerts: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		if alertsJSON {
			if alerts == nil {
				alerts = []observability.Alert{}
			}
			data, err := json.MarshalIndent(alerts, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting alerts as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(alerts) == 0 {
			fmt.Fprintln(out, "No active alerts.")
			return nil
		}

		fmt.Fprintf(out, "%d active alert(s):\n\n", len(alerts))
		for _, alert := range alerts {
			fmt.Fprintf(out, "  [%s] %s\n", strings.ToUpper(string(alert.Severity)), alert.Message)
			if alert.Quadrant != "" {
				fmt.Fprintf(out, "         last quadrant %s\n", alert.Quadrant)
			}
			if len(alert.TaskIDs) == 1 {
				fmt.Fprintf(out, "         history: eis events --task %s\n", alert.TaskIDs[0])
			} else if len(alert.TaskIDs) > 1 {
				fmt.Fprintf(out, "         tasks: %s\n", strings.Join(alert.TaskIDs, ", "))
			}
			fmt.Fprintf(out, "         triggered at %s\n\n", alert.TriggeredAt.Format("2006-01-02 15:04 UTC"))
		}
		return nil
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsNotify, "notify", false, "Post alerts to the configured webhook")
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "Output alerts as JSON")
	rootCmd.AddCommand(alertsCmd)
}
