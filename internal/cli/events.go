package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/eisenhower/internal/observability"
)

var (
	eventsJSON  bool
	eventsSince string
	eventsType  string
	eventsLevel string
	eventsTask  string
	eventsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the session event log",
	Long: `Show entries from the JSONL event log: drafted, classified and deleted
tasks, cleared sessions, and failed classification or remote delete calls.

Filter with --since (e.g. 7d, 24h), --type (e.g. task.classified, or
task.* for every task event), --level (INFO, WARN, ERROR) and --task.
--task follows one task across its events, including failed batches it
was part of.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized")
		}

		since, err := parseSinceDuration(eventsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		events, err := EventLog.Read(observability.EventFilter{
			Since:  &since,
			Type:   eventsType,
			Level:  strings.ToUpper(eventsLevel),
			TaskID: strings.TrimSpace(eventsTask),
			Limit:  eventsLimit,
		})
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}

		if eventsJSON {
			if events == nil {
				events = []observability.Event{}
			}
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting events as JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		writeEvents(cmd.OutOrStdout(), events, since)
		return nil
	},
}

func writeEvents(w io.Writer, events []observability.Event, since time.Time) {
	if len(events) == 0 {
		fmt.Fprintf(w, "No events since %s.\n", since.Format("2006-01-02 15:04"))
		return
	}

	counts := make(map[string]int)
	for _, e := range events {
		counts[e.Type]++
		fmt.Fprintf(w, "%s  %-5s %-22s %s\n", e.Time.Local().Format("2006-01-02 15:04:05"), e.Level, e.Type, formatEventData(e.Data))
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Fprintf(w, "\n%d events\n", len(events))
	for _, t := range types {
		fmt.Fprintf(w, "  %-22s %d\n", t+":", counts[t])
	}
}

func formatEventData(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, data[k])
	}
	return strings.Join(parts, " ")
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
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output events as JSON")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "7d", "Time window (e.g. 7d, 30d, 24h)")
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "Only show events of this type")
	eventsCmd.Flags().StringVar(&eventsLevel, "level", "", "Only show events at this level")
	eventsCmd.Flags().StringVar(&eventsTask, "task", "", "Only show events that mention this task ID")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "Show at most this many recent events")
	rootCmd.AddCommand(eventsCmd)
}
