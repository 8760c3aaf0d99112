package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/eisenhower/pkg/models"
	"gopkg.in/yaml.v3"
)

var tasksFormat string

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the tasks stored by the classification service",
	Long: `Fetch the classification service's task list and print it as returned,
without merging it into a session. Quadrant labels are shown verbatim.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Classifier == nil {
			return fmt.Errorf("classifier not initialized")
		}

		tasks, err := Classifier.ListTasks(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}
		return writeTaskList(cmd.OutOrStdout(), tasks, tasksFormat)
	},
}

func writeTaskList(w io.Writer, tasks []models.Task, format string) error {
	if tasks == nil {
		tasks = []models.Task{}
	}

	switch format {
	case "", "text":
		if len(tasks) == 0 {
			fmt.Fprintln(w, "No tasks found.")
			return nil
		}
		fmt.Fprintf(w, "%-38s %-10s %-3s %-3s %s\n", "ID", "QUADRANT", "URG", "IMP", "TEXT")
		for _, t := range tasks {
			quadrant := string(t.Quadrant)
			if quadrant == "" {
				quadrant = "-"
			}
			fmt.Fprintf(w, "%-38s %-10s %-3d %-3d %s\n", t.ID, quadrant, t.Urgency, t.Importance, t.Text)
		}
		return nil
	case "json":
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting tasks as JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(tasks)
		if err != nil {
			return fmt.Errorf("formatting tasks as YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported format %q (use text, json or yaml)", format)
	}
}

func init() {
	tasksCmd.Flags().StringVar(&tasksFormat, "format", "text", "Output format: text, json or yaml")
	rootCmd.AddCommand(tasksCmd)
}
