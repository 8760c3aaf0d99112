package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/eisenhower/internal/core"
	"github.com/valter-silva-au/eisenhower/pkg/models"
	"gopkg.in/yaml.v3"
)

var rankFormat string

// matrixReport is the serialized form of a projection.
type matrixReport struct {
	DoNow        []models.Task `json:"do_now" yaml:"do_now"`
	Schedule     []models.Task `json:"schedule" yaml:"schedule"`
	Delegate     []models.Task `json:"delegate" yaml:"delegate"`
	Eliminate    []models.Task `json:"eliminate" yaml:"eliminate"`
	Unclassified []models.Task `json:"unclassified" yaml:"unclassified"`
}

func newMatrixReport(p core.Projection) matrixReport {
	orEmpty := func(tasks []models.Task) []models.Task {
		if tasks == nil {
			return []models.Task{}
		}
		return tasks
	}
	return matrixReport{
		DoNow:        orEmpty(p.Quadrants[models.QuadrantDoNow]),
		Schedule:     orEmpty(p.Quadrants[models.QuadrantSchedule]),
		Delegate:     orEmpty(p.Quadrants[models.QuadrantDelegate]),
		Eliminate:    orEmpty(p.Quadrants[models.QuadrantEliminate]),
		Unclassified: orEmpty(p.Unclassified),
	}
}

var rankCmd = &cobra.Command{
	Use:   "rank [task...]",
	Short: "Classify tasks and print the matrix",
	Long: `Classify each argument as a task and print the resulting Eisenhower matrix.
With no arguments, tasks are read one per line from standard input. Blank
entries are skipped.

Tasks whose classification fails are listed as unclassified and the command
exits with an error after printing.`,
	Example: `  eis rank "Buy milk" "File taxes"
  eis rank --format json < todo.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("engine not initialized")
		}

		texts := args
		if len(texts) == 0 {
			var err error
			texts, err = readLines(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading tasks from stdin: %w", err)
			}
		}

		var failures []error
		submitted := 0
		for _, text := range texts {
			_, err := Engine.Add(cmd.Context(), text)
			if errors.Is(err, core.ErrEmptyText) {
				continue
			}
			submitted++
			if err != nil {
				failures = append(failures, err)
			}
		}

		if err := writeMatrix(cmd.OutOrStdout(), Engine.Matrix(), rankFormat); err != nil {
			return err
		}
		if len(failures) > 0 {
			return fmt.Errorf("%d of %d tasks could not be classified: %w", len(failures), submitted, errors.Join(failures...))
		}
		return nil
	},
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// writeMatrix prints p in the given format: text, json or yaml.
func writeMatrix(w io.Writer, p core.Projection, format string) error {
	switch format {
	case "", "text":
		for _, q := range models.Quadrants {
			writeBucket(w, string(q), p.Quadrants[q])
		}
		if len(p.Unclassified) > 0 {
			writeBucket(w, "Unclassified", p.Unclassified)
		}
		return nil
	case "json":
		data, err := json.MarshalIndent(newMatrixReport(p), "", "  ")
		if err != nil {
			return fmt.Errorf("formatting matrix as JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(newMatrixReport(p))
		if err != nil {
			return fmt.Errorf("formatting matrix as YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported format %q (use text, json or yaml)", format)
	}
}

func writeBucket(w io.Writer, name string, tasks []models.Task) {
	fmt.Fprintf(w, "%s (%d)\n", name, len(tasks))
	for _, t := range tasks {
		if t.IsClassified() {
			fmt.Fprintf(w, "  - %s  [urgency %d, importance %d]\n", t.Text, t.Urgency, t.Importance)
		} else {
			fmt.Fprintf(w, "  - %s\n", t.Text)
		}
	}
	fmt.Fprintln(w)
}

func init() {
	rankCmd.Flags().StringVar(&rankFormat, "format", "text", "Output format: text, json or yaml")
	rootCmd.AddCommand(rankCmd)
}
