package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "eis",
	Short: "Eisenhower matrix task prioritizer",
	Long: `eis sorts tasks into the Eisenhower matrix (Do Now, Schedule, Delegate,
Eliminate) using a remote classification service.

Tasks live in a session held in memory. Each new task is shown right away
and moved into its quadrant when the service answers; answers that arrive
late or out of order are merged by task ID, and tasks deleted in the
meantime stay deleted.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "eis %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
