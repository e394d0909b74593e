// Package cli implements the lakectl maintenance commands for inspecting the
// local workspace and session databases.
package cli

import "github.com/spf13/cobra"

var (
	// Global flags
	jsonOutput bool
	dataDir    string
)

// rootCmd is the root command for lakectl.
var rootCmd = &cobra.Command{
	Use:     "lakectl",
	Version: "dev",
	Short:   "Inspect and maintain the local lakeview workspace",
	Long: `lakectl operates on the databases the lakeview server keeps on disk:
the persisted workspace state (search, filters, open entry) and the
sign-in sessions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// SetVersion overrides the build-time version string.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "Directory holding the server databases")

	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
