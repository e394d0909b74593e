package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lakeview-dev/lakeview/internal/state/persist"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the persisted workspace state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the persisted search, filter and entry state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bridge, err := openBridge()
		if err != nil {
			return err
		}
		defer bridge.Close()

		persisted := bridge.Load()
		if jsonOutput {
			return outputJSON(persisted)
		}

		printSection("Workspace State")
		if persisted.Search == nil && persisted.Resources == nil && persisted.Entry == nil {
			printEmptyState("No persisted state")
			return nil
		}
		if persisted.Search != nil {
			printLabelValue("Search term", valueOrDash(persisted.Search.Term))
			printLabelValue("Search filters", joinOrDash(persisted.Search.Filters))
		}
		if persisted.Resources != nil {
			printLabelValue("Resource systems", joinOrDash(persisted.Resources.Systems))
			printLabelValue("Resource types", joinOrDash(persisted.Resources.Types))
		}
		if persisted.Entry != nil {
			printLabelValue("Open entry", valueOrDash(persisted.Entry.CurrentID))
			printLabelValue("Active tab", valueOrDash(persisted.Entry.ActiveTab))
			printLabelValue("Scroll position", fmt.Sprintf("%d", persisted.Entry.ScrollPos))
		}
		return nil
	},
}

var stateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all persisted workspace state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bridge, err := openBridge()
		if err != nil {
			return err
		}
		defer bridge.Close()

		bridge.Clear()
		printSuccess("Persisted workspace state cleared")
		return nil
	},
}

func openBridge() (*persist.Bridge, error) {
	bridge, err := persist.Open(filepath.Join(dataDir, "workspace.db"))
	if err != nil {
		return nil, fmt.Errorf("open workspace store: %w", err)
	}
	return bridge, nil
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

func init() {
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateClearCmd)
}
