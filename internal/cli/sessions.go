package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	sessionsqlite "github.com/lakeview-dev/lakeview/internal/auth/session/sqlite"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and prune sign-in sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sign-in sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSessions()
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.List(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(sessions)
		}

		printSection("Sessions")
		if len(sessions) == 0 {
			printEmptyState("No sessions found")
			return nil
		}
		now := time.Now().UTC()
		rows := make([][]string, 0, len(sessions))
		for _, sess := range sessions {
			status := "active"
			if sess.Expired(now) {
				status = "expired"
			}
			rows = append(rows, []string{
				sess.ID,
				sess.Email,
				sess.ExpiresAt.Format(time.RFC3339),
				status,
			})
		}
		printTable([]string{"ID", "Email", "Expires", "Status"}, rows)
		return nil
	},
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSessions()
		if err != nil {
			return err
		}
		defer store.Close()

		removed, err := store.DeleteExpired(context.Background(), time.Now().UTC())
		if err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Removed %d expired sessions", removed))
		return nil
	},
}

func openSessions() (*sessionsqlite.Store, error) {
	store, err := sessionsqlite.Open(filepath.Join(dataDir, "sessions.db"))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return store, nil
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsPruneCmd)
}
