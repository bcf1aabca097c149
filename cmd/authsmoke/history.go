package authsmoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/kamilpajak/authsmoke/internal/registry"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent smoke runs",
	Long: `List recent smoke runs recorded in the configured database,
newest first.

Examples:
  authsmoke history
  authsmoke history --limit 50 --format json`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum runs to list")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "Output format (text, json)")
}

// historyEntry is the JSON shape emitted with --format json.
type historyEntry struct {
	Email          string    `json:"email"`
	AppURL         string    `json:"app_url"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	DurationMs     int64     `json:"duration_ms"`
	SessionSubject string    `json:"session_subject,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("no database configured: set database_url or DATABASE_URL")
	}

	ctx := context.Background()
	db, err := registry.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}

	if historyFormat == "json" {
		entries := make([]historyEntry, 0, len(runs))
		for _, run := range runs {
			entries = append(entries, historyEntry{
				Email:          run.Email,
				AppURL:         run.AppURL,
				Status:         run.Status,
				Error:          run.Error,
				DurationMs:     run.Duration.Milliseconds(),
				SessionSubject: run.SessionSubject,
				CreatedAt:      run.CreatedAt,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	printRuns(os.Stdout, runs)
	return nil
}

func printRuns(w io.Writer, runs []registry.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No smoke runs recorded.")
		return
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	for _, run := range runs {
		badge := green
		if run.Status != registry.RunPassed {
			badge = red
		}
		_, _ = badge.Fprintf(w, "%-6s", run.Status)
		fmt.Fprintf(w, " %s  %s  %dms  %s\n",
			run.CreatedAt.Format(time.RFC3339), run.Email, run.Duration.Milliseconds(), run.AppURL)
		if run.Error != "" {
			fmt.Fprintf(w, "       %s\n", run.Error)
		}
	}
}
