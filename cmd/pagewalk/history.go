package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagewalk/internal/config"
	"github.com/nao1215/pagewalk/internal/database"
	"github.com/nao1215/pagewalk/internal/model"
)

// defaultHistoryLimit is the number of runs listed when --limit is not set.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded crawl runs",
		Long: `History lists the crawl runs recorded in the local database, newest first.
Unfinished runs show the page a 'pagewalk crawl --resume' would continue from.

Examples:
  # Last 20 runs of every source
  pagewalk history

  # All runs of one source
  pagewalk history --source youjizz --limit 0

  # Full report of a single run as JSON
  pagewalk history --run 42 -f json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("source", "", "Only show runs of this source")
	cmd.Flags().Int("limit", defaultHistoryLimit, "Maximum number of runs (0 for all)")
	cmd.Flags().Int64("run", 0, "Show the full report of this run ID")
	cmd.Flags().StringP("format", "f", config.FormatText, "Output format (text, json, markdown)")
	cmd.Flags().String("db-dir", "", "Database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	setupLogger(cmd)

	flags := cmd.Flags()
	source, err := flags.GetString("source")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := flags.GetInt64("run")
	if err != nil {
		return err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return err
	}
	switch format {
	case config.FormatText, config.FormatJSON, config.FormatMarkdown:
	default:
		return fmt.Errorf("%w: %s", config.ErrInvalidFormat, format)
	}
	if dir, err := flags.GetString("db-dir"); err != nil {
		return err
	} else if dir != "" {
		cfg.DBDir = dir
	}

	w := newReportWriter(format, cmd.OutOrStdout())

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false})
	if errors.Is(err, database.ErrNotExist) {
		if runID != 0 {
			return fmt.Errorf("run %d not found: no runs recorded yet", runID)
		}
		_, err = w.WriteHistory([]*model.RunSummary{})
		return err
	}
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if runID != 0 {
		run, err := db.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %d not found", runID)
		}
		_, err = w.Write(run)
		return err
	}

	runs, err := db.ListRuns(ctx, source, limit)
	if err != nil {
		return err
	}
	_, err = w.WriteHistory(runs)
	return err
}
