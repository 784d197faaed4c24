package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/anstrom/scanviz/internal/db"
	"github.com/anstrom/scanviz/internal/scenario"
)

var (
	historyScanType  string
	historyPortState string
	historyOutcome   string
	historySince     time.Duration
	historyLimit     int
	historyOffset    int
	historyOlderThan time.Duration
)

// historyCmd lists recorded playback sessions.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded playback sessions",
	Long: `List playback sessions recorded in the database, newest first. Both
completed and stopped sessions are recorded.`,
	Example: `  scanviz history
  scanviz history --scan udp --outcome stopped
  scanviz history --since 24h --limit 5`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show playback counts per scan type",
	Args:  cobra.NoArgs,
	RunE:  runHistoryStats,
}

var historyPruneCmd = &cobra.Command{
	Use:     "prune",
	Short:   "Delete old playback records",
	Example: `  scanviz history prune --older-than 720h`,
	Args:    cobra.NoArgs,
	RunE:    runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyCmd.Flags().StringVar(&historyScanType, "scan", "", "only this scan type")
	historyCmd.Flags().StringVarP(&historyPortState, "state", "s", "", "only this port state (open, closed)")
	historyCmd.Flags().StringVar(&historyOutcome, "outcome", "", "only this outcome (completed, stopped)")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only sessions started within this duration")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of sessions")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "number of sessions to skip")

	historyPruneCmd.Flags().DurationVar(&historyOlderThan, "older-than", 0, "delete sessions older than this (required)")
	_ = historyPruneCmd.MarkFlagRequired("older-than")
}

// buildHistoryFilter validates the list flags.
func buildHistoryFilter(now time.Time) (db.HistoryFilter, error) {
	filter := db.HistoryFilter{
		ScanType: string(scenario.ParseScanType(historyScanType)),
		Limit:    historyLimit,
		Offset:   historyOffset,
	}

	if historyPortState != "" {
		state, ok := scenario.ParsePortState(historyPortState)
		if !ok {
			return filter, fmt.Errorf("invalid port state %q (expected open or closed)", historyPortState)
		}
		filter.PortState = string(state)
	}

	switch outcome := strings.ToLower(historyOutcome); outcome {
	case "":
	case db.OutcomeCompleted, db.OutcomeStopped:
		filter.Outcome = outcome
	default:
		return filter, fmt.Errorf("invalid outcome %q (expected completed or stopped)", historyOutcome)
	}

	if historySince < 0 {
		return filter, fmt.Errorf("--since must be positive")
	}
	if historySince > 0 {
		filter.Since = now.Add(-historySince)
	}
	return filter.Normalized(), nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	filter, err := buildHistoryFilter(time.Now())
	if err != nil {
		return err
	}

	return withHistory(cmd, func(ctx context.Context, repo *db.HistoryRepository) error {
		records, err := repo.List(ctx, filter)
		if err != nil {
			return err
		}
		total, err := repo.Count(ctx, filter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No playback sessions recorded.")
			return nil
		}

		table := newTable(out, "Started", "Scan", "State", "Speed", "Port", "Outcome", "Frames", "Judgement", "Duration")
		for _, rec := range records {
			judgement := "-"
			if rec.Judgement != nil {
				judgement = *rec.Judgement
			}
			_ = table.Append([]string{
				rec.StartedAt.Local().Format(timeFormat),
				rec.ScanType,
				rec.PortState,
				strconv.FormatFloat(rec.Speed, 'g', -1, 64) + "x",
				strconv.Itoa(rec.Port),
				rec.Outcome,
				fmt.Sprintf("%d/%d", rec.FramesShown, rec.TotalFrames),
				judgement,
				rec.Duration.Duration().Round(time.Millisecond).String(),
			})
		}
		if err := table.Render(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Showing %d of %d sessions\n", len(records), total)
		return nil
	})
}

func runHistoryStats(cmd *cobra.Command, _ []string) error {
	return withHistory(cmd, func(ctx context.Context, repo *db.HistoryRepository) error {
		stats, err := repo.Stats(ctx)
		if err != nil {
			return err
		}

		table := newTable(cmd.OutOrStdout(), "Scan", "Plays", "Completed", "Stopped", "Avg Duration")
		for _, s := range stats {
			avg := time.Duration(s.AvgDurationMs * float64(time.Millisecond)).Round(time.Millisecond)
			_ = table.Append([]string{
				s.ScanType,
				strconv.FormatInt(s.Plays, 10),
				strconv.FormatInt(s.Completed, 10),
				strconv.FormatInt(s.Stopped, 10),
				avg.String(),
			})
		}
		return table.Render()
	})
}

func runHistoryPrune(cmd *cobra.Command, _ []string) error {
	if historyOlderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}

	return withHistory(cmd, func(ctx context.Context, repo *db.HistoryRepository) error {
		cutoff := time.Now().Add(-historyOlderThan)
		n, err := repo.Prune(ctx, cutoff)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d sessions started before %s\n", n, cutoff.Local().Format(timeFormat))
		return nil
	})
}

func withHistory(cmd *cobra.Command, fn func(context.Context, *db.HistoryRepository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), databaseTimeout)
	defer cancel()

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(database)

	return fn(ctx, db.NewHistoryRepository(database))
}
