package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/anstrom/scanviz/internal/catalog"
	"github.com/anstrom/scanviz/internal/controller"
	"github.com/anstrom/scanviz/internal/db"
	"github.com/anstrom/scanviz/internal/player"
	"github.com/anstrom/scanviz/internal/render"
	"github.com/anstrom/scanviz/internal/scenario"
	"github.com/anstrom/scanviz/internal/services"
)

const historyFlushTimeout = 5 * time.Second

var (
	playPortState string
	playSpeed     string
	playPort      string
	playTheme     string
	playAll       bool
	playNoHistory bool
)

// playCmd animates a scan in the terminal.
var playCmd = &cobra.Command{
	Use:   "play [scan-type]",
	Short: "Play a scan animation in the terminal",
	Long: `Play the packet exchange of a scan technique frame by frame and print
the resulting judgement. Without a scan type the configured default is
played. Press Ctrl+C to stop playback early.

Finished and stopped sessions are written to the history database when
it is enabled.`,
	Example: `  scanviz play tcp-syn
  scanviz play xmas --state closed --speed 2
  scanviz play --all --speed 4`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVarP(&playPortState, "state", "s", "", "port state (open, closed)")
	playCmd.Flags().StringVar(&playSpeed, "speed", "", "playback speed multiplier")
	playCmd.Flags().StringVarP(&playPort, "port", "p", "", "port number shown in the animation")
	playCmd.Flags().StringVar(&playTheme, "theme", "", "colour theme (dark, light)")
	playCmd.Flags().BoolVar(&playAll, "all", false, "play every scan in the catalog")
	playCmd.Flags().BoolVar(&playNoHistory, "no-history", false, "do not record this session")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if playAll && len(args) > 0 {
		return fmt.Errorf("--all cannot be combined with a scan type")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := openOptionalDatabase(ctx, cfg)
	defer closeDatabase(database)

	theme, err := newThemeService(cfg, database).Get(ctx)
	if err != nil {
		return err
	}
	if playTheme != "" {
		parsed, ok := render.ParseTheme(playTheme)
		if !ok {
			return fmt.Errorf("unknown theme %q (expected dark or light)", playTheme)
		}
		theme = parsed
	}

	port := scenario.CoercePortNumber(cfg.Playback.Port)
	if playPort != "" {
		port = scenario.CoercePort(playPort)
	}

	sinks := player.Sinks{
		render.NewTerminal(cmd.OutOrStdout(), theme,
			render.WithScanNames(cat.List()),
			render.WithPort(port),
			render.WithColor(!color.NoColor)),
	}

	var recorder *services.HistoryRecorder
	if database != nil && !playNoHistory {
		recorder = services.NewHistoryRecorder(db.NewHistoryRepository(database), 0)
		sinks = append(sinks, recorder)
	}

	p := player.New(sinks, player.WithTiming(cfg.PlayerTiming()))
	ctrl := controller.New(cat, p,
		controller.WithDefaults(selectionFromConfig(cfg)),
		controller.WithContext(ctx))

	if err := applyPlayFlags(ctrl); err != nil {
		return err
	}

	scans := args
	if playAll {
		scans = scanIDs(cat)
	}

	err = playScans(ctx, cmd, ctrl, scans)

	if recorder != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), historyFlushTimeout)
		defer cancel()
		if cerr := recorder.Close(flushCtx); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: history not fully written: %v\n", cerr)
		}
	}
	return err
}

// applyPlayFlags pushes the selection flags through the controller so the
// CLI coerces input exactly like the API does.
func applyPlayFlags(ctrl *controller.Controller) error {
	if playPortState != "" {
		if _, err := ctrl.SelectPortState(playPortState); err != nil {
			return err
		}
	}
	if playSpeed != "" {
		if err := ctrl.SetSpeedString(playSpeed); err != nil {
			return err
		}
	}
	if playPort != "" {
		ctrl.SetPort(playPort)
	}
	return nil
}

// playScans plays each scan in turn. An empty list plays the current
// selection once.
func playScans(ctx context.Context, cmd *cobra.Command, ctrl *controller.Controller, scans []string) error {
	if len(scans) == 0 {
		return playOnce(cmd, ctrl)
	}

	for i, raw := range scans {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := ctrl.SelectScan(raw); err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		if err := playOnce(cmd, ctrl); err != nil {
			return err
		}
	}
	return nil
}

func playOnce(cmd *cobra.Command, ctrl *controller.Controller) error {
	session, err := ctrl.Start()
	if err != nil {
		return err
	}
	result := session.Wait()

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d frames in %s\n",
		result.Outcome, result.FramesShown, result.Total, result.Duration().Round(time.Millisecond))
	return nil
}

func scanIDs(cat *catalog.Catalog) []string {
	ids := cat.IDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
