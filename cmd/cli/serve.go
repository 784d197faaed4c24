package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anstrom/scanviz/internal/api"
	"github.com/anstrom/scanviz/internal/api/handlers"
	"github.com/anstrom/scanviz/internal/catalog"
	"github.com/anstrom/scanviz/internal/config"
	"github.com/anstrom/scanviz/internal/controller"
	"github.com/anstrom/scanviz/internal/db"
	"github.com/anstrom/scanviz/internal/logging"
	"github.com/anstrom/scanviz/internal/metrics"
	"github.com/anstrom/scanviz/internal/player"
	"github.com/anstrom/scanviz/internal/scenario"
	"github.com/anstrom/scanviz/internal/scheduler"
	"github.com/anstrom/scanviz/internal/services"
)

var (
	serveHost     string
	servePort     int
	serveAutoplay bool
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Run the scanviz API server",
	Long: `Run the HTTP API that drives the visualizer. Browsers follow playback
over the WebSocket at /api/v1/ws/playback, Prometheus scrapes /metrics and
the OpenAPI UI is served under /swagger/ when enabled.

With autoplay enabled the server rotates through the catalog on a cron
schedule while nobody is driving it.`,
	Example: `  scanviz serve
  scanviz serve --host 0.0.0.0 --port 9090
  scanviz serve --autoplay`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen address (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	serveCmd.Flags().BoolVar(&serveAutoplay, "autoplay", false, "enable scheduled autoplay")
}

// app is everything serve builds, in dependency order.
type app struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	database  *db.DB
	metrics   *metrics.PrometheusMetrics
	hub       *handlers.PlaybackHub
	recorder  *services.HistoryRecorder
	player    *player.Player
	ctrl      *controller.Controller
	server    *api.Server
	scheduler *scheduler.Scheduler
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.API.Host = serveHost
	}
	if servePort > 0 {
		cfg.API.Port = servePort
	}
	if serveAutoplay {
		cfg.Autoplay.Enabled = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	if rt.scheduler != nil {
		if err := rt.scheduler.Start(); err != nil {
			return err
		}
		defer rt.scheduler.Stop()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving scanviz on http://%s\n", cfg.GetAPIAddress())
	return rt.server.Start(ctx)
}

// buildApp wires the services behind the API. ctx parents every
// playback session, so cancelling it stops playback too.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logging.Component("serve")
	rt := &app{cfg: cfg, metrics: metrics.NewPrometheusMetrics()}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	rt.catalog = cat

	if cfg.Database.Enabled {
		database, err := openDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		database.SetObserver(rt.metrics)
		rt.database = database
	}

	var prefs services.PreferenceStore
	deps := api.Deps{Catalog: cat, Metrics: rt.metrics}
	var history *db.HistoryRepository
	if rt.database != nil {
		history = db.NewHistoryRepository(rt.database)
		prefs = db.NewPreferenceRepository(rt.database)
		rt.recorder = services.NewHistoryRecorder(history, 0)
		deps.History = history
		deps.Database = rt.database
	}
	deps.Themes = services.NewThemeService(prefs, configuredTheme(cfg))

	// The hub reports controller status to new clients, and the controller
	// does not exist until the player it drives has its sinks.
	rt.hub = handlers.NewPlaybackHub(logging.Component("websocket"),
		func() interface{} { return rt.ctrl.Status() })
	rt.metrics.TrackWebSocketClients(rt.hub.Clients)
	rt.metrics.SetCatalogSize(len(cat.IDs()))

	sinks := player.Sinks{rt.hub, services.NewMetricsSink(rt.metrics)}
	if rt.recorder != nil {
		sinks = append(sinks, rt.recorder)
	}
	rt.player = player.New(sinks, player.WithTiming(cfg.PlayerTiming()))
	rt.ctrl = controller.New(cat, rt.player,
		controller.WithDefaults(selectionFromConfig(cfg)),
		controller.WithRecorder(rt.metrics),
		controller.WithContext(ctx))

	deps.Controller = rt.ctrl
	deps.Player = rt.player
	deps.Hub = rt.hub
	server, err := api.New(cfg, deps)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.server = server

	if cfg.Autoplay.Enabled {
		rt.scheduler, err = newScheduler(cfg, rt.ctrl, cat, history)
		if err != nil {
			rt.close()
			return nil, err
		}
	}

	logger.Info("Services ready",
		"scans", len(cat.IDs()),
		"database", rt.database != nil,
		"autoplay", rt.scheduler != nil)
	return rt, nil
}

func newScheduler(cfg *config.Config, ctrl *controller.Controller, cat *catalog.Catalog,
	history *db.HistoryRepository) (*scheduler.Scheduler, error) {
	schedCfg := scheduler.Config{Schedule: cfg.Autoplay.Schedule}
	for _, raw := range cfg.Autoplay.ScanTypes {
		schedCfg.ScanTypes = append(schedCfg.ScanTypes, scenario.ParseScanType(raw))
	}
	for _, raw := range cfg.Autoplay.PortStates {
		if state, ok := scenario.ParsePortState(raw); ok {
			schedCfg.PortStates = append(schedCfg.PortStates, state)
		}
	}

	var opts []scheduler.Option
	if history != nil && cfg.Database.HistoryRetention > 0 {
		opts = append(opts, scheduler.WithPruner(history, cfg.Database.HistoryRetention))
	}
	return scheduler.New(ctrl, schedCfg, cat.IDs(), opts...)
}

// close releases the app in reverse order. Pending history is flushed
// before the database closes.
func (rt *app) close() {
	if rt.ctrl != nil {
		rt.ctrl.Stop()
	}
	if rt.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), historyFlushTimeout)
		if err := rt.recorder.Close(ctx); err != nil {
			logging.Warn("History not fully written", "error", err)
		}
		cancel()
	}
	if rt.hub != nil {
		rt.hub.Close()
	}
	closeDatabase(rt.database)
}
