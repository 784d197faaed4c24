package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/anstrom/scanviz/internal/catalog"
	"github.com/anstrom/scanviz/internal/config"
	"github.com/anstrom/scanviz/internal/controller"
	"github.com/anstrom/scanviz/internal/db"
	"github.com/anstrom/scanviz/internal/logging"
	"github.com/anstrom/scanviz/internal/render"
	"github.com/anstrom/scanviz/internal/scenario"
)

const (
	databaseTimeout = 30 * time.Second
	timeFormat      = "2006-01-02 15:04:05"
)

// loadCatalog loads the configured catalog, falling back to the built-in one.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.Catalog.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load scan catalog: %w", err)
	}
	return cat, nil
}

// openDatabase connects and migrates the configured database.
func openDatabase(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	if !cfg.Database.Enabled {
		return nil, fmt.Errorf("database is disabled; set database.enabled in the config file")
	}

	ctx, cancel := context.WithTimeout(ctx, databaseTimeout)
	defer cancel()

	database, err := db.ConnectAndMigrate(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// openOptionalDatabase is openDatabase for commands that also work without
// one. Failures are logged and yield nil.
func openOptionalDatabase(ctx context.Context, cfg *config.Config) *db.DB {
	if !cfg.Database.Enabled {
		return nil
	}
	database, err := openDatabase(ctx, cfg)
	if err != nil {
		logging.Warn("Continuing without database", "error", err)
		return nil
	}
	return database
}

func closeDatabase(database *db.DB) {
	if database == nil {
		return
	}
	if err := database.Close(); err != nil {
		logging.Warn("Failed to close database", "error", err)
	}
}

// selectionFromConfig is the startup selection from the playback section.
// The controller replaces invalid fields with built-in defaults.
func selectionFromConfig(cfg *config.Config) controller.Selection {
	state, _ := scenario.ParsePortState(cfg.Playback.PortState)
	return controller.Selection{
		ScanType:  scenario.ParseScanType(cfg.Playback.ScanType),
		PortState: state,
		Speed:     cfg.Playback.Speed,
		Port:      cfg.Playback.Port,
	}
}

// configuredTheme parses the configured theme, defaulting to dark.
func configuredTheme(cfg *config.Config) render.Theme {
	if theme, ok := render.ParseTheme(cfg.Playback.Theme); ok {
		return theme
	}
	return render.ThemeDark
}

func newTable(w io.Writer, headers ...any) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers...)
	return table
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
