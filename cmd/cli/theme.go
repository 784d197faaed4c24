package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anstrom/scanviz/internal/config"
	"github.com/anstrom/scanviz/internal/db"
	"github.com/anstrom/scanviz/internal/render"
	"github.com/anstrom/scanviz/internal/services"
)

// themeCmd shows or changes the stored colour theme.
var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show or change the colour theme",
	Long: `Show the colour theme and its palette. The theme is stored in the
database so the terminal and the API share it; without a database the
configured theme is used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withThemes(cmd, func(ctx context.Context, themes *services.ThemeService) (render.Theme, error) {
			return themes.Get(ctx)
		})
	},
}

var themeSetCmd = &cobra.Command{
	Use:       "set <dark|light>",
	Short:     "Store the colour theme",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(render.ThemeDark), string(render.ThemeLight)},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withThemes(cmd, func(ctx context.Context, themes *services.ThemeService) (render.Theme, error) {
			return themes.Set(ctx, args[0])
		})
	},
}

var themeToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Switch between the dark and light themes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withThemes(cmd, func(ctx context.Context, themes *services.ThemeService) (render.Theme, error) {
			return themes.Toggle(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeSetCmd)
	themeCmd.AddCommand(themeToggleCmd)
}

// newThemeService returns a theme service backed by database, or an
// in-memory one seeded from the config when database is nil.
func newThemeService(cfg *config.Config, database *db.DB) *services.ThemeService {
	var store services.PreferenceStore
	if database != nil {
		store = db.NewPreferenceRepository(database)
	}
	return services.NewThemeService(store, configuredTheme(cfg))
}

func withThemes(cmd *cobra.Command, fn func(context.Context, *services.ThemeService) (render.Theme, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	database := openOptionalDatabase(ctx, cfg)
	defer closeDatabase(database)
	if database == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: no database, theme changes are not persisted")
	}

	theme, err := fn(ctx, newThemeService(cfg, database))
	if err != nil {
		return err
	}
	printTheme(cmd.OutOrStdout(), theme)
	return nil
}

func printTheme(w io.Writer, theme render.Theme) {
	fmt.Fprintf(w, "Theme: %s\n", theme)

	p := render.PaletteFor(theme)
	table := newTable(w, "Role", "Colour")
	for _, row := range [][]string{
		{render.RoleAccent, p.Accent},
		{render.RoleGood, p.Good},
		{render.RoleWarn, p.Warn},
		{render.RoleBad, p.Bad},
		{render.RoleMuted, p.Muted},
	} {
		_ = table.Append(row)
	}
	_ = table.Render()
}
