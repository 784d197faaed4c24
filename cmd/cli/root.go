// Package cli provides the command-line interface for scanviz.
// It implements the Cobra-based CLI with commands for browsing the scan
// catalog, playing scans in the terminal, running the API server, and
// managing history, preferences and API keys.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/scanviz/internal/api/handlers"
	"github.com/anstrom/scanviz/internal/config"
	"github.com/anstrom/scanviz/internal/logging"
)

const envPrefix = "SCANVIZ"

var (
	cfgFile string
	verbose bool
	noColor bool
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "scanviz",
	Short: "Port scan visualizer",
	Long: `Scanviz animates how common port-scanning techniques look on the wire.
It replays the packet exchange of TCP connect, SYN, FIN, NULL, Xmas and UDP
scans against an open or closed port, explains what each technique reveals,
and how visible it is to intrusion detection.

Nothing is ever sent on the network. Every exchange is a scripted scenario.`,
	Version:       getVersion(),
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")

	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind verbose flag: %v\n", err)
	}
}

// initConfig reads in the .env file, config file and ENV variables if set.
func initConfig() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	if noColor {
		color.NoColor = true
	}

	initLogging()
}

// configPath returns the config file in effect, if any.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return viper.ConfigFileUsed()
}

// loadConfig loads the config file and applies environment overrides.
// Overrides use the SCANVIZ_ prefix with dots replaced by underscores,
// e.g. SCANVIZ_API_PORT or SCANVIZ_DATABASE_ENABLED.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}

	applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	overrideString("playback.scan_type", &cfg.Playback.ScanType)
	overrideString("playback.port_state", &cfg.Playback.PortState)
	overrideString("playback.theme", &cfg.Playback.Theme)
	if viper.IsSet("playback.speed") {
		cfg.Playback.Speed = viper.GetFloat64("playback.speed")
	}
	if viper.IsSet("playback.port") {
		cfg.Playback.Port = viper.GetInt("playback.port")
	}

	overrideString("catalog.file", &cfg.Catalog.File)

	overrideString("api.host", &cfg.API.Host)
	if viper.IsSet("api.port") {
		cfg.API.Port = viper.GetInt("api.port")
	}
	overrideString("api.session_secret", &cfg.API.SessionSecret)

	if viper.IsSet("database.enabled") {
		cfg.Database.Enabled = viper.GetBool("database.enabled")
	}
	overrideString("database.driver", &cfg.Database.Driver)
	overrideString("database.path", &cfg.Database.Path)
	overrideString("database.host", &cfg.Database.Host)
	overrideString("database.password", &cfg.Database.Password)

	if viper.IsSet("autoplay.enabled") {
		cfg.Autoplay.Enabled = viper.GetBool("autoplay.enabled")
	}

	overrideString("logging.level", &cfg.Logging.Level)
	overrideString("logging.format", &cfg.Logging.Format)
	overrideString("logging.output", &cfg.Logging.Output)
}

func overrideString(key string, dst *string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
	handlers.SetBuildInfo(v, c, bt)
}

// initLogging initializes structured logging based on configuration.
func initLogging() {
	cfg, err := loadConfig()
	if err != nil {
		logging.SetDefault(nil)
		return
	}

	logConfig := cfg.ToLogging()
	if verbose {
		logConfig.Level = logging.LevelDebug
	}

	logger, err := logging.New(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	logging.SetDefault(logger)

	if verbose {
		logging.Debug("Structured logging initialized", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	}
}
