package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anstrom/scanviz/internal/auth"
	"github.com/anstrom/scanviz/internal/config"
)

var apikeySave bool

// apikeyCmd manages the API key that protects mutating endpoints.
var apikeyCmd = &cobra.Command{
	Use:     "apikey",
	Aliases: []string{"apikeys"},
	Short:   "Manage the API key",
	Long: `Generate and check the API key required by mutating API endpoints when
api.auth.enabled is set. Only the bcrypt hash of the key is stored in the
configuration file.`,
}

var apikeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new API key",
	Long: `Generate a new API key and print it with its hash. The key is shown
once. With --save the hash is written to the configuration file and
authentication is enabled.`,
	Example: `  scanviz apikey generate
  scanviz apikey generate --save --config config.yaml`,
	Args: cobra.NoArgs,
	RunE: runAPIKeyGenerate,
}

var apikeyVerifyCmd = &cobra.Command{
	Use:   "verify [key]",
	Short: "Check a key against the configured hash",
	Long:  `Check a key against api.auth.api_key_hash. The key is read from standard input when not given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAPIKeyVerify,
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyGenerateCmd)
	apikeyCmd.AddCommand(apikeyVerifyCmd)

	apikeyGenerateCmd.Flags().BoolVar(&apikeySave, "save", false, "store the hash in the config file")
}

func runAPIKeyGenerate(cmd *cobra.Command, _ []string) error {
	key, err := auth.GenerateKey()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "API key generated. Store it now, it is not shown again.")
	fmt.Fprintln(out)

	table := newTable(out, "Field", "Value")
	_ = table.Append([]string{"Key", key.Key})
	_ = table.Append([]string{"Prefix", key.Display})
	_ = table.Append([]string{"Hash", key.Hash})
	if err := table.Render(); err != nil {
		return err
	}

	if !apikeySave {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Add the hash to your config file:")
		fmt.Fprintf(out, "  api:\n    auth:\n      enabled: true\n      api_key_hash: %q\n", key.Hash)
		return nil
	}

	path := configPath()
	if path == "" {
		return fmt.Errorf("--save needs a config file; pass --config")
	}
	// Environment overrides must not end up in the file.
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg.API.Auth.Enabled = true
	cfg.API.Auth.APIKeyHash = key.Hash
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nAuthentication enabled in %s\n", path)
	return nil
}

func runAPIKeyVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.API.Auth.APIKeyHash == "" {
		return fmt.Errorf("no API key hash configured")
	}

	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read key: %w", err)
		}
		key = strings.TrimSpace(line)
	}

	if !auth.ValidFormat(key) {
		return fmt.Errorf("not a scanviz API key")
	}
	if !auth.VerifyKey(key, cfg.API.Auth.APIKeyHash) {
		return fmt.Errorf("key %s does not match the configured hash", auth.DisplayPrefix(key))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Key %s is valid\n", auth.DisplayPrefix(key))
	return nil
}
