package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anstrom/scanviz/internal/probe"
	"github.com/anstrom/scanviz/internal/render"
	"github.com/anstrom/scanviz/internal/scenario"
)

var (
	showPortState string
	showSpeed     float64
)

// listCmd lists the scan catalog.
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "scans"},
	Short:   "List the scan techniques in the catalog",
	Long: `List every scan technique in the catalog together with its protocol,
IDS detectability and whether a real scan needs root privileges.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// showCmd describes one scan technique.
var showCmd = &cobra.Command{
	Use:   "show <scan-type>",
	Short: "Describe a scan technique",
	Long: `Show the packet timeline, expected judgement, pros and cons, and IDS
notes for a scan technique against an open or closed port.`,
	Example: `  scanviz show tcp-syn
  scanviz show udp --state closed`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&showPortState, "state", "s", "", "port state to describe (open, closed)")
	showCmd.Flags().Float64Var(&showSpeed, "speed", 0, "speed used for the duration estimate")
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	table := newTable(cmd.OutOrStdout(), "ID", "Name", "Protocol", "Detectability", "Root")
	for _, def := range cat.List() {
		_ = table.Append([]string{
			string(def.ID),
			def.Name,
			string(def.Protocol),
			string(def.IDS.Detectability),
			yesNo(probe.RequiresRoot(def.ID)),
		})
	}
	return table.Render()
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	id := scenario.ParseScanType(args[0])
	def, err := cat.Definition(id)
	if err != nil {
		return err
	}

	rawState := showPortState
	if rawState == "" {
		rawState = cfg.Playback.PortState
	}
	s, state, err := cat.Scenario(id, scenario.PortState(strings.ToLower(rawState)))
	if err != nil {
		return err
	}

	speed := cfg.Playback.Speed
	if cmd.Flags().Changed("speed") {
		speed = showSpeed
	}
	if err := scenario.ValidateSpeed(speed); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	render.Describe(out, def, s, state, cfg.PlayerTiming().Estimate(s.Frames, speed))

	command, err := probe.NmapCommand(context.Background(), id, "", cfg.Playback.Port)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nEquivalent nmap command:\n  %s\n", command)
	return nil
}
