package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anstrom/scanviz/internal/probe"
	"github.com/anstrom/scanviz/internal/scenario"
)

var (
	nmapTarget  string
	nmapPort    string
	nmapPayload bool
)

// nmapCmd prints the real-world equivalent of a visualized scan.
var nmapCmd = &cobra.Command{
	Use:   "nmap <scan-type>",
	Short: "Print the nmap command for a scan technique",
	Long: `Print the nmap command line that performs the visualized technique
against a real target. Nothing is executed. With --payload, the datagram a
UDP scan sends to the port is printed as a hex dump.`,
	Example: `  scanviz nmap tcp-syn --target 10.0.0.5 --port 22
  scanviz nmap udp --port 53 --payload`,
	Args: cobra.ExactArgs(1),
	RunE: runNmap,
}

func init() {
	rootCmd.AddCommand(nmapCmd)

	nmapCmd.Flags().StringVarP(&nmapTarget, "target", "t", probe.DefaultTarget, "target host")
	nmapCmd.Flags().StringVarP(&nmapPort, "port", "p", "", "target port (default from config)")
	nmapCmd.Flags().BoolVar(&nmapPayload, "payload", false, "print the UDP probe payload")
}

func runNmap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	id := scenario.ParseScanType(args[0])
	port := scenario.CoercePortNumber(cfg.Playback.Port)
	if nmapPort != "" {
		port = scenario.CoercePort(nmapPort)
	}

	command, err := probe.NmapCommand(cmd.Context(), id, nmapTarget, port)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, command)
	if command.RequiresRoot {
		fmt.Fprintln(out, "# raw packets need root or CAP_NET_RAW")
	}

	if !nmapPayload {
		return nil
	}
	if id != scenario.ScanUDP {
		return fmt.Errorf("--payload applies to udp scans only")
	}
	payload, err := probe.UDPPayload(port)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nUDP probe for port %d (%s): %s\n", payload.Port, payload.Service, payload.Summary)
	if dump := payload.Hex(); dump != "" {
		fmt.Fprint(out, dump)
	} else {
		fmt.Fprintln(out, "(empty datagram)")
	}
	return nil
}
