// Package probe shows what a real scanner would do for a scan technique:
// the equivalent nmap command line and the UDP payload nmap would send to
// well-known services. Nothing in this package opens a socket or starts a
// process; the nmap scanner is only used to build its argument list.
package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Ullaakut/nmap/v3"

	"github.com/anstrom/scanviz/internal/errors"
	"github.com/anstrom/scanviz/internal/scenario"
)

// DefaultTarget is the placeholder host used in generated commands.
const DefaultTarget = "192.0.2.10"

// binaryName is never executed; it only keeps nmap from searching PATH.
const binaryName = "nmap"

var scanOptions = map[scenario.ScanType]func() nmap.Option{
	scenario.ScanTCPConnect: nmap.WithConnectScan,
	scenario.ScanTCPSYN:     nmap.WithSYNScan,
	scenario.ScanFIN:        nmap.WithTCPFINScan,
	scenario.ScanNULL:       nmap.WithTCPNullScan,
	scenario.ScanXmas:       nmap.WithTCPXmasScan,
	scenario.ScanUDP:        nmap.WithUDPScan,
}

// Command is an nmap invocation equivalent to a visualized scan.
type Command struct {
	ScanType     scenario.ScanType `json:"scan_type"`
	Args         []string          `json:"args"`
	RequiresRoot bool              `json:"requires_root"`
}

// String renders the command line.
func (c Command) String() string {
	prefix := ""
	if c.RequiresRoot {
		prefix = "sudo "
	}
	return prefix + binaryName + " " + strings.Join(c.Args, " ")
}

// RequiresRoot reports whether the technique needs raw sockets.
func RequiresRoot(id scenario.ScanType) bool {
	return id != scenario.ScanTCPConnect
}

// NmapCommand builds the nmap arguments for scanning port on target with
// the technique id. An empty target uses DefaultTarget.
func NmapCommand(ctx context.Context, id scenario.ScanType, target string, port int) (Command, error) {
	opt, ok := scanOptions[id]
	if !ok {
		return Command{}, errors.ErrUnknownScanType(string(id))
	}
	if target == "" {
		target = DefaultTarget
	}

	scanner, err := nmap.NewScanner(ctx,
		nmap.WithBinaryPath(binaryName),
		opt(),
		nmap.WithPorts(strconv.Itoa(scenario.CoercePortNumber(port))),
		nmap.WithSkipHostDiscovery(),
		nmap.WithReason(),
		nmap.WithTargets(target),
	)
	if err != nil {
		return Command{}, errors.WrapPlaybackError(errors.CodeUnknown,
			fmt.Sprintf("failed to build nmap command for %s", id), err)
	}

	return Command{
		ScanType:     id,
		Args:         scanner.Args(),
		RequiresRoot: RequiresRoot(id),
	}, nil
}
