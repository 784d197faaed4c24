package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/anstrom/scanviz/internal/player"
	"github.com/anstrom/scanviz/internal/scenario"
)

// terminalAttrs approximates each swatch with a 16-colour attribute.
var terminalAttrs = map[string]color.Attribute{
	RoleAccent:            color.FgCyan,
	RoleGood:              color.FgGreen,
	RoleWarn:              color.FgYellow,
	RoleBad:               color.FgRed,
	RoleMuted:             color.FgHiBlack,
	string(scenario.FlagSYN): color.FgBlue,
	string(scenario.FlagACK): color.FgGreen,
	string(scenario.FlagFIN): color.FgHiRed,
	string(scenario.FlagPSH): color.FgMagenta,
	string(scenario.FlagURG): color.FgYellow,
	string(scenario.FlagRST): color.FgRed,
}

// Terminal is a player.Sink that prints playback to a text stream.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	palette Palette
	names   map[scenario.ScanType]string
	port    int
	colored bool
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithScanNames resolves scan type ids to display names.
func WithScanNames(defs []*scenario.ScanDefinition) TerminalOption {
	return func(t *Terminal) {
		for _, d := range defs {
			t.names[d.ID] = d.Name
		}
	}
}

// WithPort sets the port shown in the header line.
func WithPort(port int) TerminalOption {
	return func(t *Terminal) { t.port = port }
}

// WithColor enables or disables ANSI colour output.
func WithColor(enabled bool) TerminalOption {
	return func(t *Terminal) { t.colored = enabled }
}

// NewTerminal creates a terminal sink writing to out.
func NewTerminal(out io.Writer, theme Theme, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		out:     out,
		palette: PaletteFor(theme),
		names:   make(map[scenario.ScanType]string),
		port:    scenario.DefaultPort,
		colored: !color.NoColor,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Terminal) paint(s Swatch, text string, bold bool) string {
	attr, ok := terminalAttrs[s.Name]
	if !ok {
		attr = color.FgWhite
	}
	c := color.New(attr)
	if bold {
		c.Add(color.Bold)
	}
	if t.colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}

func (t *Terminal) name(id scenario.ScanType) string {
	if n, ok := t.names[id]; ok {
		return n
	}
	return string(id)
}

// Handle prints one event.
func (t *Terminal) Handle(e player.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Type {
	case player.EventStarted:
		fmt.Fprintf(t.out, "▶ %s  port %d  (%s)  speed %gx\n",
			t.name(e.ScanType), t.port, e.PortState, e.Speed)
	case player.EventFrameBegin:
		if e.Frame == nil {
			return
		}
		f := *e.Frame
		packet := t.paint(t.palette.PacketColor(f), fmt.Sprintf("[%s]", PacketLabel(f)), true)
		fmt.Fprintf(t.out, "  %d/%d %s %s\n", e.Index+1, e.Total, packet, TimelineLine(f))
	case player.EventJudgement:
		badge := t.paint(t.palette.BadgeColor(e.Badge), BadgeText(e.Badge), true)
		fmt.Fprintf(t.out, "  Judgement: %s (%s)\n", badge, e.Judgement)
	case player.EventStopped:
		fmt.Fprintf(t.out, "■ stopped at frame %d/%d\n", e.Index+1, e.Total)
	}
}

// Describe writes the idle view of a scan: metadata, timeline and badge.
func Describe(w io.Writer, def *scenario.ScanDefinition, s scenario.Scenario, state scenario.PortState, estimate time.Duration) {
	heading := color.New(color.Bold)

	heading.Fprintf(w, "%s", def.Name)
	fmt.Fprintf(w, "  [%s, %s port]\n", def.Protocol, state)
	fmt.Fprintln(w, "Illustrative behaviour only. Real stacks and middleboxes differ.")

	fmt.Fprintln(w)
	heading.Fprintln(w, "Timeline")
	for i, line := range Timeline(s.Frames) {
		fmt.Fprintf(w, "  %d. %s\n", i+1, line)
	}
	fmt.Fprintf(w, "  Expected judgement: %s  (%s)\n", s.Judgement, BadgeText(s.Judgement.Badge()))
	fmt.Fprintf(w, "  Duration at this speed: %s\n", estimate.Round(time.Millisecond))

	writeList(w, heading, "Pros", def.Summary.Pros)
	writeList(w, heading, "Cons", def.Summary.Cons)

	fmt.Fprintln(w)
	heading.Fprintf(w, "IDS detectability: %s\n", strings.ToUpper(string(def.IDS.Detectability)))
	writeList(w, heading, "Signatures", def.IDS.Signatures)
	if len(def.IDS.Evasion) > 0 {
		writeList(w, heading, "Evasion", def.IDS.Evasion)
	}
	comment := def.IDS.Comments
	if comment == "" {
		comment = "No comment"
	}
	fmt.Fprintf(w, "\nComment: %s\n", comment)
}

func writeList(w io.Writer, heading *color.Color, title string, items []string) {
	fmt.Fprintln(w)
	heading.Fprintln(w, title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
