// Package render turns frames and judgements into presentation values:
// packet colours and labels, timeline lines, legend state and badge text.
// It holds no playback state.
package render

import (
	"fmt"
	"strings"

	"github.com/anstrom/scanviz/internal/scenario"
)

// Theme is the colour scheme preference.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"

	DefaultTheme = ThemeDark
)

// ParseTheme returns the theme named by raw, or DefaultTheme.
func ParseTheme(raw string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(raw))) {
	case ThemeLight:
		return ThemeLight, true
	case ThemeDark:
		return ThemeDark, true
	default:
		return DefaultTheme, false
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Swatch names a colour role together with its value in a palette.
type Swatch struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Colour role names.
const (
	RoleAccent = "accent"
	RoleGood   = "good"
	RoleWarn   = "warn"
	RoleBad    = "bad"
	RoleMuted  = "muted"
)

// FlagColors are shared by both themes so that the legend never changes.
var FlagColors = map[scenario.Flag]string{
	scenario.FlagSYN: "#5aa9ff",
	scenario.FlagACK: "#65e892",
	scenario.FlagFIN: "#ff7a7a",
	scenario.FlagPSH: "#b085ff",
	scenario.FlagURG: "#ffb86b",
	scenario.FlagRST: "#ff6b6b",
}

// Palette maps colour roles to values for one theme.
type Palette struct {
	Theme  Theme  `json:"theme"`
	Accent string `json:"accent"`
	Good   string `json:"good"`
	Warn   string `json:"warn"`
	Bad    string `json:"bad"`
	Muted  string `json:"muted"`
}

// PaletteFor returns the palette of t.
func PaletteFor(t Theme) Palette {
	if t == ThemeLight {
		return Palette{
			Theme:  ThemeLight,
			Accent: "#1f6feb",
			Good:   "#1a7f37",
			Warn:   "#bf8700",
			Bad:    "#cf222e",
			Muted:  "#6e7781",
		}
	}
	return Palette{
		Theme:  ThemeDark,
		Accent: "#7aa2ff",
		Good:   "#65e892",
		Warn:   "#ffb86b",
		Bad:    "#ff6b6b",
		Muted:  "#8b93a7",
	}
}

func (p Palette) role(name string) Swatch {
	switch name {
	case RoleGood:
		return Swatch{Name: name, Hex: p.Good}
	case RoleWarn:
		return Swatch{Name: name, Hex: p.Warn}
	case RoleBad:
		return Swatch{Name: name, Hex: p.Bad}
	case RoleMuted:
		return Swatch{Name: name, Hex: p.Muted}
	default:
		return Swatch{Name: RoleAccent, Hex: p.Accent}
	}
}

func flagSwatch(f scenario.Flag) Swatch {
	return Swatch{Name: string(f), Hex: FlagColors[f]}
}

// PacketColor picks the colour of the moving packet for f.
//
// Timeouts are muted, ICMP uses the warning colour and UDP the accent.
// A TCP frame with several flags is RST coloured when RST is among them and
// otherwise coloured by direction; a single flag uses its legend colour.
func (p Palette) PacketColor(f scenario.Frame) Swatch {
	switch {
	case f.Direction == scenario.Timeout:
		return p.role(RoleMuted)
	case f.Protocol == scenario.ICMP:
		return p.role(RoleWarn)
	case f.Protocol == scenario.UDP:
		return p.role(RoleAccent)
	}

	switch {
	case len(f.Flags) > 1 && f.HasFlag(scenario.FlagRST):
		return flagSwatch(scenario.FlagRST)
	case len(f.Flags) == 1:
		if _, ok := FlagColors[f.Flags[0]]; ok {
			return flagSwatch(f.Flags[0])
		}
	}
	return p.directionColor(f.Direction)
}

func (p Palette) directionColor(d scenario.Direction) Swatch {
	if d == scenario.Inbound {
		return p.role(RoleGood)
	}
	return p.role(RoleAccent)
}

// PacketLabel is the text drawn on the packet: the flags joined with "+",
// or the protocol for flagless UDP and ICMP, or NULL for a flagless TCP probe.
func PacketLabel(f scenario.Frame) string {
	if len(f.Flags) > 0 {
		return f.FlagString()
	}
	switch f.Protocol {
	case scenario.UDP:
		return "UDP"
	case scenario.ICMP:
		return "ICMP"
	default:
		return "NULL"
	}
}

// TimelineLine formats f as "[PROTO] ARROW FLAGS : desc".
func TimelineLine(f scenario.Frame) string {
	flags := f.FlagString()
	if flags == "" {
		if f.Protocol == scenario.UDP {
			flags = "—"
		} else {
			flags = "NULL"
		}
	}
	return fmt.Sprintf("[%s] %s %s : %s", f.Protocol, f.Direction.Arrow(), flags, f.Description)
}

// Timeline formats every frame of a scenario.
func Timeline(frames []scenario.Frame) []string {
	lines := make([]string, len(frames))
	for i, f := range frames {
		lines[i] = TimelineLine(f)
	}
	return lines
}

// LegendKind selects which legend is displayed.
type LegendKind string

const (
	LegendTCP      LegendKind = "tcp"
	LegendProtocol LegendKind = "protocol"
)

// Legend is the highlight state of the flag or protocol legend.
type Legend struct {
	Kind   LegendKind `json:"kind"`
	Label  string     `json:"label"`
	Active []string   `json:"active,omitempty"`
	// Dimmed is set while a NULL probe is shown: no flag is lit.
	Dimmed bool `json:"dimmed,omitempty"`
}

// LegendFor returns the legend shown while f is on screen.
func LegendFor(f scenario.Frame) Legend {
	if f.Protocol == scenario.UDP || f.Protocol == scenario.ICMP {
		return Legend{Kind: LegendProtocol, Label: "Protocol legend:", Active: []string{string(f.Protocol)}}
	}
	l := Legend{Kind: LegendTCP, Label: "TCP flag legend:"}
	if len(f.Flags) == 0 {
		l.Dimmed = true
		return l
	}
	for _, flag := range f.Flags {
		l.Active = append(l.Active, string(flag))
	}
	return l
}

// LegendForScan returns the idle legend for a scan definition.
func LegendForScan(def *scenario.ScanDefinition) Legend {
	if def.Protocol == scenario.UDP {
		return Legend{Kind: LegendProtocol, Label: "Protocol legend:"}
	}
	return Legend{Kind: LegendTCP, Label: "TCP flag legend:"}
}

// BadgeText is the label of the judgement badge.
func BadgeText(b scenario.Badge) string {
	switch b {
	case scenario.BadgeOpen:
		return "Open"
	case scenario.BadgeClosed:
		return "Closed"
	case scenario.BadgeOpenOrFiltered:
		return "Open / Filtered / Unknown"
	default:
		return "–"
	}
}

// BadgeColor is the palette role used for a badge.
func (p Palette) BadgeColor(b scenario.Badge) Swatch {
	switch b {
	case scenario.BadgeOpen:
		return p.role(RoleGood)
	case scenario.BadgeClosed:
		return p.role(RoleBad)
	case scenario.BadgeOpenOrFiltered:
		return p.role(RoleWarn)
	default:
		return p.role(RoleMuted)
	}
}

// FramePresentation bundles everything a view needs to draw one frame.
type FramePresentation struct {
	Index    int            `json:"index"`
	Label    string         `json:"label"`
	Color    Swatch         `json:"color"`
	Timeline string         `json:"timeline"`
	Legend   Legend         `json:"legend"`
	Frame    scenario.Frame `json:"frame"`
}

// Present builds the presentation of frame i.
func (p Palette) Present(i int, f scenario.Frame) FramePresentation {
	return FramePresentation{
		Index:    i,
		Label:    PacketLabel(f),
		Color:    p.PacketColor(f),
		Timeline: TimelineLine(f),
		Legend:   LegendFor(f),
		Frame:    f,
	}
}
