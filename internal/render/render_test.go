package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanviz/internal/catalog"
	"github.com/anstrom/scanviz/internal/player"
	"github.com/anstrom/scanviz/internal/scenario"
)

func frame(dir scenario.Direction, proto scenario.Protocol, flags ...scenario.Flag) scenario.Frame {
	f := scenario.Frame{Direction: dir, Protocol: proto, Description: "d"}
	if len(flags) > 0 {
		f.Flags = flags
	}
	return f
}

func TestPacketColor(t *testing.T) {
	p := PaletteFor(ThemeDark)

	tests := []struct {
		name  string
		frame scenario.Frame
		want  Swatch
	}{
		{"timeout", frame(scenario.Timeout, scenario.TCP), Swatch{RoleMuted, p.Muted}},
		{"udp timeout", frame(scenario.Timeout, scenario.UDP), Swatch{RoleMuted, p.Muted}},
		{"icmp", frame(scenario.Inbound, scenario.ICMP), Swatch{RoleWarn, p.Warn}},
		{"udp", frame(scenario.Outbound, scenario.UDP), Swatch{RoleAccent, p.Accent}},
		{"syn", frame(scenario.Outbound, scenario.TCP, scenario.FlagSYN), Swatch{"SYN", "#5aa9ff"}},
		{"rst", frame(scenario.Outbound, scenario.TCP, scenario.FlagRST), Swatch{"RST", "#ff6b6b"}},
		{"rst ack", frame(scenario.Inbound, scenario.TCP, scenario.FlagRST, scenario.FlagACK), Swatch{"RST", "#ff6b6b"}},
		{"syn ack inbound", frame(scenario.Inbound, scenario.TCP, scenario.FlagSYN, scenario.FlagACK), Swatch{RoleGood, p.Good}},
		{"fin ack outbound", frame(scenario.Outbound, scenario.TCP, scenario.FlagFIN, scenario.FlagACK), Swatch{RoleAccent, p.Accent}},
		{"xmas", frame(scenario.Outbound, scenario.TCP, scenario.FlagFIN, scenario.FlagPSH, scenario.FlagURG), Swatch{RoleAccent, p.Accent}},
		{"null outbound", frame(scenario.Outbound, scenario.TCP), Swatch{RoleAccent, p.Accent}},
		{"null inbound", frame(scenario.Inbound, scenario.TCP), Swatch{RoleGood, p.Good}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.PacketColor(tt.frame))
		})
	}
}

func TestPacketLabel(t *testing.T) {
	assert.Equal(t, "SYN+ACK", PacketLabel(frame(scenario.Inbound, scenario.TCP, scenario.FlagSYN, scenario.FlagACK)))
	assert.Equal(t, "UDP", PacketLabel(frame(scenario.Outbound, scenario.UDP)))
	assert.Equal(t, "ICMP", PacketLabel(frame(scenario.Inbound, scenario.ICMP)))
	assert.Equal(t, "NULL", PacketLabel(frame(scenario.Outbound, scenario.TCP)))
}

func TestTimelineLine(t *testing.T) {
	f := frame(scenario.Outbound, scenario.TCP, scenario.FlagFIN, scenario.FlagPSH, scenario.FlagURG)
	f.Description = "Send Xmas flags"
	assert.Equal(t, "[TCP] → FIN+PSH+URG : Send Xmas flags", TimelineLine(f))

	udp := frame(scenario.Timeout, scenario.UDP)
	udp.Description = "No response"
	assert.Equal(t, "[UDP] … — : No response", TimelineLine(udp))

	null := frame(scenario.Outbound, scenario.TCP)
	assert.Equal(t, "[TCP] → NULL : d", TimelineLine(null))

	icmp := frame(scenario.Inbound, scenario.ICMP)
	assert.Equal(t, "[ICMP] ← NULL : d", TimelineLine(icmp))
}

func TestTimelineMatchesCatalog(t *testing.T) {
	s, _, err := catalog.MustBuiltin().Scenario(scenario.ScanTCPSYN, scenario.PortOpen)
	require.NoError(t, err)

	lines := Timeline(s.Frames)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "[TCP] → SYN : "))
	assert.True(t, strings.HasPrefix(lines[1], "[TCP] ← SYN+ACK : "))
	assert.True(t, strings.HasPrefix(lines[2], "[TCP] → RST : "))
}

func TestLegend(t *testing.T) {
	l := LegendFor(frame(scenario.Outbound, scenario.UDP))
	assert.Equal(t, LegendProtocol, l.Kind)
	assert.Equal(t, []string{"UDP"}, l.Active)

	l = LegendFor(frame(scenario.Inbound, scenario.ICMP))
	assert.Equal(t, []string{"ICMP"}, l.Active)

	l = LegendFor(frame(scenario.Outbound, scenario.TCP))
	assert.Equal(t, LegendTCP, l.Kind)
	assert.True(t, l.Dimmed)
	assert.Empty(t, l.Active)

	l = LegendFor(frame(scenario.Inbound, scenario.TCP, scenario.FlagRST, scenario.FlagACK))
	assert.Equal(t, []string{"RST", "ACK"}, l.Active)

	udp, err := catalog.MustBuiltin().Definition(scenario.ScanUDP)
	require.NoError(t, err)
	assert.Equal(t, LegendProtocol, LegendForScan(udp).Kind)
}

func TestBadgeText(t *testing.T) {
	assert.Equal(t, "Open", BadgeText(scenario.BadgeOpen))
	assert.Equal(t, "Closed", BadgeText(scenario.BadgeClosed))
	assert.Equal(t, "Open / Filtered / Unknown", BadgeText(scenario.BadgeOpenOrFiltered))
	assert.Equal(t, "–", BadgeText(scenario.BadgeNone))

	p := PaletteFor(ThemeLight)
	assert.Equal(t, p.Good, p.BadgeColor(scenario.BadgeOpen).Hex)
	assert.Equal(t, p.Bad, p.BadgeColor(scenario.BadgeClosed).Hex)
}

func TestTheme(t *testing.T) {
	theme, ok := ParseTheme("LIGHT")
	assert.True(t, ok)
	assert.Equal(t, ThemeLight, theme)

	theme, ok = ParseTheme("solarized")
	assert.False(t, ok)
	assert.Equal(t, ThemeDark, theme)

	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())
	assert.NotEqual(t, PaletteFor(ThemeDark), PaletteFor(ThemeLight))
}

func TestPresent(t *testing.T) {
	f := frame(scenario.Outbound, scenario.TCP, scenario.FlagSYN)
	fp := PaletteFor(DefaultTheme).Present(2, f)

	assert.Equal(t, 2, fp.Index)
	assert.Equal(t, "SYN", fp.Label)
	assert.Equal(t, "#5aa9ff", fp.Color.Hex)
	assert.Equal(t, LegendTCP, fp.Legend.Kind)
}

func TestTerminalSink(t *testing.T) {
	var buf bytes.Buffer
	c := catalog.MustBuiltin()
	term := NewTerminal(&buf, ThemeDark, WithColor(false), WithPort(443), WithScanNames(c.List()))

	s, _, err := c.Scenario(scenario.ScanTCPSYN, scenario.PortClosed)
	require.NoError(t, err)

	term.Handle(player.Event{Type: player.EventStarted, ScanType: scenario.ScanTCPSYN, PortState: scenario.PortClosed, Speed: 2, Total: 2})
	for i := range s.Frames {
		term.Handle(player.Event{Type: player.EventFrameBegin, Index: i, Total: 2, Frame: &s.Frames[i]})
		term.Handle(player.Event{Type: player.EventFrameEnd, Index: i, Total: 2, Frame: &s.Frames[i]})
	}
	term.Handle(player.Event{Type: player.EventJudgement, Judgement: s.Judgement, Badge: s.Judgement.Badge()})

	out := buf.String()
	assert.Contains(t, out, "▶ TCP SYN (half-open)  port 443  (closed)  speed 2x")
	assert.Contains(t, out, "1/2 [SYN] [TCP] → SYN : Send SYN")
	assert.Contains(t, out, "2/2 [RST+ACK] [TCP] ← RST+ACK")
	assert.Contains(t, out, "Judgement: Closed (Closed)")
	assert.NotContains(t, out, "\x1b[")

	buf.Reset()
	term.Handle(player.Event{Type: player.EventStopped, Index: 0, Total: 2})
	assert.Equal(t, "■ stopped at frame 1/2\n", buf.String())
}

func TestDescribe(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = saved }()

	c := catalog.MustBuiltin()
	def, err := c.Definition(scenario.ScanFIN)
	require.NoError(t, err)
	s, state, err := c.Scenario(scenario.ScanFIN, scenario.PortOpen)
	require.NoError(t, err)

	var buf bytes.Buffer
	Describe(&buf, def, s, state, 2500*time.Millisecond)
	out := buf.String()

	for _, want := range []string{
		"FIN  [TCP, open port]",
		"1. [TCP] → FIN : Send FIN",
		"2. [TCP] … NULL : No response",
		"Expected judgement: Open/Filtered  (Open / Filtered / Unknown)",
		"Duration at this speed: 2.5s",
		"IDS detectability: LOW",
		"Evasion",
		"Comment: ",
	} {
		assert.Contains(t, out, want)
	}
}
