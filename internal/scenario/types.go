// Package scenario defines the data model shared by the catalog, the player
// and every presentation layer: scan definitions, scripted packet frames,
// judgements and the badge states they map to.
package scenario

import (
	"strings"
)

// ScanType identifies a scan technique.
type ScanType string

const (
	ScanTCPConnect ScanType = "tcp-connect"
	ScanTCPSYN     ScanType = "tcp-syn"
	ScanFIN        ScanType = "fin"
	ScanNULL       ScanType = "null"
	ScanXmas       ScanType = "xmas"
	ScanUDP        ScanType = "udp"
)

// ScanTypes lists the built-in scan types in display order.
var ScanTypes = []ScanType{ScanTCPConnect, ScanTCPSYN, ScanFIN, ScanNULL, ScanXmas, ScanUDP}

// DefaultScanType is selected on startup and after a reset.
const DefaultScanType = ScanTCPConnect

// PortState is the simulated ground truth used to pick a scenario.
type PortState string

const (
	PortOpen   PortState = "open"
	PortClosed PortState = "closed"
)

// DefaultPortState is used whenever a port state is missing or invalid.
const DefaultPortState = PortOpen

// PortStates lists the valid port states.
var PortStates = []PortState{PortOpen, PortClosed}

// Direction is the travel direction of a frame.
type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
	Timeout  Direction = "timeout"
)

// Arrow returns the timeline glyph for the direction.
func (d Direction) Arrow() string {
	switch d {
	case Outbound:
		return "→"
	case Inbound:
		return "←"
	default:
		return "…"
	}
}

// Protocol is the protocol tag of a frame or scan definition.
type Protocol string

const (
	TCP  Protocol = "TCP"
	UDP  Protocol = "UDP"
	ICMP Protocol = "ICMP"
)

// Flag is a TCP control flag.
type Flag string

const (
	FlagSYN Flag = "SYN"
	FlagACK Flag = "ACK"
	FlagFIN Flag = "FIN"
	FlagPSH Flag = "PSH"
	FlagURG Flag = "URG"
	FlagRST Flag = "RST"
)

// Flags is the fixed flag vocabulary in legend order.
var Flags = []Flag{FlagSYN, FlagACK, FlagFIN, FlagPSH, FlagURG, FlagRST}

// Frame is one directional packet exchange event.
// A TCP frame without flags is a NULL probe.
type Frame struct {
	Direction   Direction `yaml:"dir" json:"direction" validate:"required,oneof=outbound inbound timeout"`
	Protocol    Protocol  `yaml:"proto" json:"protocol" validate:"required,oneof=TCP UDP ICMP"`
	Flags       []Flag    `yaml:"flags,omitempty" json:"flags,omitempty" validate:"omitempty,min=1,unique,dive,oneof=SYN ACK FIN PSH URG RST"`
	ICMPType    string    `yaml:"icmp_type,omitempty" json:"icmp_type,omitempty"`
	Description string    `yaml:"desc" json:"description" validate:"required"`
}

// HasFlag reports whether the frame carries f.
func (f Frame) HasFlag(flag Flag) bool {
	for _, candidate := range f.Flags {
		if candidate == flag {
			return true
		}
	}
	return false
}

// FlagString joins the flags with "+", or returns "" when there are none.
func (f Frame) FlagString() string {
	parts := make([]string, len(f.Flags))
	for i, flag := range f.Flags {
		parts[i] = string(flag)
	}
	return strings.Join(parts, "+")
}

// Judgement is the inferred port state a technique reports.
type Judgement string

const (
	JudgementOpen         Judgement = "Open"
	JudgementClosed       Judgement = "Closed"
	JudgementOpenFiltered Judgement = "Open/Filtered"
)

// Badge is the presentation state derived from a judgement.
type Badge string

const (
	BadgeNone           Badge = "none"
	BadgeOpen           Badge = "open"
	BadgeClosed         Badge = "closed"
	BadgeOpenOrFiltered Badge = "open_or_filtered"
)

// Badge maps the judgement to its badge state. Exact "Open" and "Closed"
// match first; any other judgement mentioning Open or Filtered is ambiguous.
func (j Judgement) Badge() Badge {
	s := string(j)
	switch {
	case s == string(JudgementOpen):
		return BadgeOpen
	case s == string(JudgementClosed):
		return BadgeClosed
	case strings.Contains(s, "Open") || strings.Contains(s, "Filtered"):
		return BadgeOpenOrFiltered
	default:
		return BadgeNone
	}
}

// Scenario is the ordered frame sequence and terminal judgement for one
// (scan type, port state) pair.
type Scenario struct {
	Frames    []Frame   `yaml:"frames" json:"frames" validate:"required,min=1,dive"`
	Judgement Judgement `yaml:"judgement" json:"judgement" validate:"required"`
}

// Summary lists the practical trade-offs of a technique.
type Summary struct {
	Pros []string `yaml:"pros" json:"pros"`
	Cons []string `yaml:"cons" json:"cons"`
}

// Detectability is a qualitative IDS visibility rating.
type Detectability string

const (
	DetectHigh   Detectability = "high"
	DetectMedium Detectability = "medium"
	DetectLow    Detectability = "low"
)

// IDSInfo describes how intrusion detection systems perceive a technique.
type IDSInfo struct {
	Detectability Detectability `yaml:"detectability" json:"detectability" validate:"required,oneof=high medium low"`
	Signatures    []string      `yaml:"signatures" json:"signatures"`
	Evasion       []string      `yaml:"evasion" json:"evasion"`
	Comments      string        `yaml:"comments" json:"comments"`
}

// ScanDefinition is the immutable description of one scan technique.
type ScanDefinition struct {
	ID        ScanType               `yaml:"id" json:"id" validate:"required"`
	Name      string                 `yaml:"name" json:"name" validate:"required"`
	Protocol  Protocol               `yaml:"proto" json:"protocol" validate:"required,oneof=TCP UDP"`
	Scenarios map[PortState]Scenario `yaml:"scenarios" json:"scenarios" validate:"required,dive,keys,oneof=open closed,endkeys"`
	Summary   Summary                `yaml:"summary" json:"summary"`
	IDS       IDSInfo                `yaml:"ids" json:"ids"`
}

// Scenario returns the scenario for state, falling back to DefaultPortState
// when state has no scripted scenario.
func (d *ScanDefinition) Scenario(state PortState) (Scenario, PortState, bool) {
	if s, ok := d.Scenarios[state]; ok {
		return s, state, true
	}
	s, ok := d.Scenarios[DefaultPortState]
	return s, DefaultPortState, ok
}
