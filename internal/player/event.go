package player

import (
	"time"

	"github.com/anstrom/scanviz/internal/scenario"
)

// EventType identifies a playback notification.
type EventType string

const (
	EventStarted    EventType = "started"
	EventFrameBegin EventType = "frame_begin"
	EventFrameEnd   EventType = "frame_end"
	EventJudgement  EventType = "judgement"
	EventStopped    EventType = "stopped"
)

// Event is a single playback notification. Frame is set for frame events,
// Judgement and Badge for the judgement event.
type Event struct {
	Type      EventType          `json:"type"`
	SessionID string             `json:"session_id"`
	ScanType  scenario.ScanType  `json:"scan_type,omitempty"`
	PortState scenario.PortState `json:"port_state,omitempty"`
	Speed     float64            `json:"speed"`
	Port      int                `json:"port,omitempty"`
	Index     int                `json:"index"`
	Total     int                `json:"total"`
	Frame     *scenario.Frame    `json:"frame,omitempty"`
	Judgement scenario.Judgement `json:"judgement,omitempty"`
	Badge     scenario.Badge     `json:"badge,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

//go:generate mockgen -destination=mocks/mock_sink.go -package=mocks github.com/anstrom/scanviz/internal/player Sink

// Sink receives playback events. Handle is called on the playback goroutine,
// one event at a time. It must not call Start or Stop on the emitting player.
type Sink interface {
	Handle(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Handle calls f(e).
func (f SinkFunc) Handle(e Event) {
	f(e)
}

// Sinks fans an event out to every member in order.
type Sinks []Sink

// Handle forwards e to each non-nil sink.
func (s Sinks) Handle(e Event) {
	for _, sink := range s {
		if sink != nil {
			sink.Handle(e)
		}
	}
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})
