package services

import (
	"sync"
	"time"

	"github.com/anstrom/scanviz/internal/metrics"
	"github.com/anstrom/scanviz/internal/player"
)

// MetricsSink is a player sink that reports playback to a metrics recorder.
type MetricsSink struct {
	recorder metrics.Recorder

	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetricsSink creates a sink reporting to recorder.
func NewMetricsSink(recorder metrics.Recorder) *MetricsSink {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &MetricsSink{recorder: recorder, started: make(map[string]time.Time)}
}

// Handle implements player.Sink.
func (m *MetricsSink) Handle(e player.Event) {
	scanType := string(e.ScanType)

	switch e.Type {
	case player.EventStarted:
		m.mu.Lock()
		m.started[e.SessionID] = e.Timestamp
		m.mu.Unlock()
		m.recorder.PlaybackStarted(scanType, string(e.PortState))
	case player.EventFrameEnd:
		if e.Frame != nil {
			m.recorder.FrameShown(scanType, string(e.Frame.Protocol))
		}
	case player.EventJudgement:
		m.finish(e, string(player.StateCompleted))
	case player.EventStopped:
		m.finish(e, string(player.StateStopped))
	}
}

func (m *MetricsSink) finish(e player.Event, outcome string) {
	m.mu.Lock()
	start, ok := m.started[e.SessionID]
	delete(m.started, e.SessionID)
	m.mu.Unlock()

	var d time.Duration
	if ok {
		d = e.Timestamp.Sub(start)
	}
	m.recorder.PlaybackFinished(string(e.ScanType), outcome, d)
}
