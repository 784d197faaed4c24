// Package metrics exposes playback, database and API metrics.
package metrics

import "time"

//go:generate mockgen -destination=mocks/mock_recorder.go -package=mocks github.com/anstrom/scanviz/internal/metrics Recorder

// Recorder defines the metrics emitted by the application. It is an
// interface so handlers and sinks can be tested with a mock.
type Recorder interface {
	// PlaybackStarted counts a new playback session.
	PlaybackStarted(scanType, portState string)

	// PlaybackFinished records how a session ended and how long it ran.
	PlaybackFinished(scanType, outcome string, duration time.Duration)

	// FrameShown counts a rendered packet.
	FrameShown(scanType, protocol string)

	// ActionRejected counts a control action refused during playback.
	ActionRejected(action string)

	// HTTPRequest records a served API request.
	HTTPRequest(method, path string, status int, duration time.Duration)

	// ObserveQuery records a repository query.
	ObserveQuery(operation string, duration time.Duration, err error)
}

// Ensure that PrometheusMetrics implements Recorder.
var _ Recorder = (*PrometheusMetrics)(nil)

// Nop discards all metrics.
type Nop struct{}

func (Nop) PlaybackStarted(string, string) {}
func (Nop) PlaybackFinished(string, string, time.Duration) {}
func (Nop) FrameShown(string, string) {}
func (Nop) ActionRejected(string) {}
func (Nop) HTTPRequest(string, string, int, time.Duration) {}
func (Nop) ObserveQuery(string, time.Duration, error) {}
