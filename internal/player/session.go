package player

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/anstrom/scanviz/internal/scenario"
)

// State is a player or session lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StatePlaying   State = "playing"
	StateCompleted State = "completed"
	StateStopped   State = "stopped"
)

// Session is one playback run. It is created by Player.Start and owned by
// the player; callers only observe it.
type Session struct {
	ID        string
	ScanType  scenario.ScanType
	PortState scenario.PortState
	Speed     float64
	Port      int
	Total     int
	Judgement scenario.Judgement
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger

	mu      sync.Mutex
	index   int
	shown   int
	outcome State
	endedAt time.Time
}

// Info is a point-in-time view of a session.
type Info struct {
	ID        string             `json:"id"`
	ScanType  scenario.ScanType  `json:"scan_type"`
	PortState scenario.PortState `json:"port_state"`
	Speed     float64            `json:"speed"`
	Port      int                `json:"port"`
	Index     int                `json:"index"`
	Total     int                `json:"total"`
	State     State              `json:"state"`
	StartedAt time.Time          `json:"started_at"`
}

// Result describes how a session ended.
type Result struct {
	SessionID   string             `json:"session_id"`
	ScanType    scenario.ScanType  `json:"scan_type"`
	PortState   scenario.PortState `json:"port_state"`
	Speed       float64            `json:"speed"`
	Port        int                `json:"port"`
	Outcome     State              `json:"outcome"`
	FramesShown int                `json:"frames_shown"`
	Total       int                `json:"total"`
	Judgement   scenario.Judgement `json:"judgement,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	EndedAt     time.Time          `json:"ended_at"`
}

// Duration is the wall-clock length of the session.
func (r Result) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Done is closed once the session has ended and the player is idle again.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session ends and returns its result.
func (s *Session) Wait() Result {
	<-s.done
	return s.Result()
}

// Info returns the current progress of the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := StatePlaying
	if s.outcome != "" {
		state = s.outcome
	}
	return Info{
		ID:        s.ID,
		ScanType:  s.ScanType,
		PortState: s.PortState,
		Speed:     s.Speed,
		Port:      s.Port,
		Index:     s.index,
		Total:     s.Total,
		State:     state,
		StartedAt: s.StartedAt,
	}
}

// Result returns the outcome so far. Outcome is empty while playing.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Result{
		SessionID:   s.ID,
		ScanType:    s.ScanType,
		PortState:   s.PortState,
		Speed:       s.Speed,
		Port:        s.Port,
		Outcome:     s.outcome,
		FramesShown: s.shown,
		Total:       s.Total,
		StartedAt:   s.StartedAt,
		EndedAt:     s.endedAt,
	}
	if s.outcome == StateCompleted {
		r.Judgement = s.Judgement
	}
	return r
}

func (s *Session) setIndex(i int) {
	s.mu.Lock()
	s.index = i
	s.mu.Unlock()
}

func (s *Session) frameShown(i int) {
	s.mu.Lock()
	s.shown = i + 1
	s.mu.Unlock()
}

func (s *Session) finish(outcome State, at time.Time) {
	s.mu.Lock()
	s.outcome = outcome
	s.endedAt = at
	s.mu.Unlock()
}
