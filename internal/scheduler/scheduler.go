// Package scheduler runs unattended playback. On a cron schedule it rotates
// through scan types and port states, and it prunes old playback history.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/anstrom/scanviz/internal/errors"
	"github.com/anstrom/scanviz/internal/logging"
	"github.com/anstrom/scanviz/internal/player"
	"github.com/anstrom/scanviz/internal/scenario"
)

const (
	pruneSchedule = "@hourly"
	pruneTimeout  = 30 * time.Second
)

// Playback is the part of the controller the scheduler drives. PlayIfIdle
// must check for an active session and start a new one atomically.
type Playback interface {
	PlayIfIdle(scanType, portState string) (*player.Session, error)
}

// Pruner deletes history older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Slot is one step of the autoplay rotation.
type Slot struct {
	ScanType  scenario.ScanType  `json:"scan_type"`
	PortState scenario.PortState `json:"port_state"`
}

// Config configures autoplay.
type Config struct {
	// Standard five-field cron expression
	Schedule   string
	ScanTypes  []scenario.ScanType
	PortStates []scenario.PortState
}

// Status describes the scheduler for the API.
type Status struct {
	Running  bool      `json:"running"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next_run,omitempty"`
	LastRun  time.Time `json:"last_run,omitempty"`
	NextSlot Slot      `json:"next_slot"`
	Slots    int       `json:"slots"`
}

// Scheduler manages the autoplay and pruning jobs.
type Scheduler struct {
	playback Playback
	cron     *cron.Cron
	schedule string
	rotation []Slot
	logger   *slog.Logger

	pruner    Pruner
	retention time.Duration
	now       func() time.Time

	mu       sync.Mutex
	next     int
	lastRun  time.Time
	running  bool
	autoplay cron.EntryID
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPruner enables hourly deletion of history older than retention.
func WithPruner(p Pruner, retention time.Duration) Option {
	return func(s *Scheduler) {
		s.pruner = p
		s.retention = retention
	}
}

// WithClock sets the time source used for pruning cutoffs.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New validates cfg and creates a stopped scheduler. Empty scan types mean
// every type in ids; empty port states mean open then closed.
func New(playback Playback, cfg Config, ids []scenario.ScanType, opts ...Option) (*Scheduler, error) {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	scanTypes := cfg.ScanTypes
	if len(scanTypes) == 0 {
		scanTypes = ids
	}
	states := cfg.PortStates
	if len(states) == 0 {
		states = scenario.PortStates
	}
	if len(scanTypes) == 0 {
		return nil, fmt.Errorf("autoplay needs at least one scan type")
	}

	rotation := make([]Slot, 0, len(scanTypes)*len(states))
	for _, id := range scanTypes {
		for _, state := range states {
			rotation = append(rotation, Slot{ScanType: id, PortState: state})
		}
	}

	s := &Scheduler{
		playback: playback,
		cron:     cron.New(),
		schedule: cfg.Schedule,
		rotation: rotation,
		logger:   logging.Component("scheduler"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Rotation returns the autoplay slots in order.
func (s *Scheduler) Rotation() []Slot {
	return append([]Slot(nil), s.rotation...)
}

// Start begins the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	// Entries are re-added on every start.
	s.cron = cron.New()
	id, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce() })
	if err != nil {
		return fmt.Errorf("failed to add autoplay job: %w", err)
	}
	s.autoplay = id

	if s.pruner != nil && s.retention > 0 {
		if _, err := s.cron.AddFunc(pruneSchedule, s.prune); err != nil {
			return fmt.Errorf("failed to add prune job: %w", err)
		}
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started", "schedule", s.schedule, "slots", len(s.rotation))
	return nil
}

// Stop stops the scheduler and waits for a running job to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunOnce plays the next rotation slot. A session started by the user is
// left alone and the slot is retried on the next tick. It reports whether
// playback was started.
func (s *Scheduler) RunOnce() bool {
	s.mu.Lock()
	slot := s.rotation[s.next]
	s.mu.Unlock()

	session, err := s.playback.PlayIfIdle(string(slot.ScanType), string(slot.PortState))
	switch {
	case errors.IsCode(err, errors.CodePlaybackActive):
		s.logger.Debug("Playback active, skipping autoplay tick")
		return false
	case errors.IsCode(err, errors.CodeUnknownScanType):
		s.logger.Error("Autoplay scan selection failed", "scan_type", slot.ScanType, "error", err)
		s.advance()
		return false
	case err != nil:
		s.logger.Error("Autoplay start failed", "scan_type", slot.ScanType, "error", err)
		return false
	}

	s.advance()
	s.logger.Info("Autoplay started",
		"session_id", session.ID,
		"scan_type", slot.ScanType,
		"port_state", slot.PortState)
	return true
}

func (s *Scheduler) advance() {
	s.mu.Lock()
	s.next = (s.next + 1) % len(s.rotation)
	s.lastRun = s.now()
	s.mu.Unlock()
}

func (s *Scheduler) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	n, err := s.pruner.Prune(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to prune playback history", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("Pruned playback history", "deleted", n, "before", cutoff)
	}
}

// Status reports the schedule and the next slot.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:  s.running,
		Schedule: s.schedule,
		LastRun:  s.lastRun,
		NextSlot: s.rotation[s.next],
		Slots:    len(s.rotation),
	}
	if s.running {
		st.Next = s.cron.Entry(s.autoplay).Next
	}
	return st
}
