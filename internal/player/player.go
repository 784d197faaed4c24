// Package player plays a scripted frame sequence as a cancellable,
// speed-adjustable, strictly ordered series of notifications.
//
// Every phase of a frame and the gap between frames is a suspension point.
// Cancellation is checked at each one: once Stop returns, the session has
// emitted its single stopped event and no frame event will follow.
package player

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anstrom/scanviz/internal/logging"
	"github.com/anstrom/scanviz/internal/scenario"
)

// Request describes one playback.
type Request struct {
	ScanType  scenario.ScanType
	PortState scenario.PortState
	Scenario  scenario.Scenario
	Speed     float64
	// Port is the cosmetic target port carried on events.
	Port int
	// Sink, when set, receives this session's events after the player's sink.
	Sink Sink
}

// Player runs at most one session at a time.
type Player struct {
	// startMu serializes Start and Stop so that sessions never overlap.
	startMu sync.Mutex

	mu     sync.Mutex
	active *Session

	timing Timing
	sleep  SleepFunc
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Player.
type Option func(*Player)

// WithTiming overrides the phase durations.
func WithTiming(t Timing) Option {
	return func(p *Player) { p.timing = t }
}

// WithSleep replaces the suspension primitive. Tests use it to drive
// playback without waiting.
func WithSleep(fn SleepFunc) Option {
	return func(p *Player) { p.sleep = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// WithClock sets the timestamp source for events and results.
func WithClock(now func() time.Time) Option {
	return func(p *Player) { p.now = now }
}

// New creates an idle player that delivers events to sink.
func New(sink Sink, opts ...Option) *Player {
	if sink == nil {
		sink = Discard
	}
	p := &Player{
		timing: DefaultTiming(),
		sleep:  Sleep,
		sink:   sink,
		logger: logging.Component("player"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Timing returns the configured phase durations.
func (p *Player) Timing() Timing {
	return p.timing
}

// State reports StatePlaying while a session is active, StateIdle otherwise.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil {
		return StatePlaying
	}
	return StateIdle
}

// Active returns the running session, or nil when idle.
func (p *Player) Active() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Start begins playing req in the background. A session that is already
// active is stopped first and has fully ended before the new one emits
// anything. The started event is delivered before Start returns; frames
// follow on the playback goroutine. Cancelling ctx stops the session the
// same way Stop does.
func (p *Player) Start(ctx context.Context, req Request) (*Session, error) {
	if err := scenario.ValidateSpeed(req.Speed); err != nil {
		return nil, err
	}
	if err := req.Scenario.Validate(); err != nil {
		return nil, err
	}

	p.startMu.Lock()
	defer p.startMu.Unlock()

	if p.stopActive() {
		p.logger.Debug("Restarting playback", "scan_type", req.ScanType)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:        uuid.New().String(),
		ScanType:  req.ScanType,
		PortState: req.PortState,
		Speed:     req.Speed,
		Port:      req.Port,
		Total:     len(req.Scenario.Frames),
		Judgement: req.Scenario.Judgement,
		StartedAt: p.now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		index:     -1,
	}
	s.logger = logging.Session(p.logger, s.ID, string(s.ScanType))

	p.mu.Lock()
	p.active = s
	p.mu.Unlock()

	sink := p.sink
	if req.Sink != nil {
		sink = Sinks{p.sink, req.Sink}
	}

	s.logger.Info("Playback started",
		"port_state", s.PortState,
		"speed", s.Speed,
		"frames", s.Total)

	sink.Handle(p.event(s, EventStarted, -1, nil))
	go p.run(runCtx, s, req.Scenario.Frames, sink)
	return s, nil
}

// Play runs req to completion or cancellation and returns the result.
func (p *Player) Play(ctx context.Context, req Request) (Result, error) {
	s, err := p.Start(ctx, req)
	if err != nil {
		return Result{}, err
	}
	return s.Wait(), nil
}

// Stop cancels the active session and waits for it to end. It reports
// whether a session was stopped; stopping an idle player is a no-op.
func (p *Player) Stop() bool {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	return p.stopActive()
}

// stopActive must be called with startMu held.
func (p *Player) stopActive() bool {
	p.mu.Lock()
	s := p.active
	p.mu.Unlock()
	if s == nil {
		return false
	}

	s.cancel()
	<-s.done
	return s.Result().Outcome == StateStopped
}

func (p *Player) run(ctx context.Context, s *Session, frames []scenario.Frame, sink Sink) {
	defer close(s.done)
	defer p.release(s)
	defer s.cancel()

	for i := range frames {
		if i > 0 {
			if err := p.sleep(ctx, Scale(p.timing.Gap, s.Speed)); err != nil {
				p.stopped(s, sink)
				return
			}
		}

		frame := frames[i]
		s.setIndex(i)
		sink.Handle(p.event(s, EventFrameBegin, i, &frame))

		for _, d := range p.timing.phases(frame, s.Speed) {
			if err := p.sleep(ctx, d); err != nil {
				p.stopped(s, sink)
				return
			}
		}

		s.frameShown(i)
		sink.Handle(p.event(s, EventFrameEnd, i, &frame))
	}

	if ctx.Err() != nil {
		p.stopped(s, sink)
		return
	}

	s.finish(StateCompleted, p.now())
	e := p.event(s, EventJudgement, len(frames)-1, nil)
	e.Judgement = s.Judgement
	e.Badge = s.Judgement.Badge()
	sink.Handle(e)

	s.logger.Info("Playback completed", "judgement", s.Judgement)
}

func (p *Player) stopped(s *Session, sink Sink) {
	s.finish(StateStopped, p.now())
	sink.Handle(p.event(s, EventStopped, s.Info().Index, nil))

	s.logger.Info("Playback stopped", "frames_shown", s.Result().FramesShown)
}

func (p *Player) release(s *Session) {
	p.mu.Lock()
	if p.active == s {
		p.active = nil
	}
	p.mu.Unlock()
}

func (p *Player) event(s *Session, t EventType, index int, f *scenario.Frame) Event {
	return Event{
		Type:      t,
		SessionID: s.ID,
		ScanType:  s.ScanType,
		PortState: s.PortState,
		Speed:     s.Speed,
		Port:      s.Port,
		Index:     index,
		Total:     s.Total,
		Frame:     f,
		Timestamp: p.now(),
	}
}
