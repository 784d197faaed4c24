// Package controller owns the user's current selection and maps user
// actions onto the catalog and the player.
package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/anstrom/scanviz/internal/catalog"
	"github.com/anstrom/scanviz/internal/errors"
	"github.com/anstrom/scanviz/internal/logging"
	"github.com/anstrom/scanviz/internal/metrics"
	"github.com/anstrom/scanviz/internal/player"
	"github.com/anstrom/scanviz/internal/scenario"
)

// Selection is the user's current choice of what to play.
type Selection struct {
	ScanType  scenario.ScanType  `json:"scan_type" yaml:"scan_type"`
	PortState scenario.PortState `json:"port_state" yaml:"port_state"`
	Speed     float64            `json:"speed" yaml:"speed"`
	Port      int                `json:"port" yaml:"port"`
}

// DefaultSelection is the state on startup and after Reset.
func DefaultSelection() Selection {
	return Selection{
		ScanType:  scenario.DefaultScanType,
		PortState: scenario.DefaultPortState,
		Speed:     scenario.DefaultSpeed,
		Port:      scenario.DefaultPort,
	}
}

// Preview is what an idle view shows for the current selection: the
// resolved scenario with an empty badge and the expected play time.
type Preview struct {
	Selection  Selection                `json:"selection"`
	Definition *scenario.ScanDefinition `json:"definition"`
	Scenario   scenario.Scenario        `json:"scenario"`
	Badge      scenario.Badge           `json:"badge"`
	Estimate   time.Duration            `json:"estimate_ns"`
}

// Status reports the selection and the player state.
type Status struct {
	Selection Selection    `json:"selection"`
	State     player.State `json:"state"`
	Session   *player.Info `json:"session,omitempty"`
}

// Controller serializes every user action.
type Controller struct {
	mu sync.Mutex

	catalog  catalog.Source
	player   *player.Player
	logger   *slog.Logger
	recorder metrics.Recorder
	defaults Selection
	sel      Selection

	// ctx parents every playback session; cancelling it stops playback.
	ctx  context.Context
	sink player.Sink
}

// Option configures a Controller.
type Option func(*Controller)

// WithDefaults replaces DefaultSelection as the startup and reset state.
func WithDefaults(s Selection) Option {
	return func(c *Controller) { c.defaults = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithRecorder counts rejected actions.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithContext sets the parent context of playback sessions.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.ctx = ctx }
}

// WithSessionSink attaches a sink to every session the controller starts.
func WithSessionSink(s player.Sink) Option {
	return func(c *Controller) { c.sink = s }
}

// New creates a controller in the default selection.
func New(src catalog.Source, p *player.Player, opts ...Option) *Controller {
	c := &Controller{
		catalog:  src,
		player:   p,
		logger:   logging.Component("controller"),
		recorder: metrics.Nop{},
		defaults: DefaultSelection(),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.defaults = c.sanitize(c.defaults)
	c.sel = c.defaults
	return c
}

// sanitize replaces every invalid field of s with its built-in default.
func (c *Controller) sanitize(s Selection) Selection {
	def := DefaultSelection()
	if _, err := c.catalog.Definition(s.ScanType); err != nil {
		c.logger.Warn("Invalid default scan type, using built-in default", "scan_type", s.ScanType)
		s.ScanType = def.ScanType
	}
	if state, ok := scenario.ParsePortState(string(s.PortState)); ok {
		s.PortState = state
	} else {
		s.PortState = def.PortState
	}
	if scenario.ValidateSpeed(s.Speed) != nil {
		s.Speed = def.Speed
	}
	s.Port = scenario.CoercePortNumber(s.Port)
	return s
}

// Selection returns the current selection.
func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// Status returns the selection and, while playing, the session progress.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	st := Status{Selection: c.sel, State: player.StateIdle}
	if s := c.player.Active(); s != nil {
		info := s.Info()
		st.State = player.StatePlaying
		st.Session = &info
	}
	return st
}

// Preview resolves the current selection without playing it.
func (c *Controller) Preview() (Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previewLocked()
}

func (c *Controller) previewLocked() (Preview, error) {
	def, err := c.catalog.Definition(c.sel.ScanType)
	if err != nil {
		return Preview{}, err
	}
	s, resolved, err := c.catalog.Scenario(c.sel.ScanType, c.sel.PortState)
	if err != nil {
		return Preview{}, err
	}
	sel := c.sel
	sel.PortState = resolved
	return Preview{
		Selection:  sel,
		Definition: def,
		Scenario:   s,
		Badge:      scenario.BadgeNone,
		Estimate:   c.player.Timing().Estimate(s.Frames, sel.Speed),
	}, nil
}

// SelectScan switches the scan type. An unknown id is rejected and leaves
// the selection and any playback untouched; a valid one stops playback.
func (c *Controller) SelectScan(raw string) (Preview, error) {
	id := scenario.ParseScanType(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.catalog.Definition(id); err != nil {
		c.logger.Warn("Rejected scan selection", "scan_type", raw)
		return Preview{}, err
	}
	c.stopLocked()
	c.sel.ScanType = id
	return c.previewLocked()
}

// SelectPortState switches the simulated port state. It is rejected while
// playing. An unrecognized state falls back to open.
func (c *Controller) SelectPortState(raw string) (Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player.State() == player.StatePlaying {
		return Preview{}, c.reject("select_port_state")
	}
	state, ok := scenario.ParsePortState(raw)
	if !ok {
		c.logger.Warn("Invalid port state, falling back to default",
			"port_state", raw, "default", state)
	}
	c.sel.PortState = state
	return c.previewLocked()
}

// SetSpeed changes the playback speed. It is rejected while playing; an
// invalid value is rejected and the previous speed is kept.
func (c *Controller) SetSpeed(v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player.State() == player.StatePlaying {
		return c.reject("set_speed")
	}
	if err := scenario.ValidateSpeed(v); err != nil {
		c.logger.Warn("Rejected speed", "speed", v)
		return err
	}
	c.sel.Speed = v
	return nil
}

// SetSpeedString parses raw and applies it with SetSpeed.
func (c *Controller) SetSpeedString(raw string) error {
	v, err := scenario.ParseSpeed(raw)
	if err != nil {
		c.logger.Warn("Rejected speed", "speed", raw)
		return err
	}
	return c.SetSpeed(v)
}

// SetPort sets the cosmetic port number, coercing invalid input to the
// default port. Like any selection change it stops playback.
func (c *Controller) SetPort(raw string) int {
	port := scenario.CoercePort(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.sel.Port = port
	return port
}

// Start plays the current selection, restarting any active session.
func (c *Controller) Start() (*player.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked()
}

// PlayIfIdle selects scanType and portState and starts playback in one step.
// While a session is playing it returns PLAYBACK_ACTIVE and changes nothing;
// an unknown scan type is rejected the same way SelectScan rejects it.
func (c *Controller) PlayIfIdle(scanType, portState string) (*player.Session, error) {
	id := scenario.ParseScanType(scanType)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player.State() == player.StatePlaying {
		return nil, errors.ErrPlaybackActive("play_if_idle")
	}
	if _, err := c.catalog.Definition(id); err != nil {
		c.logger.Warn("Rejected scan selection", "scan_type", scanType)
		return nil, err
	}
	state, ok := scenario.ParsePortState(portState)
	if !ok {
		c.logger.Warn("Invalid port state, falling back to default",
			"port_state", portState, "default", state)
	}
	c.sel.ScanType = id
	c.sel.PortState = state
	return c.startLocked()
}

func (c *Controller) startLocked() (*player.Session, error) {
	s, resolved, err := c.catalog.Scenario(c.sel.ScanType, c.sel.PortState)
	if err != nil {
		return nil, err
	}
	return c.player.Start(c.ctx, player.Request{
		ScanType:  c.sel.ScanType,
		PortState: resolved,
		Scenario:  s,
		Speed:     c.sel.Speed,
		Port:      c.sel.Port,
		Sink:      c.sink,
	})
}

// Stop stops playback. It reports whether a session was stopped.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *Controller) stopLocked() bool {
	return c.player.Stop()
}

// TogglePlay stops playback when playing and starts it when idle.
func (c *Controller) TogglePlay() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player.State() == player.StatePlaying {
		c.stopLocked()
		return c.statusLocked(), nil
	}
	if _, err := c.startLocked(); err != nil {
		return c.statusLocked(), err
	}
	return c.statusLocked(), nil
}

// Reset stops playback and restores the default selection.
func (c *Controller) Reset() (Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.sel = c.defaults
	return c.previewLocked()
}

func (c *Controller) reject(action string) error {
	c.logger.Warn("Rejected action during playback", "action", action)
	c.recorder.ActionRejected(action)
	return errors.ErrPlaybackActive(action)
}
