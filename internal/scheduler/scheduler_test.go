package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanviz/internal/catalog"
	"github.com/anstrom/scanviz/internal/controller"
	"github.com/anstrom/scanviz/internal/errors"
	"github.com/anstrom/scanviz/internal/logging"
	"github.com/anstrom/scanviz/internal/player"
	"github.com/anstrom/scanviz/internal/scenario"
)

func instantSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func blockingSleep(ctx context.Context, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

type startLog struct {
	mu    sync.Mutex
	slots []Slot
}

func (l *startLog) Handle(e player.Event) {
	if e.Type != player.EventStarted {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slots = append(l.slots, Slot{ScanType: e.ScanType, PortState: e.PortState})
}

func (l *startLog) all() []Slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Slot(nil), l.slots...)
}

func newController(t *testing.T, sleep player.SleepFunc) (*controller.Controller, *startLog) {
	t.Helper()
	log := &startLog{}
	p := player.New(log, player.WithSleep(sleep), player.WithLogger(logging.Discard()))
	c := controller.New(catalog.MustBuiltin(), p, controller.WithLogger(logging.Discard()))
	t.Cleanup(func() { c.Stop() })
	return c, log
}

func TestNewBuildsRotation(t *testing.T) {
	c, _ := newController(t, instantSleep)

	s, err := New(c, Config{Schedule: "*/5 * * * *"}, scenario.ScanTypes)
	require.NoError(t, err)
	rotation := s.Rotation()
	require.Len(t, rotation, len(scenario.ScanTypes)*2)
	assert.Equal(t, Slot{scenario.ScanTCPConnect, scenario.PortOpen}, rotation[0])
	assert.Equal(t, Slot{scenario.ScanTCPConnect, scenario.PortClosed}, rotation[1])

	s, err = New(c, Config{
		Schedule:   "@every 1m",
		ScanTypes:  []scenario.ScanType{scenario.ScanUDP},
		PortStates: []scenario.PortState{scenario.PortClosed},
	}, scenario.ScanTypes)
	require.NoError(t, err)
	assert.Equal(t, []Slot{{scenario.ScanUDP, scenario.PortClosed}}, s.Rotation())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	c, _ := newController(t, instantSleep)

	_, err := New(c, Config{Schedule: "every tuesday"}, scenario.ScanTypes)
	assert.Error(t, err)

	_, err = New(c, Config{Schedule: "* * * * *"}, nil)
	assert.Error(t, err)
}

func TestRunOnceRotates(t *testing.T) {
	c, log := newController(t, instantSleep)
	s, err := New(c, Config{
		Schedule:  "* * * * *",
		ScanTypes: []scenario.ScanType{scenario.ScanFIN, scenario.ScanXmas},
	}, scenario.ScanTypes)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.True(t, s.RunOnce())
		require.Eventually(t, func() bool {
			return c.Status().State == player.StateIdle
		}, time.Second, time.Millisecond)
	}

	assert.Equal(t, []Slot{
		{scenario.ScanFIN, scenario.PortOpen},
		{scenario.ScanFIN, scenario.PortClosed},
		{scenario.ScanXmas, scenario.PortOpen},
		{scenario.ScanXmas, scenario.PortClosed},
		{scenario.ScanFIN, scenario.PortOpen},
	}, log.all())
	assert.False(t, s.Status().LastRun.IsZero())
}

func TestRunOnceLeavesActivePlaybackAlone(t *testing.T) {
	c, log := newController(t, blockingSleep)
	s, err := New(c, Config{Schedule: "* * * * *"}, scenario.ScanTypes)
	require.NoError(t, err)

	_, err = c.SelectScan("udp")
	require.NoError(t, err)
	_, err = c.Start()
	require.NoError(t, err)

	assert.False(t, s.RunOnce())
	assert.Len(t, log.all(), 1)
	assert.Equal(t, scenario.ScanUDP, c.Selection().ScanType)
	assert.Equal(t, Slot{scenario.ScanTCPConnect, scenario.PortOpen}, s.Status().NextSlot)
}

type busyPlayback struct {
	busy  bool
	calls []Slot
}

func (b *busyPlayback) PlayIfIdle(scanType, portState string) (*player.Session, error) {
	b.calls = append(b.calls, Slot{scenario.ScanType(scanType), scenario.PortState(portState)})
	if b.busy {
		return nil, errors.ErrPlaybackActive("play_if_idle")
	}
	return &player.Session{ID: "s1", ScanType: scenario.ScanType(scanType)}, nil
}

func TestRunOnceRetriesSlotWhileBusy(t *testing.T) {
	pb := &busyPlayback{busy: true}
	s, err := New(pb, Config{
		Schedule:  "* * * * *",
		ScanTypes: []scenario.ScanType{scenario.ScanFIN, scenario.ScanXmas},
	}, scenario.ScanTypes)
	require.NoError(t, err)

	assert.False(t, s.RunOnce())
	assert.False(t, s.RunOnce())
	assert.True(t, s.Status().LastRun.IsZero())

	pb.busy = false
	assert.True(t, s.RunOnce())
	assert.Equal(t, []Slot{
		{scenario.ScanFIN, scenario.PortOpen},
		{scenario.ScanFIN, scenario.PortOpen},
		{scenario.ScanFIN, scenario.PortOpen},
	}, pb.calls)
	assert.Equal(t, Slot{scenario.ScanFIN, scenario.PortClosed}, s.Status().NextSlot)
}

func TestRunOnceSkipsUnknownScan(t *testing.T) {
	c, log := newController(t, instantSleep)
	s, err := New(c, Config{
		Schedule:   "* * * * *",
		ScanTypes:  []scenario.ScanType{"maimon", scenario.ScanNULL},
		PortStates: []scenario.PortState{scenario.PortOpen},
	}, scenario.ScanTypes)
	require.NoError(t, err)

	assert.False(t, s.RunOnce())
	assert.True(t, s.RunOnce())
	require.Eventually(t, func() bool { return len(log.all()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, scenario.ScanNULL, log.all()[0].ScanType)
}

func TestStartStop(t *testing.T) {
	c, _ := newController(t, instantSleep)
	s, err := New(c, Config{Schedule: "0 0 1 1 *"}, scenario.ScanTypes)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.Error(t, s.Start())

	st := s.Status()
	assert.True(t, st.Running)
	assert.True(t, st.Next.After(time.Now()))

	s.Stop()
	assert.False(t, s.Status().Running)
	s.Stop()

	require.NoError(t, s.Start())
	s.Stop()
}

type fakePruner struct {
	mu     sync.Mutex
	before []time.Time
}

func (f *fakePruner) Prune(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.before = append(f.before, before)
	return 2, nil
}

func TestPrune(t *testing.T) {
	c, _ := newController(t, instantSleep)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	pruner := &fakePruner{}

	s, err := New(c, Config{Schedule: "* * * * *"}, scenario.ScanTypes,
		WithPruner(pruner, 24*time.Hour),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	s.prune()
	require.Len(t, pruner.before, 1)
	assert.Equal(t, now.Add(-24*time.Hour), pruner.before[0])
}
