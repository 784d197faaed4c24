package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anstrom/scanviz/internal/catalog"
	"github.com/anstrom/scanviz/internal/db"
	"github.com/anstrom/scanviz/internal/errors"
	"github.com/anstrom/scanviz/internal/logging"
	"github.com/anstrom/scanviz/internal/metrics/mocks"
	"github.com/anstrom/scanviz/internal/player"
	"github.com/anstrom/scanviz/internal/render"
	"github.com/anstrom/scanviz/internal/scenario"
)

type memoryHistory struct {
	mu      sync.Mutex
	records []*db.PlaybackRecord
	err     error
}

func (m *memoryHistory) Create(_ context.Context, rec *db.PlaybackRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryHistory) all() []*db.PlaybackRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*db.PlaybackRecord(nil), m.records...)
}

func instantSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func blockingSleep(ctx context.Context, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func newPlayer(sink player.Sink, sleep player.SleepFunc) *player.Player {
	return player.New(sink, player.WithSleep(sleep), player.WithLogger(logging.Discard()))
}

func request(t *testing.T, id scenario.ScanType, state scenario.PortState) player.Request {
	t.Helper()
	s, resolved, err := catalog.MustBuiltin().Scenario(id, state)
	require.NoError(t, err)
	return player.Request{ScanType: id, PortState: resolved, Scenario: s, Speed: 2, Port: 443}
}

func closeRecorder(t *testing.T, r *HistoryRecorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))
}

func TestHistoryRecorderCompletedSession(t *testing.T) {
	store := &memoryHistory{}
	rec := NewHistoryRecorder(store, 0)
	p := newPlayer(rec, instantSleep)

	result, err := p.Play(context.Background(), request(t, scenario.ScanTCPSYN, scenario.PortOpen))
	require.NoError(t, err)
	closeRecorder(t, rec)

	records := store.all()
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, result.SessionID, r.ID)
	assert.Equal(t, "tcp-syn", r.ScanType)
	assert.Equal(t, "open", r.PortState)
	assert.Equal(t, 443, r.Port)
	assert.Equal(t, 2.0, r.Speed)
	assert.Equal(t, db.OutcomeCompleted, r.Outcome)
	assert.Equal(t, 3, r.FramesShown)
	assert.Equal(t, 3, r.TotalFrames)
	require.NotNil(t, r.Judgement)
	assert.Equal(t, "Open", *r.Judgement)
	assert.False(t, r.EndedAt.Before(r.StartedAt))
}

func TestHistoryRecorderStoppedSession(t *testing.T) {
	store := &memoryHistory{}
	rec := NewHistoryRecorder(store, 0)
	p := newPlayer(rec, blockingSleep)

	s, err := p.Start(context.Background(), request(t, scenario.ScanUDP, scenario.PortClosed))
	require.NoError(t, err)
	require.True(t, p.Stop())
	<-s.Done()
	closeRecorder(t, rec)

	records := store.all()
	require.Len(t, records, 1)
	assert.Equal(t, db.OutcomeStopped, records[0].Outcome)
	assert.Equal(t, 0, records[0].FramesShown)
	assert.Nil(t, records[0].Judgement)
}

func TestHistoryRecorderStoreFailureDoesNotBlock(t *testing.T) {
	store := &memoryHistory{err: errors.NewDatabaseError(errors.CodeDatabaseConnection, "down")}
	rec := NewHistoryRecorder(store, 1)
	p := newPlayer(rec, instantSleep)

	for i := 0; i < 3; i++ {
		_, err := p.Play(context.Background(), request(t, scenario.ScanFIN, scenario.PortOpen))
		require.NoError(t, err)
	}
	closeRecorder(t, rec)
	assert.Empty(t, store.all())
}

func TestHistoryRecorderIgnoresEventsAfterClose(t *testing.T) {
	store := &memoryHistory{}
	rec := NewHistoryRecorder(store, 0)
	closeRecorder(t, rec)
	closeRecorder(t, rec)

	rec.Handle(player.Event{Type: player.EventStarted, SessionID: "a"})
	rec.Handle(player.Event{Type: player.EventJudgement, SessionID: "a"})
	assert.Empty(t, store.all())
}

func TestHistoryRecorderIgnoresUnknownSession(t *testing.T) {
	store := &memoryHistory{}
	rec := NewHistoryRecorder(store, 0)
	rec.Handle(player.Event{Type: player.EventStopped, SessionID: "never-started"})
	closeRecorder(t, rec)
	assert.Empty(t, store.all())
}

func TestMetricsSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockRecorder(ctrl)

	gomock.InOrder(
		recorder.EXPECT().PlaybackStarted("tcp-syn", "closed"),
		recorder.EXPECT().FrameShown("tcp-syn", "TCP").Times(2),
		recorder.EXPECT().PlaybackFinished("tcp-syn", "completed", gomock.Any()),
	)

	p := newPlayer(NewMetricsSink(recorder), instantSleep)
	_, err := p.Play(context.Background(), request(t, scenario.ScanTCPSYN, scenario.PortClosed))
	require.NoError(t, err)
}

func TestMetricsSinkStopped(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockRecorder(ctrl)

	recorder.EXPECT().PlaybackStarted("udp", "open")
	recorder.EXPECT().PlaybackFinished("udp", "stopped", gomock.Any())

	p := newPlayer(NewMetricsSink(recorder), blockingSleep)
	s, err := p.Start(context.Background(), request(t, scenario.ScanUDP, scenario.PortOpen))
	require.NoError(t, err)
	p.Stop()
	<-s.Done()
}

type memoryPreferences struct {
	values map[string]string
}

func (m *memoryPreferences) Get(_ context.Context, name string) (string, error) {
	v, ok := m.values[name]
	if !ok {
		return "", errors.NewDatabaseError(errors.CodeNotFound, "Resource not found")
	}
	return v, nil
}

func (m *memoryPreferences) Set(_ context.Context, name, value string) error {
	m.values[name] = value
	return nil
}

func TestThemeService(t *testing.T) {
	ctx := context.Background()
	store := &memoryPreferences{values: map[string]string{}}
	svc := NewThemeService(store, render.ThemeDark)

	theme, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, render.ThemeDark, theme)

	theme, err = svc.Set(ctx, "Light")
	require.NoError(t, err)
	assert.Equal(t, render.ThemeLight, theme)
	assert.Equal(t, "light", store.values[PreferenceTheme])

	theme, err = svc.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, render.ThemeDark, theme)

	_, err = svc.Set(ctx, "solarized")
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
	assert.Equal(t, "dark", store.values[PreferenceTheme])

	store.values[PreferenceTheme] = "neon"
	theme, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, render.ThemeDark, theme)
}

func TestThemeServiceWithoutStore(t *testing.T) {
	ctx := context.Background()
	svc := NewThemeService(nil, render.ThemeLight)

	theme, err := svc.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, render.ThemeDark, theme)

	theme, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, render.ThemeDark, theme)
}
