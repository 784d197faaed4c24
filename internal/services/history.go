// Package services connects playback to the storage and metrics layers.
// It provides player sinks that persist finished sessions and count
// metrics, and the theme preference service.
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/anstrom/scanviz/internal/db"
	"github.com/anstrom/scanviz/internal/logging"
	"github.com/anstrom/scanviz/internal/player"
)

const (
	defaultHistoryBuffer = 64
	historyWriteTimeout  = 5 * time.Second
)

// HistoryStore persists playback records.
type HistoryStore interface {
	Create(ctx context.Context, rec *db.PlaybackRecord) error
}

// pendingSession accumulates one session's events until it ends.
type pendingSession struct {
	startedAt time.Time
	shown     int
}

// HistoryRecorder is a player sink that writes every finished session to
// a HistoryStore. Writes happen on a background goroutine so playback is
// never delayed by the database; records are dropped when the buffer is full.
type HistoryRecorder struct {
	store  HistoryStore
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingSession
	closed  bool

	queue chan *db.PlaybackRecord
	done  chan struct{}
}

// NewHistoryRecorder creates a recorder and starts its writer.
func NewHistoryRecorder(store HistoryStore, buffer int) *HistoryRecorder {
	if buffer <= 0 {
		buffer = defaultHistoryBuffer
	}
	r := &HistoryRecorder{
		store:   store,
		logger:  logging.Component("history"),
		pending: make(map[string]*pendingSession),
		queue:   make(chan *db.PlaybackRecord, buffer),
		done:    make(chan struct{}),
	}
	go r.write()
	return r
}

// Handle implements player.Sink.
func (r *HistoryRecorder) Handle(e player.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	switch e.Type {
	case player.EventStarted:
		r.pending[e.SessionID] = &pendingSession{startedAt: e.Timestamp}
	case player.EventFrameEnd:
		if p, ok := r.pending[e.SessionID]; ok {
			p.shown = e.Index + 1
		}
	case player.EventJudgement, player.EventStopped:
		p, ok := r.pending[e.SessionID]
		if !ok {
			return
		}
		delete(r.pending, e.SessionID)
		r.enqueue(record(e, p))
	}
}

func (r *HistoryRecorder) enqueue(rec *db.PlaybackRecord) {
	select {
	case r.queue <- rec:
	default:
		r.logger.Warn("History buffer full, dropping record",
			"session_id", rec.ID, "scan_type", rec.ScanType)
	}
}

func record(e player.Event, p *pendingSession) *db.PlaybackRecord {
	rec := &db.PlaybackRecord{
		ID:          e.SessionID,
		ScanType:    string(e.ScanType),
		PortState:   string(e.PortState),
		Speed:       e.Speed,
		Port:        e.Port,
		Outcome:     db.OutcomeStopped,
		FramesShown: p.shown,
		TotalFrames: e.Total,
		StartedAt:   p.startedAt.UTC(),
		EndedAt:     e.Timestamp.UTC(),
		Duration:    db.Milliseconds(e.Timestamp.Sub(p.startedAt)),
	}
	if e.Type == player.EventJudgement {
		rec.Outcome = db.OutcomeCompleted
		judgement := string(e.Judgement)
		rec.Judgement = &judgement
	}
	return rec
}

func (r *HistoryRecorder) write() {
	defer close(r.done)
	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
		if err := r.store.Create(ctx, rec); err != nil {
			r.logger.Error("Failed to record playback", "session_id", rec.ID, "error", err)
		} else {
			r.logger.Debug("Recorded playback", "session_id", rec.ID, "outcome", rec.Outcome)
		}
		cancel()
	}
}

// Close stops accepting events and waits until queued records are written
// or ctx is done.
func (r *HistoryRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
