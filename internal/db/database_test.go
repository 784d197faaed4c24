package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanviz/internal/errors"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return Wrap(sqlx.NewDb(conn, DriverPostgres)), mock
}

type observedQuery struct {
	operation string
	err       error
}

type queryRecorder struct {
	queries []observedQuery
}

func (r *queryRecorder) ObserveQuery(operation string, _ time.Duration, err error) {
	r.queries = append(r.queries, observedQuery{operation, err})
}

func sampleRecord() *PlaybackRecord {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	judgement := "Closed"
	return &PlaybackRecord{
		ID:          "4b8f0d8e-8f4e-4c55-9d3c-3a51f8a3c001",
		ScanType:    "tcp-syn",
		PortState:   "closed",
		Speed:       2,
		Port:        443,
		Outcome:     OutcomeCompleted,
		FramesShown: 2,
		TotalFrames: 2,
		Judgement:   &judgement,
		StartedAt:   started,
		EndedAt:     started.Add(1250 * time.Millisecond),
		Duration:    Milliseconds(1250 * time.Millisecond),
	}
}

func TestSanitizeDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errors.ErrorCode
	}{
		{"no rows", sql.ErrNoRows, errors.CodeNotFound},
		{"canceled", context.Canceled, errors.CodeCanceled},
		{"pq unique", &pq.Error{Code: "23505"}, errors.CodeConflict},
		{"pq check", &pq.Error{Code: "23514"}, errors.CodeValidation},
		{"pq connection", &pq.Error{Code: "08006"}, errors.CodeDatabaseConnection},
		{"pq other", &pq.Error{Code: "42601"}, errors.CodeDatabaseQuery},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, errors.CodeConflict},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, errors.CodeDatabaseConnection},
		{"wrapped", fmt.Errorf("exec: %w", &pq.Error{Code: "23502"}), errors.CodeValidation},
		{"generic", fmt.Errorf("password=secret"), errors.CodeDatabaseQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sanitizeDBError("op", tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.GetCode(err))
			assert.NotContains(t, err.Error(), "secret")
		})
	}

	assert.NoError(t, sanitizeDBError("op", nil))

	already := errors.NewDatabaseError(errors.CodeValidation, "bad")
	assert.Same(t, already, sanitizeDBError("op", already))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DriverSQLite, cfg.Driver)

	pg := DefaultConfig()
	pg.Driver = DriverPostgres
	assert.Error(t, pg.Validate(), "postgres requires a database name")
	pg.Database = "scanviz"
	pg.Username = "scanviz"
	assert.NoError(t, pg.Validate())
	assert.Contains(t, pg.DSN(), "dbname=scanviz")

	bad := DefaultConfig()
	bad.Driver = "mysql"
	assert.True(t, errors.IsCode(bad.Validate(), errors.CodeValidation))

	disabled := Config{Driver: "mysql"}
	assert.NoError(t, disabled.Validate())
}

func TestConfigTargetHidesPassword(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Driver = DriverPostgres
	cfg.Database = "scanviz"
	cfg.Password = "hunter2"
	assert.Equal(t, "localhost:5432/scanviz", cfg.target())
}

func TestHistoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	rec := &queryRecorder{}
	db.SetObserver(rec)
	repo := NewHistoryRepository(db)

	r := sampleRecord()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO playback_history")).
		WithArgs(r.ID, r.ScanType, r.PortState, r.Speed, r.Port, r.Outcome,
			r.FramesShown, r.TotalFrames, r.Judgement, r.StartedAt, r.EndedAt,
			int64(1250), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), r))
	assert.False(t, r.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, rec.queries, 1)
	assert.Equal(t, "create playback record", rec.queries[0].operation)
	assert.NoError(t, rec.queries[0].err)
}

func TestHistoryCreateConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHistoryRepository(db)

	mock.ExpectExec("INSERT INTO playback_history").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), sampleRecord())
	assert.True(t, errors.IsCode(err, errors.CodeConflict))
}

func TestHistoryListUsesFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHistoryRepository(db)

	r := sampleRecord()
	rows := sqlmock.NewRows([]string{
		"id", "scan_type", "port_state", "speed", "port", "outcome", "frames_shown", "total_frames",
		"judgement", "started_at", "ended_at", "duration_ms", "created_at",
	}).AddRow(r.ID, r.ScanType, r.PortState, r.Speed, r.Port, r.Outcome, r.FramesShown, r.TotalFrames,
		*r.Judgement, r.StartedAt, r.EndedAt, int64(1250), r.StartedAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM playback_history WHERE scan_type = $1 AND outcome = $2 ORDER BY started_at DESC LIMIT $3 OFFSET $4")).
		WithArgs("tcp-syn", OutcomeCompleted, defaultHistoryLimit, 0).
		WillReturnRows(rows)

	records, err := repo.List(context.Background(), HistoryFilter{ScanType: "tcp-syn", Outcome: OutcomeCompleted})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, r.ID, records[0].ID)
	assert.Equal(t, 1250*time.Millisecond, records[0].Duration.Duration())
	require.NotNil(t, records[0].Judgement)
	assert.Equal(t, "Closed", *records[0].Judgement)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryFilterNormalized(t *testing.T) {
	f := HistoryFilter{Limit: 10000, Offset: -5}.Normalized()
	assert.Equal(t, maxHistoryLimit, f.Limit)
	assert.Equal(t, 0, f.Offset)

	where, args := HistoryFilter{}.where()
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestHistoryCountAndPrune(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHistoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM playback_history WHERE port_state = $1")).
		WithArgs("open").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := repo.Count(context.Background(), HistoryFilter{PortState: "open", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)

	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM playback_history WHERE started_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.Prune(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHistoryRepository(db)

	mock.ExpectQuery("FROM playback_history WHERE id").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestPreferenceGetSet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPreferenceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO preferences (name, value, updated_at)")).
		WithArgs("theme", "light", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Set(context.Background(), "theme", "light"))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM preferences WHERE name = $1")).
		WithArgs("theme").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("light"))
	value, err := repo.Get(context.Background(), "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", value)

	mock.ExpectQuery("SELECT value FROM preferences").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "speed")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	require.NoError(t, mock.ExpectationsWereMet())

	err = repo.Set(context.Background(), "", "x")
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}

func TestMilliseconds(t *testing.T) {
	var m Milliseconds
	require.NoError(t, m.Scan(int64(1500)))
	assert.Equal(t, 1500*time.Millisecond, m.Duration())
	require.NoError(t, m.Scan([]byte("250")))
	assert.Equal(t, 250*time.Millisecond, m.Duration())
	require.NoError(t, m.Scan(nil))
	assert.Zero(t, m.Duration())
	assert.Error(t, m.Scan("soon"))

	v, err := Milliseconds(2 * time.Second).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(2000), v)

	b, err := Milliseconds(2 * time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "2000", string(b))
}

// TestSQLiteRoundTrip runs the real migrations against a SQLite file.
func TestSQLiteRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "data", "scanviz.db")

	ctx := context.Background()
	database, err := ConnectAndMigrate(ctx, &cfg)
	if err != nil && errors.IsCode(err, errors.CodeDatabaseConnection) {
		t.Skipf("sqlite unavailable: %v", err)
	}
	require.NoError(t, err)
	defer database.Close()

	status, err := NewMigrator(database.DB).Status(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, status)
	for _, s := range status {
		assert.True(t, s.Applied, s.Name)
	}

	ran, err := NewMigrator(database.DB).Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, ran, "migrations are applied once")

	history := NewHistoryRepository(database)
	first := sampleRecord()
	require.NoError(t, history.Create(ctx, first))

	second := sampleRecord()
	second.ID = "4b8f0d8e-8f4e-4c55-9d3c-3a51f8a3c002"
	second.ScanType = "udp"
	second.Outcome = OutcomeStopped
	second.Judgement = nil
	second.StartedAt = first.StartedAt.Add(time.Minute)
	require.NoError(t, history.Create(ctx, second))

	assert.True(t, errors.IsCode(history.Create(ctx, sampleRecord()), errors.CodeConflict))

	records, err := history.List(ctx, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID, "newest first")
	assert.Nil(t, records[0].Judgement)

	stats, err := history.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "tcp-syn", stats[0].ScanType)
	assert.Equal(t, int64(1), stats[0].Completed)
	assert.Equal(t, int64(1), stats[1].Stopped)

	n, err := history.Prune(ctx, second.StartedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	prefs := NewPreferenceRepository(database)
	require.NoError(t, prefs.Set(ctx, "theme", "dark"))
	require.NoError(t, prefs.Set(ctx, "theme", "light"))
	value, err := prefs.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", value)

	all, err := prefs.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, NewMigrator(database.DB).Reset(ctx))
	_, err = prefs.Get(ctx, "theme")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}
