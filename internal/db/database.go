// Package db provides database connectivity for scanviz. It stores the
// history of playback sessions and user preferences such as the colour
// theme, on either PostgreSQL or a local SQLite file.
package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/anstrom/scanviz/internal/errors"
	"github.com/anstrom/scanviz/internal/logging"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const (
	// Default database configuration values.
	defaultPostgresPort    = 5432
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5
	defaultConnMaxIdleTime = 5
	defaultSQLitePath      = "scanviz.db"
	sqliteBusyTimeoutMs    = 5000
	dataDirPerm            = 0750
)

// sanitizeDBError converts raw driver errors into errors that don't expose
// SQL details or credentials to API clients. The original error is kept as
// the Cause for internal logging.
func sanitizeDBError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var sanitized *errors.DatabaseError
	if stderrors.As(err, &sanitized) {
		return err
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewDatabaseError(errors.CodeNotFound, "Resource not found")
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.WrapDatabaseError(errors.CodeCanceled, "Database operation was canceled", operation, err)
	}

	var dbErr *errors.DatabaseError

	var pqErr *pq.Error
	var liteErr sqlite3.Error
	switch {
	case stderrors.As(err, &pqErr):
		switch pqErr.Code {
		case "23505": // unique_violation
			dbErr = errors.NewDatabaseError(errors.CodeConflict, "Resource already exists")
		case "23502": // not_null_violation
			dbErr = errors.NewDatabaseError(errors.CodeValidation, "Required field is missing")
		case "23514": // check_violation
			dbErr = errors.NewDatabaseError(errors.CodeValidation, "Data validation failed")
		case "57014": // query_canceled
			dbErr = errors.NewDatabaseError(errors.CodeCanceled, "Database operation was canceled")
		case "57P01", "08000", "08003", "08006":
			dbErr = errors.NewDatabaseError(errors.CodeDatabaseConnection, "Database connection error")
		}
	case stderrors.As(err, &liteErr):
		switch {
		case liteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			dbErr = errors.NewDatabaseError(errors.CodeConflict, "Resource already exists")
		case liteErr.ExtendedCode == sqlite3.ErrConstraintNotNull:
			dbErr = errors.NewDatabaseError(errors.CodeValidation, "Required field is missing")
		case liteErr.ExtendedCode == sqlite3.ErrConstraintCheck:
			dbErr = errors.NewDatabaseError(errors.CodeValidation, "Data validation failed")
		case liteErr.Code == sqlite3.ErrBusy, liteErr.Code == sqlite3.ErrLocked,
			liteErr.Code == sqlite3.ErrCantOpen:
			dbErr = errors.NewDatabaseError(errors.CodeDatabaseConnection, "Database connection error")
		}
	}

	if dbErr == nil {
		dbErr = errors.NewDatabaseError(errors.CodeDatabaseQuery, fmt.Sprintf("Database operation failed: %s", operation))
	}
	dbErr.Operation = operation
	dbErr.Cause = err
	return dbErr
}

// QueryObserver receives the outcome of every repository query.
type QueryObserver interface {
	ObserveQuery(operation string, duration time.Duration, err error)
}

// DB wraps sqlx.DB with additional functionality.
type DB struct {
	*sqlx.DB
	observer QueryObserver
}

// Wrap adopts an existing connection, mostly for tests.
func Wrap(conn *sqlx.DB) *DB {
	return &DB{DB: conn}
}

// SetObserver installs a query observer. Passing nil removes it.
func (db *DB) SetObserver(o QueryObserver) {
	db.observer = o
}

// observe reports a finished query and sanitizes its error.
func (db *DB) observe(operation string, start time.Time, err error) error {
	if db.observer != nil {
		db.observer.ObserveQuery(operation, time.Since(start), err)
	}
	return sanitizeDBError(operation, err)
}

// Config holds database configuration.
type Config struct {
	// Disabled databases make history and preferences unavailable.
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Driver  string `yaml:"driver" json:"driver"`

	// SQLite file path
	Path string `yaml:"path" json:"path"`

	// PostgreSQL connection settings
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Database string `yaml:"database" json:"database"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	SSLMode  string `yaml:"ssl_mode" json:"ssl_mode"`

	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`

	// History entries older than this are pruned; zero keeps everything.
	HistoryRetention time.Duration `yaml:"history_retention" json:"history_retention"`
}

// DefaultConfig returns the default database configuration. It uses a
// local SQLite file so the application works without a database server.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		Driver:          DriverSQLite,
		Path:            defaultSQLitePath,
		Host:            "localhost",
		Port:            defaultPostgresPort,
		SSLMode:         "disable",
		MaxOpenConns:    defaultMaxOpenConns,
		MaxIdleConns:    defaultMaxIdleConns,
		ConnMaxLifetime: defaultConnMaxLifetime * time.Minute,
		ConnMaxIdleTime: defaultConnMaxIdleTime * time.Minute,
	}
}

// Validate checks the settings required by the selected driver.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Driver {
	case DriverSQLite:
		if c.Path == "" {
			return errors.ErrConfigInvalid("database.path", c.Path)
		}
	case DriverPostgres:
		if c.Host == "" {
			return errors.ErrConfigInvalid("database.host", c.Host)
		}
		if c.Port <= 0 || c.Port > 65535 {
			return errors.ErrConfigInvalid("database.port", c.Port)
		}
		if c.Database == "" {
			return errors.ErrConfigInvalid("database.database", c.Database)
		}
		if c.Username == "" {
			return errors.ErrConfigInvalid("database.username", c.Username)
		}
	default:
		return errors.ErrConfigInvalid("database.driver", c.Driver)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return errors.ErrConfigInvalid("database.max_open_conns", c.MaxOpenConns)
	}
	if c.HistoryRetention < 0 {
		return errors.ErrConfigInvalid("database.history_retention", c.HistoryRetention)
	}
	return nil
}

// DSN builds the driver-specific data source name.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=%d", c.Path, sqliteBusyTimeoutMs)
	}
	// lib/pq escapes values in key=value format.
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode,
	)
}

// Connect opens and verifies a database connection. Returned errors never
// contain the DSN.
func Connect(ctx context.Context, config *Config) (*DB, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Driver == DriverSQLite && config.Path != ":memory:" {
		if dir := filepath.Dir(config.Path); dir != "." {
			if err := os.MkdirAll(dir, dataDirPerm); err != nil {
				return nil, errors.ErrDatabaseConnection(err)
			}
		}
	}

	conn, err := sqlx.ConnectContext(ctx, config.Driver, config.DSN())
	if err != nil {
		return nil, errors.ErrDatabaseConnection(err)
	}

	if config.Driver == DriverSQLite {
		// SQLite allows a single writer.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(config.MaxOpenConns)
		conn.SetMaxIdleConns(config.MaxIdleConns)
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
		conn.SetConnMaxIdleTime(config.ConnMaxIdleTime)
	}

	if err := conn.PingContext(ctx); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logging.Warn("Failed to close database connection after ping failure")
		}
		return nil, errors.WrapDatabaseError(errors.CodeDatabaseConnection, "Failed to verify database connection", "ping", err)
	}

	logging.Info("Connected to database", "driver", config.Driver, "target", config.target())
	return &DB{DB: conn}, nil
}

// target describes the database without credentials.
func (c Config) target() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Database)
}

// HistoryRepository stores finished playback sessions.
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a playback record.
func (r *HistoryRepository) Create(ctx context.Context, rec *PlaybackRecord) (err error) {
	start := time.Now()
	defer func() { err = r.db.observe("create playback record", start, err) }()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = start.UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO playback_history
			(id, scan_type, port_state, speed, port, outcome, frames_shown, total_frames,
			 judgement, started_at, ended_at, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.ScanType, rec.PortState, rec.Speed, rec.Port, rec.Outcome,
		rec.FramesShown, rec.TotalFrames, rec.Judgement, rec.StartedAt, rec.EndedAt,
		rec.Duration, rec.CreatedAt)
	return err
}

// historyColumns lists the selected columns in struct order.
const historyColumns = `id, scan_type, port_state, speed, port, outcome, frames_shown, total_frames,
	judgement, started_at, ended_at, duration_ms, created_at`

// Get retrieves a playback record by ID.
func (r *HistoryRepository) Get(ctx context.Context, id string) (_ *PlaybackRecord, err error) {
	start := time.Now()
	defer func() { err = r.db.observe("get playback record", start, err) }()

	var rec PlaybackRecord
	query := r.db.Rebind(`SELECT ` + historyColumns + ` FROM playback_history WHERE id = ?`)
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// where builds the filter clause and its arguments.
func (f HistoryFilter) where() (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.ScanType != "" {
		clauses = append(clauses, "scan_type = ?")
		args = append(args, f.ScanType)
	}
	if f.PortState != "" {
		clauses = append(clauses, "port_state = ?")
		args = append(args, f.PortState)
	}
	if f.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, f.Outcome)
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, f.Since)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns playback records matching the filter, newest first.
func (r *HistoryRepository) List(ctx context.Context, filter HistoryFilter) (_ []*PlaybackRecord, err error) {
	start := time.Now()
	defer func() { err = r.db.observe("list playback records", start, err) }()

	filter = filter.Normalized()
	where, args := filter.where()
	query := r.db.Rebind(`SELECT ` + historyColumns + ` FROM playback_history` + where +
		` ORDER BY started_at DESC LIMIT ? OFFSET ?`)
	args = append(args, filter.Limit, filter.Offset)

	records := []*PlaybackRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of records matching the filter, ignoring paging.
func (r *HistoryRepository) Count(ctx context.Context, filter HistoryFilter) (_ int64, err error) {
	start := time.Now()
	defer func() { err = r.db.observe("count playback records", start, err) }()

	where, args := filter.where()
	var total int64
	query := r.db.Rebind(`SELECT COUNT(*) FROM playback_history` + where)
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}

// Stats aggregates the history per scan type.
func (r *HistoryRepository) Stats(ctx context.Context) (_ []*ScanStats, err error) {
	start := time.Now()
	defer func() { err = r.db.observe("playback stats", start, err) }()

	query := r.db.Rebind(`
		SELECT scan_type,
		       COUNT(*) AS plays,
		       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END) AS completed,
		       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END) AS stopped,
		       COALESCE(AVG(duration_ms), 0) AS avg_duration_ms
		FROM playback_history
		GROUP BY scan_type
		ORDER BY scan_type`)

	stats := []*ScanStats{}
	if err := r.db.SelectContext(ctx, &stats, query, OutcomeCompleted, OutcomeStopped); err != nil {
		return nil, err
	}
	return stats, nil
}

// Prune deletes records that started before the cutoff.
func (r *HistoryRepository) Prune(ctx context.Context, before time.Time) (_ int64, err error) {
	start := time.Now()
	defer func() { err = r.db.observe("prune playback records", start, err) }()

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM playback_history WHERE started_at < ?`), before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// PreferenceRepository stores named user preferences.
type PreferenceRepository struct {
	db *DB
}

// NewPreferenceRepository creates a new preference repository.
func NewPreferenceRepository(db *DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns a preference value. Missing preferences yield CodeNotFound.
func (r *PreferenceRepository) Get(ctx context.Context, name string) (_ string, err error) {
	start := time.Now()
	defer func() { err = r.db.observe("get preference", start, err) }()

	var value string
	if err := r.db.GetContext(ctx, &value, r.db.Rebind(`SELECT value FROM preferences WHERE name = ?`), name); err != nil {
		return "", err
	}
	return value, nil
}

// Set creates or replaces a preference value.
func (r *PreferenceRepository) Set(ctx context.Context, name, value string) (err error) {
	start := time.Now()
	defer func() { err = r.db.observe("set preference", start, err) }()

	if name == "" {
		return errors.NewDatabaseError(errors.CodeValidation, "Preference name is required")
	}

	query := r.db.Rebind(`
		INSERT INTO preferences (name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	_, err = r.db.ExecContext(ctx, query, name, value, start.UTC())
	return err
}

// All returns every stored preference ordered by name.
func (r *PreferenceRepository) All(ctx context.Context) (_ []*Preference, err error) {
	start := time.Now()
	defer func() { err = r.db.observe("list preferences", start, err) }()

	prefs := []*Preference{}
	if err := r.db.SelectContext(ctx, &prefs, `SELECT name, value, updated_at FROM preferences ORDER BY name`); err != nil {
		return nil, err
	}
	return prefs, nil
}
