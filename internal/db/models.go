package db

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// Playback outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeStopped   = "stopped"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Milliseconds stores a time.Duration as an integer millisecond column.
type Milliseconds time.Duration

// Scan implements sql.Scanner.
func (m *Milliseconds) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = 0
	case int64:
		*m = Milliseconds(time.Duration(v) * time.Millisecond)
	case float64:
		*m = Milliseconds(time.Duration(v * float64(time.Millisecond)))
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse milliseconds: %w", err)
		}
		*m = Milliseconds(time.Duration(n) * time.Millisecond)
	default:
		return fmt.Errorf("cannot scan %T into Milliseconds", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (m Milliseconds) Value() (driver.Value, error) {
	return time.Duration(m).Milliseconds(), nil
}

// Duration returns the stored duration.
func (m Milliseconds) Duration() time.Duration {
	return time.Duration(m)
}

// MarshalJSON writes the value as an integer number of milliseconds.
func (m Milliseconds) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(time.Duration(m).Milliseconds(), 10)), nil
}

// PlaybackRecord is one finished playback session.
type PlaybackRecord struct {
	ID          string       `db:"id" json:"id"`
	ScanType    string       `db:"scan_type" json:"scan_type"`
	PortState   string       `db:"port_state" json:"port_state"`
	Speed       float64      `db:"speed" json:"speed"`
	Port        int          `db:"port" json:"port"`
	Outcome     string       `db:"outcome" json:"outcome"`
	FramesShown int          `db:"frames_shown" json:"frames_shown"`
	TotalFrames int          `db:"total_frames" json:"total_frames"`
	Judgement   *string      `db:"judgement" json:"judgement,omitempty"`
	StartedAt   time.Time    `db:"started_at" json:"started_at"`
	EndedAt     time.Time    `db:"ended_at" json:"ended_at"`
	Duration    Milliseconds `db:"duration_ms" json:"duration_ms"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// HistoryFilter narrows history queries.
type HistoryFilter struct {
	ScanType  string
	PortState string
	Outcome   string
	Since     time.Time
	Limit     int
	Offset    int
}

// Normalized clamps paging to sane bounds.
func (f HistoryFilter) Normalized() HistoryFilter {
	if f.Limit <= 0 {
		f.Limit = defaultHistoryLimit
	}
	if f.Limit > maxHistoryLimit {
		f.Limit = maxHistoryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ScanStats aggregates playback history for one scan type.
type ScanStats struct {
	ScanType      string  `db:"scan_type" json:"scan_type"`
	Plays         int64   `db:"plays" json:"plays"`
	Completed     int64   `db:"completed" json:"completed"`
	Stopped       int64   `db:"stopped" json:"stopped"`
	AvgDurationMs float64 `db:"avg_duration_ms" json:"avg_duration_ms"`
}

// Preference is a named user setting.
type Preference struct {
	Name      string    `db:"name" json:"name"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
