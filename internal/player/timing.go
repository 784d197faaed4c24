package player

import (
	"context"
	"time"

	"github.com/anstrom/scanviz/internal/scenario"
)

// Timing holds the per-phase durations at speed 1.0.
type Timing struct {
	LeadIn time.Duration `yaml:"lead_in" json:"lead_in"`
	Travel time.Duration `yaml:"travel" json:"travel"`
	Fade   time.Duration `yaml:"fade" json:"fade"`
	Hide   time.Duration `yaml:"hide" json:"hide"`
	Gap    time.Duration `yaml:"gap" json:"gap"`
}

// DefaultTiming returns the durations used by the visualizer.
func DefaultTiming() Timing {
	return Timing{
		LeadIn: 50 * time.Millisecond,
		Travel: 800 * time.Millisecond,
		Fade:   1000 * time.Millisecond,
		Hide:   200 * time.Millisecond,
		Gap:    200 * time.Millisecond,
	}
}

// Scale divides d by speed.
func Scale(d time.Duration, speed float64) time.Duration {
	if speed <= 0 {
		speed = scenario.DefaultSpeed
	}
	return time.Duration(float64(d) / speed)
}

// phases returns the suspension durations for one frame, in order.
func (t Timing) phases(f scenario.Frame, speed float64) []time.Duration {
	motion := t.Travel
	if f.Direction == scenario.Timeout {
		motion = t.Fade
	}
	return []time.Duration{
		Scale(t.LeadIn, speed),
		Scale(motion, speed),
		Scale(t.Hide, speed),
	}
}

// FrameDuration is the time one frame occupies at speed.
func (t Timing) FrameDuration(f scenario.Frame, speed float64) time.Duration {
	var total time.Duration
	for _, d := range t.phases(f, speed) {
		total += d
	}
	return total
}

// Estimate returns the expected wall-clock duration of playing frames at
// speed, including the gaps between frames.
func (t Timing) Estimate(frames []scenario.Frame, speed float64) time.Duration {
	var total time.Duration
	for i, f := range frames {
		if i > 0 {
			total += Scale(t.Gap, speed)
		}
		total += t.FrameDuration(f, speed)
	}
	return total
}

// SleepFunc suspends for d or until ctx is done, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
