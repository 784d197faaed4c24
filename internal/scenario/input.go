package scenario

import (
	"math"
	"strconv"
	"strings"

	"github.com/anstrom/scanviz/internal/errors"
)

const (
	// DefaultPort replaces any display port outside 1-65535.
	DefaultPort = 80
	minPort     = 1
	maxPort     = 65535

	// DefaultSpeed is normal playback speed.
	DefaultSpeed = 1.0
)

// StandardSpeeds are the speeds offered by the selector.
var StandardSpeeds = []float64{0.5, 1, 2, 4}

// CoercePort parses a display port from the leading digits of raw, so
// "8080abc" is 8080 and "80.5" is 80. Input without leading digits, or a
// number outside 1-65535, becomes DefaultPort.
func CoercePort(raw string) int {
	s := strings.TrimSpace(raw)
	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}
	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		end = len(s)
	}
	n, err := strconv.Atoi(sign + s[:end])
	if err != nil {
		return DefaultPort
	}
	return CoercePortNumber(n)
}

// CoercePortNumber clamps an already numeric port the same way CoercePort does.
func CoercePortNumber(n int) int {
	if n < minPort || n > maxPort {
		return DefaultPort
	}
	return n
}

// ParseSpeed parses a playback speed multiplier.
func ParseSpeed(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, errors.ErrInvalidSpeed(raw)
	}
	if err := ValidateSpeed(v); err != nil {
		return 0, err
	}
	return v, nil
}

// ValidateSpeed rejects non-positive, NaN and infinite speeds.
func ValidateSpeed(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return errors.ErrInvalidSpeed(v)
	}
	return nil
}

// ParsePortState parses a port state, reporting whether raw was valid.
func ParsePortState(raw string) (PortState, bool) {
	switch PortState(strings.ToLower(strings.TrimSpace(raw))) {
	case PortOpen:
		return PortOpen, true
	case PortClosed:
		return PortClosed, true
	default:
		return DefaultPortState, false
	}
}

// ParseScanType normalises a scan type identifier without checking the catalog.
func ParseScanType(raw string) ScanType {
	return ScanType(strings.ToLower(strings.TrimSpace(raw)))
}
