// Package scoring turns raw keystroke counters into typing metrics.
// A word is five characters.
package scoring

import (
	"errors"
	"fmt"
	"math"
)

const (
	MinDurationSeconds = 15
	MaxDurationSeconds = 120

	// MaxPlausibleWPM is the fastest speed a result may report
	MaxPlausibleWPM = 300

	charsPerWord = 5.0
)

// ErrInvalidMetrics is returned for counters that cannot describe a real test
var ErrInvalidMetrics = errors.New("invalid metrics")

// Counters are the raw values a client reports after typing
type Counters struct {
	CorrectChars    int
	IncorrectChars  int
	TotalChars      int
	DurationSeconds int
}

// Metrics are derived from Counters
type Metrics struct {
	WPM      float64
	RawWPM   float64
	Accuracy float64
}

// WPM returns words per minute over correct characters
func WPM(correctChars int, elapsedSeconds float64) float64 {
	return perMinute(correctChars, elapsedSeconds)
}

// RawWPM returns words per minute over every typed character
func RawWPM(totalChars int, elapsedSeconds float64) float64 {
	return perMinute(totalChars, elapsedSeconds)
}

func perMinute(chars int, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	return (float64(chars) / charsPerWord) / (elapsedSeconds / 60)
}

// Accuracy returns the share of correct characters as a percentage.
// Nothing typed counts as 100.
func Accuracy(correctChars, incorrectChars int) float64 {
	den := correctChars + incorrectChars
	if den == 0 {
		return 100
	}
	return 100 * float64(correctChars) / float64(den)
}

// ValidDuration reports whether seconds is an allowed test length
func ValidDuration(seconds int) bool {
	return seconds >= MinDurationSeconds && seconds <= MaxDurationSeconds
}

// Validate checks the counters for internal consistency
func Validate(c Counters) error {
	if c.CorrectChars < 0 || c.IncorrectChars < 0 || c.TotalChars < 0 {
		return fmt.Errorf("%w: negative character count", ErrInvalidMetrics)
	}
	if c.TotalChars != c.CorrectChars+c.IncorrectChars {
		return fmt.Errorf("%w: total %d != correct %d + incorrect %d",
			ErrInvalidMetrics, c.TotalChars, c.CorrectChars, c.IncorrectChars)
	}
	if !ValidDuration(c.DurationSeconds) {
		return fmt.Errorf("%w: duration %ds outside [%d,%d]",
			ErrInvalidMetrics, c.DurationSeconds, MinDurationSeconds, MaxDurationSeconds)
	}
	return nil
}

// Compute validates c and derives its metrics. Values are never clamped;
// a speed beyond MaxPlausibleWPM is rejected.
func Compute(c Counters) (Metrics, error) {
	if err := Validate(c); err != nil {
		return Metrics{}, err
	}
	elapsed := float64(c.DurationSeconds)
	m := Metrics{
		WPM:      WPM(c.CorrectChars, elapsed),
		RawWPM:   RawWPM(c.TotalChars, elapsed),
		Accuracy: Accuracy(c.CorrectChars, c.IncorrectChars),
	}
	if m.WPM > MaxPlausibleWPM || m.RawWPM > MaxPlausibleWPM {
		return Metrics{}, fmt.Errorf("%w: %.1f wpm exceeds %d", ErrInvalidMetrics, math.Max(m.WPM, m.RawWPM), MaxPlausibleWPM)
	}
	return m, nil
}

// Deviation returns the largest absolute difference between two metric sets
func Deviation(a, b Metrics) float64 {
	return math.Max(math.Abs(a.WPM-b.WPM), math.Max(math.Abs(a.RawWPM-b.RawWPM), math.Abs(a.Accuracy-b.Accuracy)))
}

// SpeedCategory labels a WPM value
func SpeedCategory(wpm float64) string {
	switch {
	case wpm < 20:
		return "Beginner"
	case wpm < 30:
		return "Slow"
	case wpm < 40:
		return "Average"
	case wpm < 50:
		return "Good"
	case wpm < 70:
		return "Fast"
	case wpm < 90:
		return "Excellent"
	default:
		return "Professional"
	}
}

// AccuracyCategory labels an accuracy percentage
func AccuracyCategory(accuracy float64) string {
	switch {
	case accuracy >= 98:
		return "Perfect"
	case accuracy >= 95:
		return "Excellent"
	case accuracy >= 90:
		return "Good"
	case accuracy >= 80:
		return "Fair"
	default:
		return "Poor"
	}
}
