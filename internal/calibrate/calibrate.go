// Package calibrate aggregates sampled timing offsets into a single latency
// compensation value applied to the beat clock.
package calibrate

import (
	"log"
	"math"

	"github.com/josephkirk/UniversalBeatGame/internal/beat"
)

const (
	MinPrompts = 5
	MaxPrompts = 20

	// Stored offsets are clamped to ±200ms; anything above 100ms is
	// suspicious enough to warn about but not reject.
	maxOffsetMs   = 200.0
	largeOffsetMs = 100.0
)

// Controller runs calibration sessions and owns the stored offset.
type Controller struct {
	clock *beat.Clock

	offsetMs float64

	total     int
	remaining int
	offsets   []float64

	onComplete []func(offsetMs float64, ok bool)
}

func NewController(clock *beat.Clock) *Controller {
	return &Controller{clock: clock}
}

// OnComplete registers a callback for the end of a calibration sequence.
func (c *Controller) OnComplete(fn func(offsetMs float64, ok bool)) {
	c.onComplete = append(c.onComplete, fn)
}

// Offset returns the stored calibration offset in milliseconds.
func (c *Controller) Offset() float64 { return c.offsetMs }

// SetOffset stores a latency compensation in milliseconds, clamped to
// ±200ms, and pushes it into the clock.
func (c *Controller) SetOffset(ms float64) {
	clamped := math.Max(-maxOffsetMs, math.Min(maxOffsetMs, ms))
	if clamped != ms {
		log.Printf("calibrate: offset %.2fms out of range [-200, +200], clamped to %.2fms", ms, clamped)
	}
	if math.Abs(clamped) > largeOffsetMs {
		log.Printf("calibrate: offset %.2fms is large (>100ms), may indicate a configuration issue", clamped)
	}
	c.offsetMs = clamped
	if nil != c.clock {
		c.clock.SetCalibrationOffset(clamped / 1000.0)
	}
}

// RunSequence starts a calibration session of n prompts, clamped to [5,20].
// Any session in progress is discarded.
func (c *Controller) RunSequence(n int) {
	if n < MinPrompts {
		n = MinPrompts
	} else if n > MaxPrompts {
		n = MaxPrompts
	}
	c.total = n
	c.remaining = n
	c.offsets = c.offsets[:0]
	log.Printf("calibrate: sequence started, %d prompts", n)
}

// Active reports whether a session is collecting samples.
func (c *Controller) Active() bool { return c.remaining > 0 }

// Remaining returns how many prompts are still outstanding.
func (c *Controller) Remaining() int { return c.remaining }

// ProcessInput records one sampled offset in milliseconds. The final sample
// completes the session: the mean offset is broadcast and the session state
// reset.
func (c *Controller) ProcessInput(offsetMs float64) {
	if c.remaining <= 0 {
		return
	}
	c.offsets = append(c.offsets, offsetMs)
	c.remaining--
	if c.remaining == 0 {
		c.complete()
	}
}

func (c *Controller) complete() {
	mean := 0.0
	ok := len(c.offsets) > 0
	if ok {
		sum := 0.0
		for _, off := range c.offsets {
			sum += off
		}
		mean = sum / float64(len(c.offsets))
	}
	for _, fn := range c.onComplete {
		fn(mean, ok)
	}
	log.Printf("calibrate: sequence complete, offset %.2fms (%d samples)", mean, len(c.offsets))
	c.offsets = nil
	c.total = 0
	c.remaining = 0
}
