package beat

import (
	"log"
	"math"
	"time"
)

const (
	// TicksPerBeat is the fixed internal subdivision: the clock always ticks
	// at sixteenth-note resolution regardless of broadcast settings.
	TicksPerBeat = 16

	DefaultBPM = 120.0
	MinBPM     = 20.0
	MaxBPM     = 400.0

	// PhaseSentinel is returned by Phase when no time source is available.
	PhaseSentinel = -1.0

	// Calibration offsets are clamped to ±200ms.
	maxCalibrationOffset = 0.2
)

// Clock is the tempo-locked scheduler at the center of the system. It ticks
// sixteen times per beat and exposes a symmetric phase within the current
// tick interval.
//
// The clock is single-threaded: Advance and every other method must be
// called from the same goroutine. Concurrent access is a precondition
// violation, not something the clock guards against.
type Clock struct {
	src TimeSource

	bpm         float64
	pendingBPM  float64 // queued tempo change, 0 = none
	tickCounter int
	interval    float64 // seconds per tick
	lastTick    float64
	started     bool

	calibrationOffset float64 // seconds, applied to the tick interval
	respectTimeScale  bool
	debug             bool

	broadcasting bool
	subdivision  Subdivision

	// Actions deferred to the start of the next scheduling cycle, so the
	// scheduler is never re-armed from within its own tick callback.
	pending []func()

	paused         bool
	pausedPhase    float64
	noSourceLogged bool

	onBeat       []func(Event)
	onBPMChanged []func(oldBPM, newBPM float64)
}

func NewClock(src TimeSource) *Clock {
	return &Clock{
		src:         src,
		bpm:         DefaultBPM,
		subdivision: None,
	}
}

// OnBeat registers a callback for beat broadcasts. Callbacks run
// synchronously on the ticking goroutine.
func (c *Clock) OnBeat(fn func(Event)) {
	c.onBeat = append(c.onBeat, fn)
}

// OnBPMChanged registers a callback fired when a queued tempo change is
// applied.
func (c *Clock) OnBPMChanged(fn func(oldBPM, newBPM float64)) {
	c.onBPMChanged = append(c.onBPMChanged, fn)
}

func (c *Clock) EnableDebugLogging(enabled bool) { c.debug = enabled }

func (c *Clock) BPM() float64 { return c.bpm }

func (c *Clock) SecondsPerBeat() float64 { return 60.0 / c.bpm }

func (c *Clock) BeatNumber() int { return c.tickCounter / TicksPerBeat }

func (c *Clock) TickCount() int { return c.tickCounter }

func (c *Clock) SetRespectTimeScale(respect bool) {
	c.respectTimeScale = respect
	if c.debug {
		log.Printf("beat: respect time scale: %v", respect)
	}
}

func (c *Clock) RespectTimeScale() bool { return c.respectTimeScale }

// CalibrationOffset returns the latency compensation in seconds.
func (c *Clock) CalibrationOffset() float64 { return c.calibrationOffset }

// SetCalibrationOffset stores a latency compensation in seconds, clamped to
// ±200ms. The tick interval picks it up at the next scheduling cycle.
func (c *Clock) SetCalibrationOffset(seconds float64) {
	clamped := math.Max(-maxCalibrationOffset, math.Min(maxCalibrationOffset, seconds))
	if clamped != seconds {
		log.Printf("beat: calibration offset %.3fs out of range, clamped to %.3fs", seconds, clamped)
	}
	c.calibrationOffset = clamped
	c.pending = append(c.pending, func() { c.interval = c.tickRate() })
}

// SetBPM validates and queues a tempo change. Invalid values reset the clock
// to the default tempo immediately; valid values are applied at the next
// whole-beat boundary to avoid a mid-beat phase jump.
func (c *Clock) SetBPM(v float64) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		log.Printf("beat: invalid bpm %v, resetting to %v", v, DefaultBPM)
		c.bpm = DefaultBPM
		c.pendingBPM = 0
		c.restart()
		return
	}
	if v < MinBPM || v > MaxBPM {
		clamped := math.Max(MinBPM, math.Min(MaxBPM, v))
		log.Printf("beat: bpm %.2f outside [%v, %v], clamped to %.2f", v, MinBPM, MaxBPM, clamped)
		v = clamped
	}
	c.pendingBPM = v
	if c.debug {
		log.Printf("beat: bpm change to %.2f queued for next beat boundary", v)
	}
}

// Start begins ticking from the current host time.
func (c *Clock) Start() {
	c.restart()
}

func (c *Clock) restart() {
	// A restart is itself a beat boundary, so a queued tempo takes effect now.
	if c.pendingBPM > 0 {
		c.bpm = c.pendingBPM
		c.pendingBPM = 0
	}
	c.tickCounter = 0
	c.interval = c.tickRate()
	c.pending = nil
	if nil != c.src {
		c.lastTick = c.now()
		c.started = true
	}
}

// tickRate is the scheduling interval: a sixteenth of a beat plus the
// calibration offset.
func (c *Clock) tickRate() float64 {
	rate := (60.0/c.bpm)/TicksPerBeat + c.calibrationOffset
	if rate <= 0 {
		// A large negative calibration offset at high tempo would stall the
		// scheduler; keep the interval strictly positive.
		rate = 0.001
	}
	return rate
}

func (c *Clock) now() float64 {
	if c.respectTimeScale {
		return c.src.ScaledNow()
	}
	return c.src.Now()
}

// Until reports how long the driver should wait before the next Advance.
func (c *Clock) Until() time.Duration {
	if !c.started || nil == c.src {
		return time.Millisecond
	}
	remaining := c.interval - (c.now() - c.lastTick)
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(remaining * float64(time.Second))
}

// Advance drains deferred actions and fires every tick that has come due.
// It returns the number of ticks fired. The driver calls this from its
// scheduling loop; tests call it directly after moving a manual time source.
func (c *Clock) Advance() int {
	for len(c.pending) > 0 {
		action := c.pending[0]
		c.pending = c.pending[1:]
		action()
	}
	if !c.started || nil == c.src {
		return 0
	}
	fired := 0
	now := c.now()
	for now-c.lastTick >= c.interval {
		c.lastTick += c.interval
		c.tick(c.lastTick)
		fired++
	}
	return fired
}

// tick increments the counter, applies a queued tempo change at whole-beat
// boundaries, and otherwise runs subdivision filtering.
func (c *Clock) tick(at float64) {
	c.tickCounter++

	if c.pendingBPM > 0 && c.tickCounter%TicksPerBeat == 0 {
		old := c.bpm
		c.bpm = c.pendingBPM
		c.pendingBPM = 0
		c.tickCounter = 0
		c.lastTick = at
		// Re-arming at the new rate waits for the next scheduling cycle.
		c.pending = append(c.pending, func() { c.interval = c.tickRate() })
		if c.debug {
			log.Printf("beat: bpm %.2f -> %.2f applied at beat boundary", old, c.bpm)
		}
		for _, fn := range c.onBPMChanged {
			fn(old, c.bpm)
		}
		return
	}

	c.broadcast(at)
}

func (c *Clock) broadcast(at float64) {
	if !c.broadcasting {
		return
	}
	per := c.subdivision.TicksPerBroadcast()
	if per <= 0 {
		return
	}
	if c.tickCounter%per != 0 {
		return
	}
	ev := Event{
		BeatNumber:       c.BeatNumber(),
		SubdivisionIndex: (c.tickCounter / per) % (TicksPerBeat / per),
		Subdivision:      c.subdivision,
		Timestamp:        at,
	}
	for _, fn := range c.onBeat {
		fn(ev)
	}
}

// EnableBroadcasting selects a broadcast granularity. The underlying tick
// rate is unchanged; ticks are only filtered.
func (c *Clock) EnableBroadcasting(sub Subdivision) {
	c.broadcasting = true
	c.subdivision = sub
	if c.debug {
		log.Printf("beat: broadcasting enabled at %v", sub)
	}
}

// DisableBroadcasting stops beat events. The tick loop keeps running so
// timing checks stay functional.
func (c *Clock) DisableBroadcasting() {
	c.broadcasting = false
}

func (c *Clock) Broadcasting() bool { return c.broadcasting }

// Phase returns the position within the current tick interval remapped to
// [-1,+1]: -1 right after a tick, 0 at the midpoint, +1 just before the
// next tick. Early and late inputs equidistant from the midpoint score the
// same through abs(phase).
func (c *Clock) Phase() float64 {
	if nil == c.src {
		if !c.noSourceLogged {
			log.Println("beat: no time source, phase unavailable")
			c.noSourceLogged = true
		}
		return PhaseSentinel
	}

	if c.respectTimeScale && c.src.Scale() == 0 {
		if !c.paused {
			c.paused = true
			c.pausedPhase = c.phaseAt(c.now())
		}
		return c.pausedPhase
	}
	c.paused = false

	return c.phaseAt(c.now())
}

func (c *Clock) phaseAt(now float64) float64 {
	if !c.started || c.interval <= 0 {
		return PhaseSentinel
	}
	frac := (now - c.lastTick) / c.interval
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	return frac*2 - 1
}
