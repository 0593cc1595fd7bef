package beat

import "time"

// TimeSource is the host clock consumed by the core. It supplies real time
// and, optionally, a dilated time signal; a Scale of zero means the host is
// paused.
type TimeSource interface {
	// Now returns real time in seconds.
	Now() float64
	// ScaledNow returns dilated time in seconds.
	ScaledNow() float64
	// Scale returns the current external time multiplier. Zero means paused.
	Scale() float64
}

// RealTime is a TimeSource backed by the wall clock. It is never dilated.
type RealTime struct {
	start time.Time
}

func NewRealTime() *RealTime {
	return &RealTime{start: time.Now()}
}

func (r *RealTime) Now() float64 {
	return time.Since(r.start).Seconds()
}

func (r *RealTime) ScaledNow() float64 { return r.Now() }

func (r *RealTime) Scale() float64 { return 1.0 }
