package beat

import (
	"log"
	"math"
	"sort"
)

// CurvePoint is one keyframe of an accuracy curve.
type CurvePoint struct {
	In  float64 `yaml:"in"`
	Out float64 `yaml:"out"`
}

// Curve maps abs(phase) in [0,1] to an accuracy value through piecewise
// linear interpolation between keyframes.
type Curve struct {
	Points []CurvePoint `yaml:"points"`
}

// Evaluate interpolates the curve at x. Outside the keyframe range the
// nearest endpoint value is used.
func (c *Curve) Evaluate(x float64) float64 {
	pts := c.Points
	if len(pts) == 0 {
		return 0
	}
	i := sort.Search(len(pts), func(i int) bool { return pts[i].In >= x })
	if i == 0 {
		return pts[0].Out
	}
	if i == len(pts) {
		return pts[len(pts)-1].Out
	}
	lo, hi := pts[i-1], pts[i]
	if hi.In == lo.In {
		return hi.Out
	}
	t := (x - lo.In) / (hi.In - lo.In)
	return lo.Out + t*(hi.Out-lo.Out)
}

// Evaluator scores how well an input lines up with the clock. With no curve
// configured it falls back to 1-abs(phase): 1.0 on the tick midpoint, 0.0 at
// the boundaries.
type Evaluator struct {
	clock *Clock
	curve *Curve

	clampWarned bool
	debug       bool

	onCheck []func(label string, value float64)
}

func NewEvaluator(clock *Clock) *Evaluator {
	return &Evaluator{clock: clock}
}

// OnCheck registers a callback for timing-check results.
func (e *Evaluator) OnCheck(fn func(label string, value float64)) {
	e.onCheck = append(e.onCheck, fn)
}

func (e *Evaluator) EnableDebugLogging(enabled bool) { e.debug = enabled }

// SetCurve installs a caller-supplied accuracy curve. Nil restores the
// linear fallback. Changing the curve re-arms the out-of-range warning.
func (e *Evaluator) SetCurve(c *Curve) {
	e.curve = c
	e.clampWarned = false
}

func (e *Evaluator) Curve() *Curve { return e.curve }

// Evaluate maps abs(phase) in [0,1] to an accuracy score in [0,1]. A curve
// output outside that range is clamped with a one-time warning, never
// rejected.
func (e *Evaluator) Evaluate(absPhase float64) float64 {
	x := math.Max(0, math.Min(1, absPhase))

	var raw float64
	if nil != e.curve && len(e.curve.Points) > 0 {
		raw = e.curve.Evaluate(x)
	} else {
		raw = 1 - x
	}

	clamped := math.Max(0, math.Min(1, raw))
	if clamped != raw && !e.clampWarned {
		log.Printf("beat: accuracy curve returned out-of-range value %.3f, clamped to %.3f", raw, clamped)
		e.clampWarned = true
	}
	return clamped
}

// CheckByLabel computes the current phase, evaluates accuracy, emits a
// timing-check event and returns the scalar.
func (e *Evaluator) CheckByLabel(label string) float64 {
	if label == "" {
		label = "Default"
	}
	phase := e.clock.Phase()
	value := e.Evaluate(math.Abs(phase))
	if e.debug {
		log.Printf("beat: timing check [%s] beat:%d phase:%.3f value:%.3f",
			label, e.clock.BeatNumber(), phase, value)
	}
	for _, fn := range e.onCheck {
		fn(label, value)
	}
	return value
}
