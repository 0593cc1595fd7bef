package sequencer

import (
	"log"
	"math"

	"github.com/josephkirk/UniversalBeatGame/internal/beat"
	"github.com/josephkirk/UniversalBeatGame/internal/chart"
	"github.com/josephkirk/UniversalBeatGame/internal/playback"
)

// Direction classifies a validated input relative to its note.
type Direction int

const (
	Early Direction = iota
	OnTime
	Late
)

func (d Direction) String() string {
	switch d {
	case Early:
		return "early"
	case Late:
		return "late"
	}
	return "on-time"
}

// Inputs within a millisecond of the note count as on time.
const onTimeTolerance = 0.001

// Result is the outcome of a note timing validation.
type Result struct {
	Hit       bool
	Accuracy  float64
	Direction Direction
	// Offset is input time minus note time in seconds; negative means early.
	Offset float64
	Note   *chart.Instance
}

// Validator checks inputs against the loaded chart, falling back to generic
// beat timing when no chart is active.
type Validator struct {
	clock  *beat.Clock
	eval   *beat.Evaluator
	index  *chart.Index
	handle playback.Handle
	src    beat.TimeSource
	debug  bool

	onNote []func(Result)
}

func NewValidator(clock *beat.Clock, eval *beat.Evaluator, index *chart.Index, handle playback.Handle, src beat.TimeSource) *Validator {
	return &Validator{clock: clock, eval: eval, index: index, handle: handle, src: src}
}

// OnNoteTriggered registers a callback fired when a note is matched and
// consumed.
func (v *Validator) OnNoteTriggered(fn func(Result)) {
	v.onNote = append(v.onNote, fn)
}

func (v *Validator) EnableDebugLogging(enabled bool) { v.debug = enabled }

// CheckByTag validates an input identified by a note tag against the chart.
// With no chart loaded (or an invalid tag) it degrades to the generic beat
// timing check; a missing note inside an active chart is a miss, with
// absence treated as lateness.
func (v *Validator) CheckByTag(tag string) Result {
	if nil == v.index || !v.index.Loaded() || tag == "" {
		accuracy := v.eval.CheckByLabel(tag)
		return Result{
			Hit:       accuracy > 0,
			Accuracy:  accuracy,
			Direction: OnTime,
		}
	}

	currentTime := v.currentTime()
	note, ok := v.index.NextForTag(tag, currentTime, v.clock.BPM())
	if !ok {
		return Result{Hit: false, Accuracy: 0, Direction: Late}
	}

	noteTime := v.index.FrameToSeconds(note.Timestamp)
	offset := currentTime - noteTime

	direction := OnTime
	if math.Abs(offset) >= onTimeTolerance {
		if offset < 0 {
			direction = Early
		} else {
			direction = Late
		}
	}

	// Accuracy degrades linearly across the window on the input's side.
	maxWindow := note.Def.Post.Seconds(v.clock.BPM())
	if offset < 0 {
		maxWindow = note.Def.Pre.Seconds(v.clock.BPM())
	}
	accuracy := 0.0
	if maxWindow > 0 {
		accuracy = math.Max(0, math.Min(1, 1-math.Abs(offset)/maxWindow))
	}

	v.index.MarkConsumed(note)

	result := Result{
		Hit:       true,
		Accuracy:  accuracy,
		Direction: direction,
		Offset:    offset,
		Note:      note,
	}
	if v.debug {
		log.Printf("sequencer: note %s at %.3fs hit %s by %.3fs, accuracy %.3f",
			tag, noteTime, direction, math.Abs(offset), accuracy)
	}
	for _, fn := range v.onNote {
		fn(result)
	}
	return result
}

// currentTime prefers the playback position; outside active playback it
// falls back to host wall time.
func (v *Validator) currentTime() float64 {
	if nil != v.handle && v.handle.IsPlaying() {
		return v.handle.CurrentTime()
	}
	if nil != v.src {
		return v.src.Now()
	}
	return 0
}
