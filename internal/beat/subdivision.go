package beat

import "fmt"

// Subdivision selects how often beat events are broadcast. The clock always
// ticks at sixteenth-note resolution; a subdivision only filters which ticks
// produce an event.
type Subdivision int

const (
	None Subdivision = iota
	WholeBeats
	HalfBeats
	QuarterBeats
	EighthBeats
	SixteenthBeats
)

var subdivisionNames = map[Subdivision]string{
	None:           "none",
	WholeBeats:     "whole",
	HalfBeats:      "half",
	QuarterBeats:   "quarter",
	EighthBeats:    "eighth",
	SixteenthBeats: "sixteenth",
}

func (s Subdivision) String() string {
	if name, ok := subdivisionNames[s]; ok {
		return name
	}
	return "none"
}

func ParseSubdivision(s string) (Subdivision, error) {
	for v, name := range subdivisionNames {
		if s == name {
			return v, nil
		}
	}
	return None, fmt.Errorf("unknown subdivision %q", s)
}

// TicksPerBroadcast returns how many sixteenth ticks separate two broadcasts
// at this subdivision. Zero disables broadcasting.
func (s Subdivision) TicksPerBroadcast() int {
	switch s {
	case WholeBeats:
		return 16
	case HalfBeats:
		return 8
	case QuarterBeats:
		return 4
	case EighthBeats:
		return 2
	case SixteenthBeats:
		return 1
	}
	return 0
}

// Event carries the metadata of a single beat broadcast.
type Event struct {
	BeatNumber       int
	SubdivisionIndex int
	Subdivision      Subdivision
	Timestamp        float64
}

// IsOnSubdivision reports whether a broadcast event falls on the target
// granularity. The target must be equal to or coarser than the subdivision
// the event was broadcast at; a finer target always reports false.
func IsOnSubdivision(ev Event, target Subdivision) bool {
	evTicks := ev.Subdivision.TicksPerBroadcast()
	targetTicks := target.TicksPerBroadcast()
	if evTicks == 0 || targetTicks == 0 {
		return false
	}
	if targetTicks < evTicks {
		return false
	}
	step := targetTicks / evTicks
	return ev.SubdivisionIndex%step == 0
}
