package beat

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// NoteValue is a musical note fraction used for timing window sizes.
type NoteValue int

const (
	Sixteenth NoteValue = iota
	Eighth
	Quarter
	Half
	Whole
)

var noteValueNames = map[NoteValue]string{
	Sixteenth: "sixteenth",
	Eighth:    "eighth",
	Quarter:   "quarter",
	Half:      "half",
	Whole:     "whole",
}

func (v NoteValue) String() string {
	if name, ok := noteValueNames[v]; ok {
		return name
	}
	return "quarter"
}

func ParseNoteValue(s string) (NoteValue, error) {
	for v, name := range noteValueNames {
		if s == name {
			return v, nil
		}
	}
	return Quarter, fmt.Errorf("unknown note value %q", s)
}

// Multiplier returns the note length relative to a quarter note.
func (v NoteValue) Multiplier() float64 {
	switch v {
	case Sixteenth:
		return 0.25
	case Eighth:
		return 0.5
	case Quarter:
		return 1.0
	case Half:
		return 2.0
	case Whole:
		return 4.0
	}
	return 1.0
}

// Seconds converts the note value to a duration in seconds at the given
// tempo. One quarter note is 60/BPM seconds.
func (v NoteValue) Seconds(bpm float64) float64 {
	if bpm <= 0 {
		return 0
	}
	return (60.0 / bpm) * v.Multiplier()
}

// TimingWindows converts a pre/post note value pair into seconds at once.
func TimingWindows(pre, post NoteValue, bpm float64) (float64, float64) {
	return pre.Seconds(bpm), post.Seconds(bpm)
}

func (v *NoteValue) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); nil != err {
		return err
	}
	parsed, err := ParseNoteValue(s)
	if nil != err {
		return err
	}
	*v = parsed
	return nil
}

func (v NoteValue) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}
