package chart

import (
	"fmt"

	"github.com/josephkirk/UniversalBeatGame/internal/beat"
	"gopkg.in/yaml.v3"
)

// Interaction is the input gesture a note expects.
type Interaction int

const (
	Press Interaction = iota
	Hold
	Release
)

var interactionNames = map[Interaction]string{
	Press:   "press",
	Hold:    "hold",
	Release: "release",
}

func (i Interaction) String() string {
	if name, ok := interactionNames[i]; ok {
		return name
	}
	return "press"
}

func ParseInteraction(s string) (Interaction, error) {
	for v, name := range interactionNames {
		if s == name {
			return v, nil
		}
	}
	return Press, fmt.Errorf("unknown interaction %q", s)
}

func (i *Interaction) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); nil != err {
		return err
	}
	parsed, err := ParseInteraction(s)
	if nil != err {
		return err
	}
	*i = parsed
	return nil
}

func (i Interaction) MarshalYAML() (interface{}, error) {
	return i.String(), nil
}

// Definition describes one note type: its identifying tag and the musical
// tolerance windows around its timestamp. Definitions are immutable
// configuration shared by many instances.
type Definition struct {
	Label       string         `yaml:"label"`
	Tag         string         `yaml:"tag"`
	Pre         beat.NoteValue `yaml:"pre"`
	Post        beat.NoteValue `yaml:"post"`
	Interaction Interaction    `yaml:"interaction"`
}

// Instance is a single expected note at a timestamp within a chart. The
// timestamp is in chart ticks (see Asset.Resolution). Immutable once loaded.
type Instance struct {
	Timestamp int64
	Def       *Definition
}

// Track is one ordered lane of note instances.
type Track struct {
	Name  string
	Notes []Instance
}

// Asset is a read-only chart: every track's note instances plus the chart's
// own time resolution in ticks per second. Audio optionally names the media
// file backing the chart during playback.
type Asset struct {
	Name       string
	Audio      string
	Resolution float64
	Defs       []*Definition
	Tracks     []Track
}

// NoteCount returns the total number of note instances across all tracks.
func (a *Asset) NoteCount() int {
	n := 0
	for _, tr := range a.Tracks {
		n += len(tr.Notes)
	}
	return n
}

// Length returns the chart duration in seconds, measured to the last note.
func (a *Asset) Length() float64 {
	if a.Resolution <= 0 {
		return 0
	}
	var last int64
	for _, tr := range a.Tracks {
		for _, n := range tr.Notes {
			if n.Timestamp > last {
				last = n.Timestamp
			}
		}
	}
	return float64(last) / a.Resolution
}
