package chart

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/josephkirk/UniversalBeatGame/internal/beat"
	"gopkg.in/yaml.v3"
)

// Chart files are YAML documents:
//
//	name: intro
//	audio: audio/intro.mp3
//	resolution: 48          # chart ticks per second
//	definitions:
//	  - tag: Input.Left
//	    label: Left
//	    pre: quarter
//	    post: eighth
//	  - tag: Input.Right
//	tracks:
//	  - name: lead
//	    notes:
//	      - at: 96
//	        def: Input.Left

type fileNote struct {
	At  int64  `yaml:"at"`
	Def string `yaml:"def"`
}

type fileTrack struct {
	Name  string     `yaml:"name"`
	Notes []fileNote `yaml:"notes"`
}

type fileDefinition struct {
	Label       string `yaml:"label"`
	Tag         string `yaml:"tag"`
	Pre         string `yaml:"pre"`
	Post        string `yaml:"post"`
	Interaction string `yaml:"interaction"`
}

type chartFile struct {
	Name        string           `yaml:"name"`
	Audio       string           `yaml:"audio"`
	Resolution  float64          `yaml:"resolution"`
	Definitions []fileDefinition `yaml:"definitions"`
	Tracks      []fileTrack      `yaml:"tracks"`
}

// Parse decodes a chart document, applies definition defaults and resolves
// note references.
func Parse(data []byte) (*Asset, error) {
	var f chartFile
	if err := yaml.Unmarshal(data, &f); nil != err {
		return nil, fmt.Errorf("unable to decode chart: %w", err)
	}
	if f.Resolution <= 0 {
		return nil, fmt.Errorf("chart %q: resolution must be positive, got %v", f.Name, f.Resolution)
	}

	asset := &Asset{
		Name:       f.Name,
		Audio:      f.Audio,
		Resolution: f.Resolution,
	}

	defs := make(map[string]*Definition, len(f.Definitions))
	for _, fd := range f.Definitions {
		if fd.Tag == "" {
			return nil, fmt.Errorf("chart %q: definition with empty tag", f.Name)
		}
		def, err := buildDefinition(fd)
		if nil != err {
			return nil, fmt.Errorf("chart %q: %w", f.Name, err)
		}
		defs[def.Tag] = def
		asset.Defs = append(asset.Defs, def)
	}

	for _, ft := range f.Tracks {
		track := Track{Name: ft.Name}
		for _, fn := range ft.Notes {
			def, ok := defs[fn.Def]
			if !ok {
				return nil, fmt.Errorf("chart %q: note at %d references unknown definition %q", f.Name, fn.At, fn.Def)
			}
			track.Notes = append(track.Notes, Instance{Timestamp: fn.At, Def: def})
		}
		asset.Tracks = append(asset.Tracks, track)
	}

	return asset, nil
}

func buildDefinition(fd fileDefinition) (*Definition, error) {
	def := &Definition{
		Label: fd.Label,
		Tag:   fd.Tag,
		// Authoring defaults: forgiving before the note, stricter after.
		Pre:         beat.Eighth,
		Post:        beat.Quarter,
		Interaction: Press,
	}
	if def.Label == "" {
		def.Label = "Unnamed Note"
	}
	var err error
	if fd.Pre != "" {
		if def.Pre, err = beat.ParseNoteValue(fd.Pre); nil != err {
			return nil, err
		}
	}
	if fd.Post != "" {
		if def.Post, err = beat.ParseNoteValue(fd.Post); nil != err {
			return nil, err
		}
	}
	if fd.Interaction != "" {
		if def.Interaction, err = ParseInteraction(fd.Interaction); nil != err {
			return nil, err
		}
	}
	if def.Pre == beat.Sixteenth && def.Post == beat.Sixteenth {
		log.Printf("chart: note %q: very strict timing windows (1/16 + 1/16) may be difficult for players", def.Label)
	}
	return def, nil
}

// LoadFile reads and parses a chart document from disk.
func LoadFile(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if nil != err {
		return nil, fmt.Errorf("unable to read chart file: %w", err)
	}
	return Parse(data)
}

// FileLoader resolves chart references as paths relative to a base
// directory. It is the asset loader used by the CLI.
type FileLoader struct {
	Base string
}

func (l *FileLoader) LoadAsset(ref string) (*Asset, error) {
	if l.Base != "" {
		return LoadFile(filepath.Join(l.Base, ref))
	}
	return LoadFile(ref)
}
