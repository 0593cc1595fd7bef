package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"
)

// FromSMF converts a standard MIDI file into a chart asset. Each note-on
// becomes an instance; mapping selects which MIDI keys participate and which
// definition they carry. Keys without a mapping are skipped. The chart
// resolution is derived from the file's metric ticks and its first tempo
// (120 BPM when the file carries none).
func FromSMF(r io.Reader, name string, mapping map[uint8]*Definition) (a *Asset, e error) {
	if len(mapping) == 0 {
		return nil, errors.New("midi import needs at least one key mapping")
	}

	// The SMF reader can panic on malformed files.
	defer func() {
		if rec, ok := recover().(string); ok {
			e = errors.New(rec)
		}
	}()

	mf, err := smf.ReadFrom(r)
	if nil != err {
		return nil, fmt.Errorf("unable to parse midi file: %w", err)
	}

	ticksPerQuarter := 960.0
	if mt, ok := mf.TimeFormat.(smf.MetricTicks); ok {
		ticksPerQuarter = float64(mt.Ticks4th())
	}

	tempo := 120.0
	tempoSeen := false

	asset := &Asset{Name: name}
	for ti, track := range mf.Tracks {
		var absTicks int64
		tr := Track{Name: fmt.Sprintf("midi-%d", ti)}
		for _, evt := range track {
			absTicks += int64(evt.Delta)

			var bpm float64
			if evt.Message.GetMetaTempo(&bpm) && !tempoSeen {
				tempo = bpm
				tempoSeen = true
				continue
			}

			var channel, key, velocity uint8
			if !evt.Message.GetNoteStart(&channel, &key, &velocity) {
				continue
			}
			def, ok := mapping[key]
			if !ok || nil == def {
				continue
			}
			tr.Notes = append(tr.Notes, Instance{Timestamp: absTicks, Def: def})
		}
		if len(tr.Notes) > 0 {
			asset.Tracks = append(asset.Tracks, tr)
			for _, def := range mapping {
				if !containsDef(asset.Defs, def) {
					asset.Defs = append(asset.Defs, def)
				}
			}
		}
	}

	// Chart ticks per second at the file tempo.
	asset.Resolution = ticksPerQuarter * tempo / 60.0

	if asset.NoteCount() == 0 {
		return nil, fmt.Errorf("midi file %q contains no mapped notes", name)
	}
	return asset, nil
}

func containsDef(defs []*Definition, def *Definition) bool {
	for _, d := range defs {
		if d == def {
			return true
		}
	}
	return false
}

// FromMIDIFile imports a chart from a MIDI file on disk.
func FromMIDIFile(path string, mapping map[uint8]*Definition) (*Asset, error) {
	data, err := os.ReadFile(path)
	if nil != err {
		return nil, fmt.Errorf("unable to read midi file: %w", err)
	}
	return FromSMF(bytes.NewReader(data), path, mapping)
}
