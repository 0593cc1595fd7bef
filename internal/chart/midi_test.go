package chart

import (
	"bytes"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/josephkirk/UniversalBeatGame/internal/beat"
)

func writeTestSMF(t *testing.T) []byte {
	var mf smf.SMF
	mf.TimeFormat = smf.MetricTicks(480)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(240, midi.NoteOff(0, 60))
	tr.Add(240, midi.NoteOn(0, 62, 100))
	tr.Add(120, midi.NoteOff(0, 62))
	tr.Add(0, midi.NoteOn(0, 70, 100)) // unmapped key
	tr.Add(120, midi.NoteOff(0, 70))
	tr.Close(0)
	mf.Tracks = append(mf.Tracks, tr)

	var buf bytes.Buffer
	if _, err := mf.WriteTo(&buf); nil != err {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFromSMF(t *testing.T) {
	left := &Definition{Label: "Left", Tag: "Input.Left", Pre: beat.Eighth, Post: beat.Eighth}
	right := &Definition{Label: "Right", Tag: "Input.Right", Pre: beat.Eighth, Post: beat.Eighth}
	mapping := map[uint8]*Definition{60: left, 62: right}

	asset, err := FromSMF(bytes.NewReader(writeTestSMF(t)), "import-test", mapping)
	if nil != err {
		t.Fatal(err)
	}

	// 480 ticks/quarter at 120 BPM is 960 chart ticks/second.
	if asset.Resolution != 960 {
		t.Log("resolution:", asset.Resolution)
		t.Fail()
	}
	if asset.NoteCount() != 2 {
		t.Log("notes:", asset.NoteCount())
		t.FailNow()
	}

	notes := asset.Tracks[0].Notes
	if notes[0].Timestamp != 0 || notes[0].Def != left {
		t.Log("note:", notes[0])
		t.Fail()
	}
	if notes[1].Timestamp != 480 || notes[1].Def != right {
		t.Log("note:", notes[1])
		t.Fail()
	}
}

func TestFromSMFNoMapping(t *testing.T) {
	if _, err := FromSMF(bytes.NewReader(nil), "import-test", nil); nil == err {
		t.Log("expected an error without key mappings")
		t.Fail()
	}
}

func TestFromSMFNoMappedNotes(t *testing.T) {
	other := &Definition{Tag: "Input.Other"}
	mapping := map[uint8]*Definition{99: other}
	if _, err := FromSMF(bytes.NewReader(writeTestSMF(t)), "import-test", mapping); nil == err {
		t.Log("expected an error when no notes map")
		t.Fail()
	}
}

func TestFromSMFGarbage(t *testing.T) {
	mapping := map[uint8]*Definition{60: {Tag: "Input.Left"}}
	if _, err := FromSMF(bytes.NewReader([]byte("not a midi file")), "garbage", mapping); nil == err {
		t.Log("expected an error for a malformed file")
		t.Fail()
	}
}
