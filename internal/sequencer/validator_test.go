package sequencer

import (
	"math"
	"testing"

	"github.com/josephkirk/UniversalBeatGame/internal/beat"
	"github.com/josephkirk/UniversalBeatGame/internal/chart"
	"github.com/josephkirk/UniversalBeatGame/internal/playback"
)

type stubSource struct {
	now float64
}

func (s *stubSource) Now() float64       { return s.now }
func (s *stubSource) ScaledNow() float64 { return s.now }
func (s *stubSource) Scale() float64     { return 1 }

// A chart at 48 ticks/second with a left note at 2.0s (quarter/eighth
// windows), a right note at 3.0s (eighth/eighth) and a second left note at
// 4.0s.
func validatorAsset() *chart.Asset {
	left := &chart.Definition{Label: "Left", Tag: "Input.Left", Pre: beat.Quarter, Post: beat.Eighth}
	right := &chart.Definition{Label: "Right", Tag: "Input.Right", Pre: beat.Eighth, Post: beat.Eighth}
	return &chart.Asset{
		Name:       "validator-test",
		Resolution: 48,
		Defs:       []*chart.Definition{left, right},
		Tracks: []chart.Track{
			{Name: "lead", Notes: []chart.Instance{
				{Timestamp: 96, Def: left},
				{Timestamp: 144, Def: right},
				{Timestamp: 192, Def: left},
			}},
		},
	}
}

func newValidatorUnderTest(t *testing.T) (*Validator, *stubSource, *chart.Index) {
	src := &stubSource{}
	clock := beat.NewClock(src)
	clock.Start()
	eval := beat.NewEvaluator(clock)

	index := chart.NewIndex()
	if !index.Load(validatorAsset()) {
		t.Fatal("unable to load chart")
	}

	handle := playback.NewClockedPlayer(src)
	if err := handle.Load(validatorAsset()); nil != err {
		t.Fatal(err)
	}
	handle.Play()

	return NewValidator(clock, eval, index, handle, src), src, index
}

func TestCheckByTagEarlyHit(t *testing.T) {
	v, src, _ := newValidatorUnderTest(t)

	var triggered []Result
	v.OnNoteTriggered(func(r Result) { triggered = append(triggered, r) })

	// 0.4s before the 2.0s note, inside its 0.5s pre window.
	src.now = 1.6
	result := v.CheckByTag("Input.Left")
	if !result.Hit || result.Direction != Early {
		t.Log("result:", result)
		t.Fail()
	}
	if math.Abs(result.Offset-(-0.4)) > 1e-9 {
		t.Log("offset:", result.Offset)
		t.Fail()
	}
	// Accuracy degrades linearly over the 0.5s window: 1 - 0.4/0.5.
	if math.Abs(result.Accuracy-0.2) > 1e-9 {
		t.Log("accuracy:", result.Accuracy)
		t.Fail()
	}
	if len(triggered) != 1 || triggered[0].Note == nil || triggered[0].Note.Timestamp != 96 {
		t.Log("triggered:", triggered)
		t.Fail()
	}
}

func TestCheckByTagConsumesNote(t *testing.T) {
	v, src, _ := newValidatorUnderTest(t)

	src.now = 1.6
	if result := v.CheckByTag("Input.Left"); !result.Hit {
		t.Log("first check missed:", result)
		t.FailNow()
	}
	// The same note cannot be hit twice; with no other window open this is
	// a miss.
	result := v.CheckByTag("Input.Left")
	if result.Hit || result.Direction != Late || result.Accuracy != 0 {
		t.Log("result:", result)
		t.Fail()
	}
}

func TestCheckByTagLateHit(t *testing.T) {
	v, src, _ := newValidatorUnderTest(t)

	// 0.1s after the 3.0s right note, inside its 0.25s post window.
	src.now = 3.1
	result := v.CheckByTag("Input.Right")
	if !result.Hit || result.Direction != Late {
		t.Log("result:", result)
		t.Fail()
	}
	if math.Abs(result.Accuracy-0.6) > 1e-6 {
		t.Log("accuracy:", result.Accuracy)
		t.Fail()
	}
}

func TestCheckByTagOnTime(t *testing.T) {
	v, src, _ := newValidatorUnderTest(t)

	src.now = 4.0005
	result := v.CheckByTag("Input.Left")
	if !result.Hit || result.Direction != OnTime {
		t.Log("result:", result)
		t.Fail()
	}
	if result.Accuracy < 0.99 {
		t.Log("accuracy:", result.Accuracy)
		t.Fail()
	}
}

func TestCheckByTagOutsideWindow(t *testing.T) {
	v, src, _ := newValidatorUnderTest(t)

	src.now = 1.0
	if result := v.CheckByTag("Input.Left"); result.Hit {
		t.Log("hit before any window opened:", result)
		t.Fail()
	}
}

func TestCheckByTagFallsBackWithoutChart(t *testing.T) {
	src := &stubSource{}
	clock := beat.NewClock(src)
	clock.Start()
	eval := beat.NewEvaluator(clock)
	v := NewValidator(clock, eval, chart.NewIndex(), nil, src)

	// Midpoint of the tick interval: phase 0, fallback accuracy 1.
	src.now = (60.0 / beat.DefaultBPM) / beat.TicksPerBeat / 2
	result := v.CheckByTag("Input.Left")
	if !result.Hit || result.Direction != OnTime || result.Note != nil {
		t.Log("result:", result)
		t.Fail()
	}
	if math.Abs(result.Accuracy-1) > 1e-9 {
		t.Log("accuracy:", result.Accuracy)
		t.Fail()
	}
}
