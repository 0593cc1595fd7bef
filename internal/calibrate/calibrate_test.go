package calibrate

import (
	"math"
	"testing"

	"github.com/josephkirk/UniversalBeatGame/internal/beat"
)

type stubSource struct {
	now float64
}

func (s *stubSource) Now() float64       { return s.now }
func (s *stubSource) ScaledNow() float64 { return s.now }
func (s *stubSource) Scale() float64     { return 1 }

var clampOffsetTests = map[float64]float64{
	0:    0,
	50:   50,
	200:  200,
	250:  200,
	-300: -200,
}

func TestSetOffsetClamps(t *testing.T) {
	for in, expected := range clampOffsetTests {
		clock := beat.NewClock(&stubSource{})
		c := NewController(clock)
		c.SetOffset(in)
		if c.Offset() != expected {
			t.Log("in:      ", in)
			t.Log("offset:  ", c.Offset())
			t.Log("expected:", expected)
			t.Fail()
		}
		if math.Abs(clock.CalibrationOffset()-expected/1000) > 1e-9 {
			t.Log("clock offset:", clock.CalibrationOffset())
			t.Fail()
		}
	}
}

var promptClampTests = map[int]int{
	0:  MinPrompts,
	3:  MinPrompts,
	5:  5,
	12: 12,
	20: 20,
	50: MaxPrompts,
}

func TestRunSequenceClampsPromptCount(t *testing.T) {
	for in, expected := range promptClampTests {
		c := NewController(nil)
		c.RunSequence(in)
		if c.Remaining() != expected {
			t.Log("in:       ", in)
			t.Log("remaining:", c.Remaining())
			t.Log("expected: ", expected)
			t.Fail()
		}
	}
}

func TestProcessInputAggregatesMean(t *testing.T) {
	c := NewController(nil)

	var offset float64
	var ok bool
	completions := 0
	c.OnComplete(func(o float64, k bool) { offset, ok, completions = o, k, completions+1 })

	c.RunSequence(5)
	for _, sample := range []float64{10, 20, 30, 40, 50} {
		c.ProcessInput(sample)
	}

	if completions != 1 || !ok {
		t.Log("completions:", completions, "ok:", ok)
		t.FailNow()
	}
	if math.Abs(offset-30) > 1e-9 {
		t.Log("offset:", offset)
		t.Fail()
	}
	if c.Active() {
		t.Log("session still active after completion")
		t.Fail()
	}
}

func TestProcessInputIgnoredOutsideSequence(t *testing.T) {
	c := NewController(nil)
	completions := 0
	c.OnComplete(func(float64, bool) { completions++ })

	c.ProcessInput(15)
	if c.Active() || completions != 0 {
		t.Log("input outside a sequence changed state")
		t.Fail()
	}
}

func TestRunSequenceDiscardsPrevious(t *testing.T) {
	c := NewController(nil)
	c.RunSequence(5)
	c.ProcessInput(100)
	c.ProcessInput(100)

	var offset float64
	c.OnComplete(func(o float64, _ bool) { offset = o })
	c.RunSequence(5)
	for i := 0; i < 5; i++ {
		c.ProcessInput(10)
	}
	if math.Abs(offset-10) > 1e-9 {
		t.Log("offset:", offset)
		t.Fail()
	}
}
