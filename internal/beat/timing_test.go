package beat

import (
	"math"
	"testing"
)

var fallbackTests = map[float64]float64{
	0:    1,
	0.25: 0.75,
	0.5:  0.5,
	1:    0,
	1.5:  0, // input clamped to 1 first
	-0.5: 1, // input clamped to 0 first
}

func TestEvaluateFallback(t *testing.T) {
	e := NewEvaluator(NewClock(&stubSource{scale: 1}))
	for in, expected := range fallbackTests {
		value := e.Evaluate(in)
		if math.Abs(value-expected) > 1e-9 {
			t.Log("in:      ", in)
			t.Log("value:   ", value)
			t.Log("expected:", expected)
			t.Fail()
		}
	}
}

func TestCurveEvaluate(t *testing.T) {
	curve := &Curve{Points: []CurvePoint{
		{In: 0, Out: 1},
		{In: 0.5, Out: 0.8},
		{In: 1, Out: 0},
	}}
	for in, expected := range map[float64]float64{
		0:    1,
		0.25: 0.9,
		0.5:  0.8,
		0.75: 0.4,
		1:    0,
	} {
		value := curve.Evaluate(in)
		if math.Abs(value-expected) > 1e-9 {
			t.Log("in:      ", in)
			t.Log("value:   ", value)
			t.Log("expected:", expected)
			t.Fail()
		}
	}
}

func TestEvaluateClampsCurveOutput(t *testing.T) {
	e := NewEvaluator(NewClock(&stubSource{scale: 1}))
	e.SetCurve(&Curve{Points: []CurvePoint{{In: 0, Out: 2}, {In: 1, Out: -1}}})
	if v := e.Evaluate(0); v != 1 {
		t.Log("value:", v)
		t.Fail()
	}
	if v := e.Evaluate(1); v != 0 {
		t.Log("value:", v)
		t.Fail()
	}
}

func TestCheckByLabel(t *testing.T) {
	src := &stubSource{scale: 1}
	c := NewClock(src)
	c.Start()
	e := NewEvaluator(c)

	var label string
	var value float64
	e.OnCheck(func(l string, v float64) { label, value = l, v })

	// Midpoint of the tick interval scores a perfect hit.
	src.now = 0.5 * c.tickRate()
	result := e.CheckByLabel("")
	if math.Abs(result-1) > 1e-9 {
		t.Log("result:", result)
		t.Fail()
	}
	if label != "Default" || value != result {
		t.Log("label:", label, "value:", value)
		t.Fail()
	}

	// Right on a tick the phase is -1 and the fallback scores zero.
	src.now = 0
	if result := e.CheckByLabel("Input.Left"); result != 0 {
		t.Log("result:", result)
		t.Fail()
	}
}
