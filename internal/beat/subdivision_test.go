package beat

import "testing"

var ticksTests = map[Subdivision]int{
	None:           0,
	WholeBeats:     16,
	HalfBeats:      8,
	QuarterBeats:   4,
	EighthBeats:    2,
	SixteenthBeats: 1,
}

func TestTicksPerBroadcast(t *testing.T) {
	for sub, expected := range ticksTests {
		if ticks := sub.TicksPerBroadcast(); ticks != expected {
			t.Log("subdivision:", sub)
			t.Log("ticks:      ", ticks)
			t.Log("expected:   ", expected)
			t.Fail()
		}
	}
}

func TestParseSubdivisionRoundtrip(t *testing.T) {
	for sub := range ticksTests {
		parsed, err := ParseSubdivision(sub.String())
		if nil != err || parsed != sub {
			t.Log("subdivision:", sub, "parsed:", parsed, "err:", err)
			t.Fail()
		}
	}
	if _, err := ParseSubdivision("thirtysecond"); nil == err {
		t.Log("expected an error for an unknown subdivision")
		t.Fail()
	}
}

type onSubdivisionTest struct {
	index  int
	target Subdivision
}

// Events broadcast at sixteenth granularity checked against coarser targets.
var onSubdivisionTests = map[onSubdivisionTest]bool{
	{0, WholeBeats}:     true,
	{8, WholeBeats}:     false,
	{8, HalfBeats}:      true,
	{4, QuarterBeats}:   true,
	{5, QuarterBeats}:   false,
	{2, EighthBeats}:    true,
	{3, EighthBeats}:    false,
	{7, SixteenthBeats}: true,
	{0, None}:           false,
}

func TestIsOnSubdivision(t *testing.T) {
	for test, expected := range onSubdivisionTests {
		ev := Event{SubdivisionIndex: test.index, Subdivision: SixteenthBeats}
		if got := IsOnSubdivision(ev, test.target); got != expected {
			t.Log("index:   ", test.index)
			t.Log("target:  ", test.target)
			t.Log("got:     ", got)
			t.Log("expected:", expected)
			t.Fail()
		}
	}
}

func TestIsOnSubdivisionFinerTarget(t *testing.T) {
	ev := Event{SubdivisionIndex: 0, Subdivision: WholeBeats}
	if IsOnSubdivision(ev, SixteenthBeats) {
		t.Log("a finer target than the broadcast granularity must not match")
		t.Fail()
	}
}
