package chart

import (
	"log"
	"math"
	"sort"
)

type consumedKey struct {
	timestamp int64
	tag       string
}

// Index is the sorted store of a loaded chart's notes with forward-only
// windowed matching. Playback time must be monotonically increasing between
// calls; rewinding breaks the cursor invariant.
type Index struct {
	notes      []Instance
	consumed   map[consumedKey]struct{}
	cursor     int
	resolution float64 // chart ticks per second, cached at load
	loaded     bool
}

func NewIndex() *Index {
	return &Index{consumed: map[consumedKey]struct{}{}}
}

// Load rebuilds the index wholesale from an asset: all tracks are flattened,
// sorted ascending by timestamp, the cursor reset and consumption cleared.
// Returns false (and leaves the index empty) if the asset is absent or
// contributes no notes.
func (x *Index) Load(a *Asset) bool {
	x.Clear()
	if nil == a {
		log.Println("chart: no asset to load")
		return false
	}
	for _, tr := range a.Tracks {
		x.notes = append(x.notes, tr.Notes...)
	}
	if len(x.notes) == 0 {
		log.Printf("chart: asset %q contributes no notes", a.Name)
		x.notes = nil
		return false
	}
	sort.SliceStable(x.notes, func(i, j int) bool {
		return x.notes[i].Timestamp < x.notes[j].Timestamp
	})
	x.resolution = a.Resolution
	x.loaded = true
	return true
}

// Clear empties the index (used on stop/unload).
func (x *Index) Clear() {
	x.notes = nil
	x.consumed = map[consumedKey]struct{}{}
	x.cursor = 0
	x.resolution = 0
	x.loaded = false
}

func (x *Index) Loaded() bool { return x.loaded }

// All returns the sorted note instances.
func (x *Index) All() []Instance { return x.notes }

func (x *Index) Count() int { return len(x.notes) }

// NextForTag scans forward from the cursor for an unconsumed note with the
// given tag whose timing window contains currentTime. Notes whose window has
// already closed are permanent misses and are skipped; scanning stops at the
// first note whose window has not opened yet. The monotonic playback time
// makes the scan amortized O(1) per call.
func (x *Index) NextForTag(tag string, currentTime, bpm float64) (*Instance, bool) {
	if !x.loaded || tag == "" || bpm <= 0 {
		return nil, false
	}
	for i := x.cursor; i < len(x.notes); i++ {
		n := &x.notes[i]
		if x.IsConsumed(n) {
			continue
		}
		if nil == n.Def || n.Def.Tag != tag {
			continue
		}
		noteTime := x.FrameToSeconds(n.Timestamp)
		pre := n.Def.Pre.Seconds(bpm)
		post := n.Def.Post.Seconds(bpm)

		if currentTime >= noteTime-pre && currentTime <= noteTime+post {
			x.cursor = i
			return n, true
		}
		if currentTime > noteTime+post {
			// Window closed: permanent miss, keep scanning.
			continue
		}
		// Window not open yet; later notes are unreachable too.
		break
	}
	return nil, false
}

// MarkConsumed records a matched note so it is never returned again for the
// same tag.
func (x *Index) MarkConsumed(n *Instance) {
	if nil == n || nil == n.Def {
		return
	}
	x.consumed[consumedKey{n.Timestamp, n.Def.Tag}] = struct{}{}
}

func (x *Index) IsConsumed(n *Instance) bool {
	if nil == n || nil == n.Def {
		return false
	}
	_, ok := x.consumed[consumedKey{n.Timestamp, n.Def.Tag}]
	return ok
}

// ResetConsumed clears consumption and the cursor, used when a chart loops
// or restarts.
func (x *Index) ResetConsumed() {
	x.consumed = map[consumedKey]struct{}{}
	x.cursor = 0
}

// FrameToSeconds converts a chart tick to seconds at the loaded resolution.
func (x *Index) FrameToSeconds(frame int64) float64 {
	if x.resolution <= 0 {
		return 0
	}
	return float64(frame) / x.resolution
}

// SecondsToFrame converts seconds to the nearest chart tick.
func (x *Index) SecondsToFrame(seconds float64) int64 {
	return int64(math.Round(seconds * x.resolution))
}
