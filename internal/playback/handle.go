// Package playback defines the timed-playback handle the sequencer drives
// and two implementations of it: a clock-driven player for chart-only
// tracks and tests, and an audio player backed by beep.
package playback

import "github.com/josephkirk/UniversalBeatGame/internal/chart"

// Handle is the opaque playback engine a track is bound to. Exactly one
// handle is shared across all tracks of a song; the sequencer guarantees a
// single active track at a time.
type Handle interface {
	// Load binds the handle to a chart asset, replacing any previous binding.
	Load(asset *chart.Asset) error
	Play()
	Stop()
	IsPlaying() bool
	// CurrentTime is the playback position in seconds within the current
	// loop iteration.
	CurrentTime() float64
	// SetLoopCount configures how many times playback repeats after the
	// first pass. Loop bookkeeping belongs to the handle: the finish
	// notification fires only after all iterations complete.
	SetLoopCount(n int)
	// SetOnFinished replaces the finish notification callback.
	SetOnFinished(fn func())
}
