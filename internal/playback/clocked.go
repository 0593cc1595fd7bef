package playback

import (
	"errors"
	"log"

	"github.com/josephkirk/UniversalBeatGame/internal/beat"
	"github.com/josephkirk/UniversalBeatGame/internal/chart"
)

// ClockedPlayer advances playback with a host time source instead of an
// audio stream. It is used for silent charts and throughout the tests. The
// owner must call Update from its scheduling loop so track ends and loop
// wraps are detected.
type ClockedPlayer struct {
	src beat.TimeSource

	asset     *chart.Asset
	length    float64
	startedAt float64
	playing   bool

	loops     int
	remaining int

	onFinished func()
}

func NewClockedPlayer(src beat.TimeSource) *ClockedPlayer {
	return &ClockedPlayer{src: src}
}

func (p *ClockedPlayer) Load(asset *chart.Asset) error {
	if nil == asset {
		return errors.New("no asset to load")
	}
	p.Stop()
	p.asset = asset
	p.length = asset.Length()
	return nil
}

func (p *ClockedPlayer) Play() {
	if nil == p.asset {
		log.Println("playback: play requested with no asset loaded")
		return
	}
	p.startedAt = p.src.Now()
	p.remaining = p.loops
	p.playing = true
}

func (p *ClockedPlayer) Stop() {
	p.playing = false
}

func (p *ClockedPlayer) IsPlaying() bool { return p.playing }

func (p *ClockedPlayer) CurrentTime() float64 {
	if !p.playing {
		return 0
	}
	return p.src.Now() - p.startedAt
}

func (p *ClockedPlayer) SetLoopCount(n int) {
	if n < 0 {
		n = 0
	}
	p.loops = n
}

func (p *ClockedPlayer) SetOnFinished(fn func()) { p.onFinished = fn }

// Update detects the end of the current iteration. A looping track wraps
// without notifying; the finish callback fires once after the final pass.
func (p *ClockedPlayer) Update() {
	if !p.playing {
		return
	}
	if p.length <= 0 {
		// A zero-length chart finishes immediately, loops included.
		p.playing = false
		if nil != p.onFinished {
			p.onFinished()
		}
		return
	}
	for p.playing && p.src.Now()-p.startedAt >= p.length {
		if p.remaining > 0 {
			p.remaining--
			p.startedAt += p.length
			continue
		}
		p.playing = false
		if nil != p.onFinished {
			p.onFinished()
		}
	}
}
