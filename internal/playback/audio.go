package playback

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"

	"github.com/josephkirk/UniversalBeatGame/internal/chart"
)

// AudioPlayer implements Handle on top of the beep speaker. The bound chart
// asset names its backing media file; mp3 and ogg are supported.
//
// The finish callback fires on the speaker goroutine. Callers that need it
// on their own loop must funnel it through a channel; the CLI does exactly
// that.
type AudioPlayer struct {
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format

	initialized bool
	sampleRate  beep.SampleRate

	playing    bool
	loops      int
	onFinished func()
}

func NewAudioPlayer() *AudioPlayer {
	return &AudioPlayer{}
}

func (p *AudioPlayer) Load(asset *chart.Asset) error {
	if nil == asset || asset.Audio == "" {
		return fmt.Errorf("asset has no audio file to play")
	}
	p.Stop()
	p.closeStream()

	f, err := os.Open(asset.Audio)
	if nil != err {
		return fmt.Errorf("unable to open audio file: %w", err)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch path.Ext(asset.Audio) {
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		f.Close()
		return fmt.Errorf("unsupported audio format %q", path.Ext(asset.Audio))
	}
	if nil != err {
		f.Close()
		return fmt.Errorf("unable to decode %v: %w", asset.Audio, err)
	}

	if !p.initialized || p.sampleRate != format.SampleRate {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/60)); nil != err {
			streamer.Close()
			return fmt.Errorf("unable to initialize speaker: %w", err)
		}
		p.initialized = true
		p.sampleRate = format.SampleRate
	}

	p.file = f
	p.streamer = streamer
	p.format = format
	return nil
}

func (p *AudioPlayer) Play() {
	if nil == p.streamer {
		return
	}
	p.playing = true
	plays := p.loops + 1
	speaker.Play(beep.Seq(
		beep.Loop(plays, p.streamer),
		beep.Callback(func() {
			p.playing = false
			if nil != p.onFinished {
				p.onFinished()
			}
		}),
	))
}

func (p *AudioPlayer) Stop() {
	if p.initialized {
		speaker.Clear()
	}
	p.playing = false
}

func (p *AudioPlayer) IsPlaying() bool { return p.playing }

// CurrentTime derives the position from the stream sample counter. The loop
// wrapper rewinds the stream each iteration, so the position stays within
// the current pass.
func (p *AudioPlayer) CurrentTime() float64 {
	if nil == p.streamer {
		return 0
	}
	speaker.Lock()
	pos := p.streamer.Position()
	speaker.Unlock()
	return p.format.SampleRate.D(pos).Seconds()
}

func (p *AudioPlayer) SetLoopCount(n int) {
	if n < 0 {
		n = 0
	}
	p.loops = n
}

func (p *AudioPlayer) SetOnFinished(fn func()) { p.onFinished = fn }

// Close releases the current stream and file.
func (p *AudioPlayer) Close() {
	p.Stop()
	p.closeStream()
}

func (p *AudioPlayer) closeStream() {
	if nil != p.streamer {
		p.streamer.Close()
		p.streamer = nil
	}
	if nil != p.file {
		p.file = nil
	}
}
