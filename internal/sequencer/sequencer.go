// Package sequencer owns song and track playback: a sequential state
// machine that queues songs, walks their tracks, drives chart loading into
// the index and controls the shared playback handle.
package sequencer

import (
	"log"

	"github.com/josephkirk/UniversalBeatGame/internal/beat"
	"github.com/josephkirk/UniversalBeatGame/internal/chart"
	"github.com/josephkirk/UniversalBeatGame/internal/playback"
	"github.com/josephkirk/UniversalBeatGame/internal/song"
)

// State is the playback machine's current position.
type State int

const (
	Idle State = iota
	SongActive
	TrackPending
	TrackPlaying
)

func (s State) String() string {
	switch s {
	case SongActive:
		return "song-active"
	case TrackPending:
		return "track-pending"
	case TrackPlaying:
		return "track-playing"
	}
	return "idle"
}

// AssetLoader resolves a track's chart reference into an asset.
type AssetLoader interface {
	LoadAsset(ref string) (*chart.Asset, error)
}

// Sequencer plays registered songs track by track through one shared
// playback handle. All methods must run on the scheduling goroutine; the
// only cross-goroutine entry point is NotifyTrackFinished, which merely
// sets a flag drained by Update.
type Sequencer struct {
	handle playback.Handle
	index  *chart.Index
	loader AssetLoader
	src    beat.TimeSource
	debug  bool

	state State
	songs map[string]*song.Config

	songQueue  []*song.Config
	current    *song.Config
	trackQueue []song.TrackEntry

	trackIndex   int
	currentTrack song.TrackEntry

	// Deferred-start bookkeeping for TrackPending.
	pendingAsset *chart.Asset
	pendingAt    float64

	trackFinished bool

	onSongStarted []func(*song.Config)
	onSongEnded   []func(*song.Config)
	onTrackStart  []func(index int)
	onTrackEnd    []func(index int)
}

func New(handle playback.Handle, index *chart.Index, loader AssetLoader, src beat.TimeSource) *Sequencer {
	return &Sequencer{
		handle: handle,
		index:  index,
		loader: loader,
		src:    src,
		songs:  map[string]*song.Config{},
	}
}

func (s *Sequencer) EnableDebugLogging(enabled bool) { s.debug = enabled }

func (s *Sequencer) OnSongStarted(fn func(*song.Config)) {
	s.onSongStarted = append(s.onSongStarted, fn)
}

func (s *Sequencer) OnSongEnded(fn func(*song.Config)) {
	s.onSongEnded = append(s.onSongEnded, fn)
}

func (s *Sequencer) OnTrackStarted(fn func(index int)) {
	s.onTrackStart = append(s.onTrackStart, fn)
}

func (s *Sequencer) OnTrackEnded(fn func(index int)) {
	s.onTrackEnd = append(s.onTrackEnd, fn)
}

func (s *Sequencer) State() State { return s.state }

func (s *Sequencer) CurrentSong() *song.Config { return s.current }

// Register adds a song to the registry, keyed by its tag. A song with the
// same tag replaces the previous entry.
func (s *Sequencer) Register(cfg *song.Config) {
	if nil == cfg || cfg.Tag == "" {
		log.Println("sequencer: cannot register song without a tag")
		return
	}
	s.songs[cfg.Tag] = cfg
}

// Unregister removes a song. Unregistering the active song stops it.
func (s *Sequencer) Unregister(tag string) {
	if nil != s.current && s.current.Tag == tag {
		s.StopCurrentSong()
	}
	delete(s.songs, tag)
}

// PlayByTag requests a registered song. With enqueue false any active song
// is stopped and the pending queue cleared first; with enqueue true the
// song waits its turn. Playback begins immediately when nothing is playing.
func (s *Sequencer) PlayByTag(tag string, enqueue bool) bool {
	cfg, ok := s.songs[tag]
	if !ok {
		log.Printf("sequencer: no song registered for tag %q", tag)
		return false
	}
	if !enqueue {
		s.songQueue = nil
		if nil != s.current {
			s.StopCurrentSong()
		}
	}
	s.songQueue = append(s.songQueue, cfg)
	if nil == s.current && s.state == Idle {
		s.playNextSong()
	}
	return true
}

// playNextSong dequeues and starts the next queued song. A song with no
// tracks is skipped in favor of the next one.
func (s *Sequencer) playNextSong() {
	if len(s.songQueue) == 0 {
		s.state = Idle
		return
	}
	s.current = s.songQueue[0]
	s.songQueue = s.songQueue[1:]

	for _, fn := range s.onSongStarted {
		fn(s.current)
	}
	if s.debug {
		log.Printf("sequencer: song %q started (%d tracks)", s.current.Label, s.current.TrackCount())
	}

	if s.current.TrackCount() == 0 {
		log.Printf("sequencer: song %q has no tracks, skipping", s.current.Label)
		ended := s.current
		s.current = nil
		for _, fn := range s.onSongEnded {
			fn(ended)
		}
		s.playNextSong()
		return
	}

	s.trackQueue = append([]song.TrackEntry(nil), s.current.Tracks...)
	s.trackIndex = -1
	s.state = SongActive
	s.playNextTrack()
}

// playNextTrack dequeues the next track; with the queue empty the song is
// complete and the next queued song is attempted. A track whose asset fails
// to load is skipped.
func (s *Sequencer) playNextTrack() {
	if len(s.trackQueue) == 0 {
		s.completeSong()
		return
	}
	entry := s.trackQueue[0]
	s.trackQueue = s.trackQueue[1:]
	s.trackIndex++
	s.currentTrack = entry

	asset, err := s.loader.LoadAsset(entry.Chart)
	if nil != err {
		log.Printf("sequencer: unable to load chart %q, skipping track: %v", entry.Chart, err)
		s.playNextTrack()
		return
	}

	if entry.Delay > 0 {
		s.pendingAsset = asset
		s.pendingAt = s.src.Now() + entry.Delay
		s.state = TrackPending
		if s.debug {
			log.Printf("sequencer: track %d deferred %.2fs", s.trackIndex, entry.Delay)
		}
		return
	}
	s.startTrack(asset)
}

// startTrack binds the shared handle to the asset, loads the chart for
// validation, configures looping and begins playback.
func (s *Sequencer) startTrack(asset *chart.Asset) {
	s.pendingAsset = nil
	if err := s.handle.Load(asset); nil != err {
		log.Printf("sequencer: handle rejected asset %q, skipping track: %v", asset.Name, err)
		s.playNextTrack()
		return
	}
	if !s.index.Load(asset) {
		log.Printf("sequencer: chart %q is empty, validation falls back to beat timing", asset.Name)
	}
	s.handle.SetLoopCount(s.currentTrack.Loops)
	s.handle.SetOnFinished(s.NotifyTrackFinished)
	s.handle.Play()
	s.state = TrackPlaying
	for _, fn := range s.onTrackStart {
		fn(s.trackIndex)
	}
	if s.debug {
		log.Printf("sequencer: track %d started (%q)", s.trackIndex, asset.Name)
	}
}

func (s *Sequencer) completeSong() {
	ended := s.current
	s.current = nil
	s.index.Clear()
	s.state = Idle
	if nil != ended {
		for _, fn := range s.onSongEnded {
			fn(ended)
		}
		if s.debug {
			log.Printf("sequencer: song %q ended", ended.Label)
		}
	}
	s.playNextSong()
}

// NotifyTrackFinished records that the handle finished the current track.
// Safe to call from a playback callback; the transition itself happens in
// Update on the scheduling goroutine.
func (s *Sequencer) NotifyTrackFinished() {
	s.trackFinished = true
}

// Update drains deferred work: pending track starts whose delay elapsed and
// finish notifications from the playback handle. The driver calls it every
// scheduling cycle.
func (s *Sequencer) Update() {
	if s.trackFinished {
		s.trackFinished = false
		if s.state == TrackPlaying {
			for _, fn := range s.onTrackEnd {
				fn(s.trackIndex)
			}
			if s.debug {
				log.Printf("sequencer: track %d ended", s.trackIndex)
			}
			s.state = SongActive
			s.playNextTrack()
			return
		}
	}
	if s.state == TrackPending && nil != s.pendingAsset && s.src.Now() >= s.pendingAt {
		s.startTrack(s.pendingAsset)
	}
}

// StopCurrentSong stops playback, clears both queues and the chart index,
// and broadcasts song-ended. Idempotent: stopping twice is harmless.
func (s *Sequencer) StopCurrentSong() {
	if nil != s.handle {
		s.handle.Stop()
	}
	s.songQueue = nil
	s.trackQueue = nil
	s.pendingAsset = nil
	s.trackFinished = false
	s.index.Clear()
	ended := s.current
	s.current = nil
	s.state = Idle
	if nil != ended {
		for _, fn := range s.onSongEnded {
			fn(ended)
		}
		if s.debug {
			log.Printf("sequencer: song %q stopped", ended.Label)
		}
	}
}
