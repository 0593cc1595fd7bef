package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/eiannone/keyboard"
	"golang.org/x/term"

	"github.com/josephkirk/UniversalBeatGame/internal/beat"
	"github.com/josephkirk/UniversalBeatGame/internal/calibrate"
	"github.com/josephkirk/UniversalBeatGame/internal/chart"
	"github.com/josephkirk/UniversalBeatGame/internal/config"
	"github.com/josephkirk/UniversalBeatGame/internal/playback"
	"github.com/josephkirk/UniversalBeatGame/internal/sequencer"
	"github.com/josephkirk/UniversalBeatGame/internal/song"
	"github.com/josephkirk/UniversalBeatGame/internal/store"
)

func main() {
	if err := run(); nil != err {
		log.Fatalln(err)
	}
}

func run() error {
	db, err := store.Open(*config.Database)
	if nil != err {
		return err
	}
	defer db.Close()

	src := beat.NewRealTime()
	clock := beat.NewClock(src)
	clock.EnableDebugLogging(*config.Debug)
	clock.SetRespectTimeScale(*config.Dilated)
	clock.SetBPM(*config.BPM)

	calibrator := calibrate.NewController(clock)
	if *config.Offset != 0 {
		calibrator.SetOffset(float64(config.Offset.Milliseconds()))
	} else if stored, ok, err := db.LastCalibration(); nil == err && ok {
		log.Printf("applying stored calibration offset %.2fms", stored)
		calibrator.SetOffset(stored)
	}

	keyChannel, err := keyboard.GetKeys(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); nil != err {
			log.Println("unable to close keyboard:", err)
		}
	}()

	if *config.Calibrate > 0 {
		return runCalibration(clock, calibrator, db, keyChannel)
	}
	if *config.Song == "" {
		return errors.New("no song file given (and --calibrate not requested)")
	}
	return runSong(src, clock, db, keyChannel)
}

func runSong(src beat.TimeSource, clock *beat.Clock, db *store.Store,
	keyChannel <-chan keyboard.KeyEvent) error {

	sub, err := beat.ParseSubdivision(*config.Subdivision)
	if nil != err {
		return err
	}

	cfg, err := song.LoadFile(*config.Song)
	if nil != err {
		return err
	}

	loader := &chart.FileLoader{Base: *config.ChartDir}

	// One shared handle plays every track of the song in turn. Songs whose
	// charts all name a media file play audibly; anything else advances on
	// the host clock alone.
	var handle playback.Handle
	var clocked *playback.ClockedPlayer
	if allTracksHaveAudio(cfg, loader) {
		audio := playback.NewAudioPlayer()
		defer audio.Close()
		handle = audio
	} else {
		clocked = playback.NewClockedPlayer(src)
		handle = clocked
	}

	eval := beat.NewEvaluator(clock)
	eval.EnableDebugLogging(*config.Debug)
	index := chart.NewIndex()
	validator := sequencer.NewValidator(clock, eval, index, handle, src)
	validator.EnableDebugLogging(*config.Debug)
	seq := sequencer.New(handle, index, loader, src)
	seq.EnableDebugLogging(*config.Debug)

	columns, _, err := term.GetSize(int(os.Stdout.Fd()))
	if nil != err || columns < 24 {
		columns = 80
	}

	clock.OnBeat(func(ev beat.Event) {
		fmt.Printf("\r%s beat %3d +%d\033[K",
			beatMeter(clock.Phase(), columns/3), ev.BeatNumber, ev.SubdivisionIndex)
	})
	clock.OnBPMChanged(func(oldBPM, newBPM float64) {
		fmt.Printf("\ntempo %.0f -> %.0f\n", oldBPM, newBPM)
	})
	seq.OnSongStarted(func(c *song.Config) { fmt.Printf("\n[%v] started\n", c.Label) })
	seq.OnSongEnded(func(c *song.Config) { fmt.Printf("\n[%v] ended\n", c.Label) })
	seq.OnTrackStarted(func(i int) { fmt.Printf("\ntrack %d started\n", i) })
	seq.OnTrackEnded(func(i int) { fmt.Printf("\ntrack %d ended\n", i) })

	seq.Register(cfg)
	clock.EnableBroadcasting(sub)
	clock.Start()
	if !seq.PlayByTag(cfg.Tag, false) {
		return fmt.Errorf("unable to start song %q", cfg.Tag)
	}

	for {
		clock.Advance()
		if nil != clocked {
			clocked.Update()
		}
		seq.Update()

		for i := 0; i < len(keyChannel); i++ {
			key := <-keyChannel
			if key.Key == keyboard.KeyEsc {
				seq.StopCurrentSong()
				return nil
			}
			tag, ok := config.KeyTag(key.Rune)
			if !ok {
				continue
			}
			result := validator.CheckByTag(tag)
			printResult(tag, result)
			if err := db.SaveCheck(store.CheckRecord{
				Tag:      tag,
				Hit:      result.Hit,
				Accuracy: result.Accuracy,
				OffsetMs: result.Offset * 1000,
			}); nil != err {
				log.Println(err)
			}
		}

		if seq.State() == sequencer.Idle && nil == seq.CurrentSong() {
			fmt.Println()
			return nil
		}
		time.Sleep(wait(clock))
	}
}

// wait caps the clock's next-tick estimate so key input stays responsive.
func wait(clock *beat.Clock) time.Duration {
	w := clock.Until()
	if w > 4*time.Millisecond {
		w = 4 * time.Millisecond
	}
	if w < time.Millisecond {
		w = time.Millisecond
	}
	return w
}

func runCalibration(clock *beat.Clock, calibrator *calibrate.Controller,
	db *store.Store, keyChannel <-chan keyboard.KeyEvent) error {

	done := make(chan struct{})
	calibrator.OnComplete(func(offsetMs float64, ok bool) {
		if !ok {
			log.Println("calibration collected no samples")
			close(done)
			return
		}
		calibrator.SetOffset(offsetMs)
		if err := db.SaveCalibration(offsetMs, ok); nil != err {
			log.Println(err)
		}
		fmt.Printf("\ncalibration offset %.2fms saved\n", offsetMs)
		close(done)
	})

	clock.OnBeat(func(ev beat.Event) {
		if calibrator.Active() {
			fmt.Printf("\rpress any key on the beat (%d left) \033[K", calibrator.Remaining())
		}
	})
	clock.EnableBroadcasting(beat.WholeBeats)
	clock.Start()
	calibrator.RunSequence(*config.Calibrate)

	for {
		select {
		case <-done:
			return nil
		default:
		}
		clock.Advance()
		for i := 0; i < len(keyChannel); i++ {
			key := <-keyChannel
			if key.Key == keyboard.KeyEsc {
				return nil
			}
			// Distance from the tick midpoint, in milliseconds.
			offsetMs := clock.Phase() / 2 * (clock.SecondsPerBeat() / beat.TicksPerBeat) * 1000
			calibrator.ProcessInput(offsetMs)
		}
		time.Sleep(wait(clock))
	}
}

func allTracksHaveAudio(cfg *song.Config, loader *chart.FileLoader) bool {
	if len(cfg.Tracks) == 0 {
		return false
	}
	for _, tr := range cfg.Tracks {
		asset, err := loader.LoadAsset(tr.Chart)
		if nil != err || asset.Audio == "" {
			return false
		}
	}
	return true
}

func beatMeter(phase float64, width int) string {
	if width < 8 {
		width = 8
	}
	marker := int((phase + 1) / 2 * float64(width-1))
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < width; i++ {
		switch i {
		case marker:
			b.WriteByte('|')
		case width / 2:
			b.WriteByte('+')
		default:
			b.WriteByte('-')
		}
	}
	b.WriteByte(']')
	return b.String()
}

func printResult(tag string, r sequencer.Result) {
	if !r.Hit {
		fmt.Printf("\n%-16s miss (%v)\n", tag, r.Direction)
		return
	}
	if nil == r.Note {
		fmt.Printf("\n%-16s beat accuracy %.2f\n", tag, r.Accuracy)
		return
	}
	fmt.Printf("\n%-16s hit %v by %4.0fms, accuracy %.2f\n",
		tag, r.Direction, r.Offset*1000, r.Accuracy)
}
