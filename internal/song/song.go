// Package song holds the immutable configuration records describing a song:
// an ordered list of chart tracks with per-track delay and loop settings.
package song

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TrackEntry references one chart within a song.
type TrackEntry struct {
	// Chart is the asset reference resolved by the sequencer's loader.
	Chart string `yaml:"chart"`
	// Delay in seconds before this track starts once it is reached.
	Delay float64 `yaml:"delay"`
	// Loops is how many times the track repeats after its first pass.
	Loops int `yaml:"loops"`
}

// Config is an immutable song definition.
type Config struct {
	Label  string       `yaml:"label"`
	Tag    string       `yaml:"tag"`
	Tracks []TrackEntry `yaml:"tracks"`
}

// Parse decodes a song document and normalizes recoverable bad input the
// same way invalid clock input is handled: clamp and warn, never fail.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); nil != err {
		return nil, fmt.Errorf("unable to decode song: %w", err)
	}
	if c.Label == "" {
		c.Label = "Unnamed Song"
		log.Println("song: label cannot be empty, reset to 'Unnamed Song'")
	}
	for i := range c.Tracks {
		if c.Tracks[i].Delay < 0 {
			log.Printf("song %q: track %d delay cannot be negative, reset to 0", c.Label, i)
			c.Tracks[i].Delay = 0
		}
		if c.Tracks[i].Loops < 0 {
			log.Printf("song %q: track %d loop count cannot be negative, reset to 0", c.Label, i)
			c.Tracks[i].Loops = 0
		}
	}
	for _, issue := range c.Validate() {
		log.Printf("song %q: %s", c.Label, issue)
	}
	return &c, nil
}

// LoadFile reads and parses a song document from disk.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if nil != err {
		return nil, fmt.Errorf("unable to read song file: %w", err)
	}
	return Parse(data)
}

// Validate reports configuration problems as human-readable text. An empty
// result means the song is ready for playback.
func (c *Config) Validate() []string {
	var issues []string
	if c.Label == "" {
		issues = append(issues, "song label cannot be empty")
	}
	if c.Tag == "" {
		issues = append(issues, "song tag is empty; this song cannot be played by tag")
	} else if !strings.HasPrefix(c.Tag, "Song.") {
		issues = append(issues, fmt.Sprintf("song tag %q should start with 'Song.' for consistency", c.Tag))
	}
	if len(c.Tracks) == 0 {
		issues = append(issues, "song must have at least one track")
		return issues
	}
	seen := map[string]bool{}
	for i, tr := range c.Tracks {
		if tr.Chart == "" {
			issues = append(issues, fmt.Sprintf("track %d: chart reference is not assigned", i))
			continue
		}
		if seen[tr.Chart] {
			issues = append(issues, fmt.Sprintf("track %d: duplicate chart reference (%s)", i, tr.Chart))
		}
		seen[tr.Chart] = true
	}
	return issues
}

// TrackCount returns the number of tracks in the song.
func (c *Config) TrackCount() int { return len(c.Tracks) }
