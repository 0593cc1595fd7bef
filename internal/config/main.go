package config

import (
	"strings"

	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	Song        = kingpin.Arg("song", "Song configuration file (yaml)").String()
	Database    = kingpin.Flag("db", "Path to the state database").Default("./universalbeat.db").String()
	BPM         = kingpin.Flag("bpm", "Starting tempo").Default("120").Short('b').Float64()
	Offset      = kingpin.Flag("offset", "Calibration offset").Default("0ms").Short('o').Duration()
	Subdivision = kingpin.Flag("subdivision", "Beat broadcast granularity (none, whole, half, quarter, eighth, sixteenth)").Default("quarter").Short('s').String()
	ChartDir    = kingpin.Flag("charts", "Base directory for chart references").Default(".").String()
	Keys        = kingpin.Flag("key", "Key binding as rune=tag, e.g. -k a=Input.Left (repeatable)").Short('k').Strings()
	Calibrate   = kingpin.Flag("calibrate", "Run a calibration sequence of N prompts instead of playing").Default("0").Int()
	Dilated     = kingpin.Flag("dilated", "Respect the external time scale").Bool()
	Debug       = kingpin.Flag("debug", "Enable debug logging").Short('d').Bool()
)

// KeyTag resolves a pressed rune to a note tag through the --key bindings.
func KeyTag(r rune) (string, bool) {
	for _, binding := range *Keys {
		parts := strings.SplitN(binding, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		if []rune(parts[0])[0] == r {
			return parts[1], true
		}
	}
	return "", false
}

func init() {
	kingpin.Version("0.1.0")
	kingpin.Parse()
}
