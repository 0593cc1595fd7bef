package testdata

import (
	"github.com/josephkirk/UniversalBeatGame/internal/chart"
	"github.com/josephkirk/UniversalBeatGame/internal/song"
)

const chartDoc = `
name: practice
resolution: 48
definitions:
  - tag: Input.Left
    label: Left
    pre: quarter
    post: eighth
  - tag: Input.Right
    label: Right
    pre: eighth
    post: eighth
tracks:
  - name: lead
    notes:
      - at: 96
        def: Input.Left
      - at: 144
        def: Input.Right
      - at: 192
        def: Input.Left
      - at: 240
        def: Input.Left
  - name: backing
    notes:
      - at: 120
        def: Input.Right
`

const songDoc = `
label: Practice Song
tag: Song.Practice
tracks:
  - chart: charts/practice.yaml
    delay: 0
    loops: 0
  - chart: charts/practice-b.yaml
    delay: 3
    loops: 0
`

// GetAsset parses the embedded practice chart.
func GetAsset() (*chart.Asset, error) {
	return chart.Parse([]byte(chartDoc))
}

// GetSong parses the embedded practice song.
func GetSong() (*song.Config, error) {
	return song.Parse([]byte(songDoc))
}
