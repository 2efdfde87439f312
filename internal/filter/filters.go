// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package filter builds the labelled ffmpeg filter_complex graph for one
// scheduled clip and decides, via Compile, which filters apply to it.
package filter

import (
	"fmt"
	"strings"
)

// Kind distinguishes a video track from an audio track within a Filters
// graph; its string form is the single-letter ffmpeg stream specifier.
type Kind string

const (
	KindVideo Kind = "v"
	KindAudio Kind = "a"
)

// Filters accumulates a labelled filter_complex graph: one textual chain
// per kind, the -map tokens that name each chain's terminal label, and
// the raw -map argument vector in emission order.
type Filters struct {
	VideoChain string
	AudioChain string
	VideoMap   []string
	AudioMap   []string
	OutputMap  []string

	audioTrackCount int
	audioPosition   int
	videoPosition   int
	audioLast       int
	videoLast       int
}

// NewFilters returns an empty graph builder. audioTrackCount is the
// number of audio tracks the encoder expects; audioPosition is the
// ffmpeg input index audio tracks are read from (0 for the primary
// input, 1 when a sidecar audio file occupies a second input).
func NewFilters(audioTrackCount, audioPosition int) *Filters {
	return &Filters{
		audioTrackCount: audioTrackCount,
		audioPosition:   audioPosition,
		audioLast:       -1,
		videoLast:       -1,
	}
}

// AddFilter appends text to the chain for kind, starting a new labelled
// sub-chain whenever trackNr differs from the last track touched for
// that kind.
func (f *Filters) AddFilter(text string, trackNr int, kind Kind) {
	var chain *string
	var mp *[]string
	var position int
	var last *int

	switch kind {
	case KindAudio:
		chain, mp, position, last = &f.AudioChain, &f.AudioMap, f.audioPosition, &f.audioLast
	default:
		chain, mp, position, last = &f.VideoChain, &f.VideoMap, f.videoPosition, &f.videoLast
	}

	if *last != trackNr {
		var selector, sep string
		if *chain != "" {
			selector = fmt.Sprintf("[%sout%d]", kind, *last)
			sep = ";"
		}
		*chain += selector

		if strings.HasPrefix(text, "aevalsrc") || strings.HasPrefix(text, "movie") {
			*chain += sep + text
		} else {
			*chain += fmt.Sprintf("%s[%d:%s:%d]%s", sep, position, kind, trackNr, text)
		}

		label := fmt.Sprintf("[%sout%d]", kind, trackNr)
		*mp = append(*mp, label)
		f.OutputMap = append(f.OutputMap, "-map", label)
		*last = trackNr
		return
	}

	if strings.HasPrefix(text, ";") || strings.HasPrefix(text, "[") {
		*chain += text
	} else {
		*chain += "," + text
	}
}

// Cmd emits the ["-filter_complex", graph] pair, or an empty vector when
// neither chain was ever touched.
func (f *Filters) Cmd() []string {
	vChain := f.VideoChain
	aChain := f.AudioChain

	if f.videoLast >= 0 {
		vChain += fmt.Sprintf("[vout%d]", f.videoLast)
	}
	if f.audioLast >= 0 {
		aChain += fmt.Sprintf("[aout%d]", f.audioLast)
	}

	graph := vChain
	if aChain != "" {
		graph += ";" + aChain
	}

	if graph == "" {
		return nil
	}
	return []string{"-filter_complex", graph}
}

// Map returns the accumulated -map tokens, synthesizing a pass-through
// map for a kind that was never touched by AddFilter.
func (f *Filters) Map() []string {
	out := append([]string(nil), f.OutputMap...)

	if f.videoLast == -1 {
		vMap := "0:v"
		if !containsString(out, vMap) {
			out = append(out, "-map", vMap)
		}
	}

	if f.audioLast == -1 {
		for i := 0; i < f.audioTrackCount; i++ {
			aMap := fmt.Sprintf("%d:a:%d", f.audioPosition, i)
			if !containsString(out, aMap) {
				out = append(out, "-map", aMap)
			}
		}
	}

	return out
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
