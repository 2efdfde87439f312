// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package assemble builds the final ffmpeg argument vector for one
// scheduled clip: the decoder-facing input prefix, the clip's own
// input arguments, the compiled filter graph, and the operator's
// configured output tail. It is a pure function over its inputs; no
// process is spawned here.
package assemble

import (
	"regexp"
	"strings"

	"github.com/halvar-dev/playout/internal/filter"
)

// audioTrackLabelRe matches a raw demuxed audio input label for any
// track index, e.g. "[0:a:1]", "[0:a:2]".
var audioTrackLabelRe = regexp.MustCompile(`\[0:a:(\d+)\]`)

// Command concatenates prefix and clipCmd, then merges the compiled
// filter graph with tail per spec's three output shapes: a tail that
// carries its own -filter_complex (multi-output with an independent
// graph, e.g. an icecast relay), a simple multi-output tail (repeated
// encoder settings separated by "-s"), or a plain single-output tail.
func Command(prefix, clipCmd []string, compiled *filter.Filters, tail []string) []string {
	args := make([]string, 0, len(prefix)+len(clipCmd)+len(tail)+8)
	args = append(args, prefix...)
	args = append(args, clipCmd...)

	var graph []string
	var maps []string
	if compiled != nil {
		graph = compiled.Cmd()
		maps = compiled.Map()
	}

	if idx := filterComplexIndex(tail); idx >= 0 {
		return append(args, fuseFilterComplex(tail, idx, graph, maps)...)
	}

	if isMultiOutput(tail) {
		args = append(args, graph...)
		return append(args, fanOutMaps(tail, maps)...)
	}

	args = append(args, graph...)
	args = append(args, maps...)
	return append(args, tail...)
}

// filterComplexIndex returns the index of a "-filter_complex" flag in
// tail, or -1 if tail carries no filter graph of its own.
func filterComplexIndex(tail []string) int {
	for i, tok := range tail {
		if tok == "-filter_complex" {
			return i
		}
	}
	return -1
}

// isMultiOutput reports whether tail repeats encoder settings across
// multiple outputs, signalled by a literal "-s" separator token between
// output groups.
func isMultiOutput(tail []string) bool {
	for _, tok := range tail {
		if tok == "-s" {
			return true
		}
	}
	return false
}

// fuseFilterComplex rewrites the user-authored graph at tail[idx+1] so
// its top-level input labels point at the compiled filter's terminal
// outputs, prepends the compiled graph ahead of it with a ";"
// separator, and merges in any compiled -map tokens the tail doesn't
// already carry.
func fuseFilterComplex(tail []string, idx int, graph, maps []string) []string {
	out := append([]string(nil), tail[:idx]...)

	if idx+1 >= len(tail) {
		return append(out, tail[idx:]...)
	}

	userGraph := rewriteInputLabels(tail[idx+1])
	compiledGraph := ""
	if len(graph) == 2 {
		compiledGraph = graph[1]
	}

	fused := userGraph
	if compiledGraph != "" {
		fused = compiledGraph + ";" + userGraph
	}

	out = append(out, "-filter_complex", fused)
	return append(out, mergeMaps(tail[idx+2:], maps)...)
}

// rewriteInputLabels replaces the raw top-level input labels a tail's
// own filter graph addresses with the compiled graph's terminal labels,
// so the user's chain reads the video/audio the compiler already
// processed instead of the raw demuxed input. Every audio track index
// is rewritten, not just track 0, so a multi-audio-track graph
// (audio_tracks>1) that addresses "[0:a:1]", "[0:a:2]", etc. still
// lands on the compiler's real output for that track.
func rewriteInputLabels(graph string) string {
	graph = strings.ReplaceAll(graph, "[0:v]", "[vout0]")
	graph = audioTrackLabelRe.ReplaceAllString(graph, "[aout$1]")
	graph = strings.ReplaceAll(graph, "[0:a]", "[aout0]")
	return graph
}

// mergeMaps appends the tail's own arguments, plus any compiled -map
// pairs the tail didn't already supply, in that order.
func mergeMaps(tailRemainder, compiledMaps []string) []string {
	existing := map[string]bool{}
	for i := 0; i+1 < len(tailRemainder); i++ {
		if tailRemainder[i] == "-map" {
			existing[tailRemainder[i+1]] = true
		}
	}

	out := append([]string(nil), tailRemainder...)
	for i := 0; i+1 < len(compiledMaps); i += 2 {
		label := compiledMaps[i+1]
		if !existing[label] {
			out = append(out, compiledMaps[i], label)
			existing[label] = true
		}
	}
	return out
}

// fanOutMaps splits tail into output groups on the "-s" separator and
// prepends the compiled -map tokens to each group, so every output
// target gets the full set of mapped streams.
func fanOutMaps(tail []string, maps []string) []string {
	var out []string
	group := maps

	for _, tok := range tail {
		if tok == "-s" {
			out = append(out, tok)
			out = append(out, maps...)
			continue
		}
		if group != nil {
			out = append(out, group...)
			group = nil
		}
		out = append(out, tok)
	}
	return out
}
