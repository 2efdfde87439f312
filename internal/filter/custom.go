// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package filter

import "strings"

// audioFilterPrefixes names the ffmpeg filter keywords SplitCustomFilter
// treats as belonging to the audio half of a custom filter string.
var audioFilterPrefixes = []string{
	"volume", "loudnorm", "highpass", "lowpass", "equalizer", "aformat",
	"pan", "afade", "anull", "apad", "aresample", "aevalsrc", "amix",
	"channelmap", "asetrate", "atempo",
}

// SplitCustomFilter splits a semicolon-joined custom filter string into
// its video and audio halves. A fragment is classified as audio when
// its filter name (the part before the first "=" or ":", after
// stripping any leading "[label]" input selector) matches a known
// audio filter keyword; everything else is treated as video.
func SplitCustomFilter(s string) (video, audio string) {
	if strings.TrimSpace(s) == "" {
		return "", ""
	}

	var videoParts, audioParts []string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if isAudioFragment(part) {
			audioParts = append(audioParts, part)
		} else {
			videoParts = append(videoParts, part)
		}
	}

	return strings.Join(videoParts, ";"), strings.Join(audioParts, ";")
}

func isAudioFragment(part string) bool {
	name := part
	for strings.HasPrefix(name, "[") {
		end := strings.Index(name, "]")
		if end < 0 {
			break
		}
		name = name[end+1:]
	}
	if idx := strings.IndexAny(name, "=:"); idx >= 0 {
		name = name[:idx]
	}
	for _, p := range audioFilterPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
