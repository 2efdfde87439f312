// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package media implements one scheduled playout item (Media) and the
// gen_source step that turns it into an argument vector and a compiled
// filter graph.
package media

import (
	"strconv"

	"github.com/halvar-dev/playout/internal/clock"
	"github.com/halvar-dev/playout/internal/filter"
	"github.com/halvar-dev/playout/internal/probe"
)

// Media is one scheduled playout item. It is treated as a value: the
// scheduler yields copies rather than holding back-references, so there
// is no cycle between CurrentProgram and Media.
type Media struct {
	Index int

	Source        string
	AudioPath     string
	AudioIsRemote bool

	Seek     float64
	Out      float64
	Duration float64
	Category string

	CustomFilter string
	Unit         clock.Unit

	Begin  *float64
	LastAd bool
	NextAd bool

	Process bool

	Probe  *probe.MediaProbe
	Cmd    []string
	Filter *filter.Filters
}

// New returns a Media with the given index and source, matching the
// zero-valued construction the scheduler uses before it knows a real
// clip's attributes.
func New(index int, source string) Media {
	return Media{Index: index, Source: source, Unit: clock.Decoder}
}

// AdvertisementCategory is the only Category value the core interprets.
const AdvertisementCategory = "advertisement"

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
