// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package scheduler implements CurrentProgram, the lazily-pulled
// sequence of scheduled Media that drives playout.
package scheduler

import "github.com/halvar-dev/playout/internal/pipeline/fsm"

// State is one of the three states spec §3 names for CurrentProgram.
type State string

const (
	// StateInit is entered at startup and whenever the loaded list has
	// run out and no day-length shortfall needs filling: the scheduler
	// must locate a clip (or playlist) that covers "now".
	StateInit State = "init"
	// StatePlaying is normal steady-state advance through a loaded list.
	StatePlaying State = "playing"
	// StateFilling is entered when the list is exhausted but the
	// broadcast day isn't over; synthetic filler covers the gap.
	StateFilling State = "filling"
)

// Event names the edges fsm.Machine is allowed to take.
type Event string

const (
	EventClipMatched   Event = "clip_matched"
	EventAdvance       Event = "advance"
	EventListShort     Event = "list_short"
	EventFillerRepeat  Event = "filler_repeat"
	EventDayRolled     Event = "day_rolled"
)

func newMachine() (*fsm.Machine[State, Event], error) {
	return fsm.New(StateInit, []fsm.Transition[State, Event]{
		{From: StateInit, Event: EventClipMatched, To: StatePlaying},
		{From: StateInit, Event: EventAdvance, To: StateInit},
		{From: StatePlaying, Event: EventAdvance, To: StatePlaying},
		{From: StatePlaying, Event: EventListShort, To: StateFilling},
		{From: StateFilling, Event: EventFillerRepeat, To: StateFilling},
		{From: StatePlaying, Event: EventDayRolled, To: StateInit},
		{From: StateFilling, Event: EventDayRolled, To: StateInit},
	})
}
