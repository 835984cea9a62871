package main

import (
	"log/slog"

	"github.com/holoplot/go-evdev"
	"github.com/mcnull/keytrack/keystate"
)

// ----------------------------------------------------------------------

// evdev EV_KEY values
const (
	keyReleased = 0
	keyPressed  = 1
	keyRepeated = 2
)

// ----------------------------------------------------------------------

// comboEvent reports a watched combo going down or coming up.
type comboEvent struct {
	name string
	down bool
}

// keyProcessor feeds keyboard events into a tracker the way a game host
// would: one call per key-down and key-up, generic modifier codes included.
type keyProcessor struct {
	tracker  *keystate.Tracker
	logger   *slog.Logger
	conflate bool
	combos   []watchedCombo
	exit     keystate.Combo
}

// ----------------------------------------------------------------------

// rawKey translates an evdev code into the key the host would report.
func (proc *keyProcessor) rawKey(code evdev.EvCode) keystate.Key {

	key := keystate.FromEvdev(code)

	if proc.conflate && key.IsModifierVariant() {
		return key.Generic()
	}

	return key
}

// ----------------------------------------------------------------------

// process handles one input event. It returns the combos that changed and
// whether the exit combo went down.
func (proc *keyProcessor) process(event *evdev.InputEvent) ([]comboEvent, bool) {

	if event.Type != evdev.EV_KEY {
		return nil, false
	}

	raw := proc.rawKey(event.Code)

	if raw == keystate.None {
		proc.logger.Debug("[input] ignoring unmapped key", "code", event.Code)
		return nil, false
	}

	switch event.Value {
	case keyPressed:
		return proc.keyDown(raw)

	case keyRepeated:
		proc.tracker.RegisterKeyDown(raw)

	case keyReleased:
		return proc.keyUp(raw), false
	}

	return nil, false
}

// ----------------------------------------------------------------------

func (proc *keyProcessor) keyDown(raw keystate.Key) ([]comboEvent, bool) {

	key := proc.tracker.HandleKeyDown(raw)

	proc.logger.Debug("[input] key down", "raw", raw, "key", key, "pressed", proc.tracker.Pressed())

	var events []comboEvent

	for _, watched := range proc.combos {
		if involves(watched.combo, key) && proc.tracker.ComboDown(watched.combo) {
			proc.logger.Info("[input] combo down", "name", watched.name, "keys", watched.combo)
			events = append(events, comboEvent{name: watched.name, down: true})
		}
	}

	return events, involves(proc.exit, key) && proc.tracker.ComboDown(proc.exit)
}

// involves reports whether key is part of combo. Only the key that just
// went down can complete a combo.
func involves(combo keystate.Combo, key keystate.Key) bool {
	return key != keystate.None && (key == combo.Main || key == combo.Modifier)
}

// ----------------------------------------------------------------------

func (proc *keyProcessor) keyUp(raw keystate.Key) []comboEvent {

	release := proc.tracker.HandleKeyUp(raw)

	proc.logger.Debug("[input] key up", "raw", raw, "key", release.Key, "pressed", proc.tracker.Pressed())

	var events []comboEvent

	for _, watched := range proc.combos {
		if release.MatchesCombo(watched.combo) {
			proc.logger.Info("[input] combo up", "name", watched.name, "keys", watched.combo)
			events = append(events, comboEvent{name: watched.name})
		}
	}

	return events
}
