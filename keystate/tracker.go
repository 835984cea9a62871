package keystate

import (
	"log/slog"
	"slices"
)

// ----------------------------------------------------------------------

// KeyUpProbeMode selects which physical key ResolveKeyUp probes to decide
// that a variant of a generic modifier was released.
type KeyUpProbeMode int

const (
	// KeyUpProbeMatching probes the variant being released.
	KeyUpProbeMatching KeyUpProbeMode = iota

	// KeyUpProbeLegacy reproduces the probe table of the original GTA V
	// keyboard controller: Control and Alt releases are confirmed by
	// probing the Shift variants, and for those two the left variant wins
	// a tie.
	KeyUpProbeLegacy
)

// keyUpCheck confirms candidate as released when it is held in the tracker
// and probe reads as up. Later checks override earlier ones.
type keyUpCheck struct {
	candidate Key
	probe     Key
}

var matchingKeyUpChecks = map[Key][]keyUpCheck{
	Shift:   {{LeftShift, LeftShift}, {RightShift, RightShift}},
	Control: {{LeftControl, LeftControl}, {RightControl, RightControl}},
	Alt:     {{LeftAlt, LeftAlt}, {RightAlt, RightAlt}},
}

var legacyKeyUpChecks = map[Key][]keyUpCheck{
	Shift:   {{LeftShift, LeftShift}, {RightShift, RightShift}},
	Control: {{RightControl, LeftShift}, {LeftControl, RightShift}},
	Alt:     {{RightAlt, LeftShift}, {LeftAlt, RightShift}},
}

// ----------------------------------------------------------------------

// Tracker keeps the set of keys believed to be held down.
//
// A Tracker is not safe for concurrent use. It is meant to live on the
// goroutine that receives input events; callers sharing one across
// goroutines must serialize access themselves.
//
// On a key-down event call HandleKeyDown (or RegisterKeyDown) before any
// query. On a key-up event call HandleKeyUp, or call ResolveKeyUp first,
// run the queries, and call UnregisterKeyDown with the resolved key last.
type Tracker struct {
	probe   Prober
	logger  *slog.Logger
	upMode  KeyUpProbeMode
	pressed []Key
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for resolution and reconciliation
// diagnostics. Nothing is logged above debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithKeyUpProbe selects the key-up probe table.
func WithKeyUpProbe(mode KeyUpProbeMode) Option {
	return func(t *Tracker) {
		t.upMode = mode
	}
}

// NewTracker returns an empty tracker that asks probe about physical key
// state. A nil probe reports every key as released.
func NewTracker(probe Prober, opts ...Option) *Tracker {
	if probe == nil {
		probe = Released
	}

	t := &Tracker{
		probe:  probe,
		logger: discardLogger(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// ----------------------------------------------------------------------

// ResolveKeyDown returns the true variant of a generic modifier that is
// physically down, or None if neither variant is. When both are down the
// right variant is returned. Other keys are returned unchanged.
func (t *Tracker) ResolveKeyDown(raw Key) Key {

	left, right, ok := raw.Variants()

	if !ok {
		return raw
	}

	resolved := None

	if t.probe.IsPressed(left) {
		resolved = left
	}

	if t.probe.IsPressed(right) {
		resolved = right
	}

	t.logger.Debug("[keystate] resolved key down", "raw", raw, "key", resolved)

	return resolved
}

// ----------------------------------------------------------------------

// ResolveKeyUp returns the true variant of a generic modifier that is held
// in the tracker but physically up, or None if no variant qualifies. Other
// keys are returned unchanged. The tracker is not modified.
func (t *Tracker) ResolveKeyUp(raw Key) Key {

	checks := matchingKeyUpChecks

	if t.upMode == KeyUpProbeLegacy {
		checks = legacyKeyUpChecks
	}

	candidates, ok := checks[raw]

	if !ok {
		return raw
	}

	resolved := None

	for _, check := range candidates {
		if t.IsPressed(check.candidate) && !t.probe.IsPressed(check.probe) {
			resolved = check.candidate
		}
	}

	t.logger.Debug("[keystate] resolved key up", "raw", raw, "key", resolved)

	return resolved
}

// ----------------------------------------------------------------------

// RegisterKeyDown records a raw key-down event. Stale modifiers are swept
// first, then the raw key is resolved and added if it is not held already.
// A generic modifier that resolves to None leaves the tracker unchanged.
func (t *Tracker) RegisterKeyDown(raw Key) {
	t.HandleKeyDown(raw)
}

// HandleKeyDown is RegisterKeyDown that also returns the resolved key.
func (t *Tracker) HandleKeyDown(raw Key) Key {

	t.Reconcile()

	key := t.ResolveKeyDown(raw)

	// an unresolvable generic modifier is not recorded
	if key != None && !t.IsPressed(key) {
		t.pressed = append(t.pressed, key)
	}

	return key
}

// ----------------------------------------------------------------------

// UnregisterKeyDown removes a key previously resolved with ResolveKeyUp.
// Removing a key that is not held is a no-op.
func (t *Tracker) UnregisterKeyDown(key Key) {
	if i := slices.Index(t.pressed, key); i >= 0 {
		t.pressed = slices.Delete(t.pressed, i, i+1)
	}
}

// ----------------------------------------------------------------------

// Release describes one handled key-up event.
type Release struct {
	// Key is the resolved key that went up, None if it could not be resolved.
	Key Key

	before []Key
}

// HandleKeyUp resolves a raw key-up event and removes the resolved key.
// Queries on the returned Release see the keys as they were just before
// the release, which is what a key-up handler needs.
func (t *Tracker) HandleKeyUp(raw Key) Release {

	key := t.ResolveKeyUp(raw)

	rel := Release{Key: key, before: t.Pressed()}

	t.UnregisterKeyDown(key)

	return rel
}

// Matches reports whether this release completes main (+ modifier).
// See Tracker.QueryUpTransition.
func (r Release) Matches(main, modifier Key) bool {
	return upTransition(r.before, r.Key, main, modifier)
}

// MatchesCombo is Matches for a Combo.
func (r Release) MatchesCombo(c Combo) bool {
	return r.Matches(c.Main, c.Modifier)
}

// ----------------------------------------------------------------------

// QueryDown reports whether main is held together with modifier. With a
// modifier of None, main must be held on its own: any held Shift, Control
// or Alt variant makes the query false.
func (t *Tracker) QueryDown(main, modifier Key) bool {
	return queryDown(t.pressed, main, modifier)
}

// ComboDown is QueryDown for a Combo.
func (t *Tracker) ComboDown(c Combo) bool {
	return t.QueryDown(c.Main, c.Modifier)
}

// QueryUpTransition reports whether released, the resolved key of a key-up
// event, is part of main (+ modifier) and that combination is held. It is
// evaluated against the tracker as it is now, so call it before
// UnregisterKeyDown.
func (t *Tracker) QueryUpTransition(released, main, modifier Key) bool {
	return upTransition(t.pressed, released, main, modifier)
}

func upTransition(pressed []Key, released, main, modifier Key) bool {
	if released != main && released != modifier {
		return false
	}
	return queryDown(pressed, main, modifier)
}

func queryDown(pressed []Key, main, modifier Key) bool {

	if !slices.Contains(pressed, main) {
		return false
	}

	if modifier != None {
		return slices.Contains(pressed, modifier)
	}

	for _, mod := range modifierVariants {
		if slices.Contains(pressed, mod) {
			return false
		}
	}

	return true
}

// ----------------------------------------------------------------------

// Reconcile drops every held modifier variant the probe reports as up.
// Hosts lose key-up events for modifiers when focus changes (alt-tab), so
// this runs before every key-down. Other keys are left alone.
func (t *Tracker) Reconcile() {
	t.pressed = slices.DeleteFunc(t.pressed, func(k Key) bool {

		if !k.IsModifierVariant() || t.probe.IsPressed(k) {
			return false
		}

		t.logger.Debug("[keystate] dropped stale modifier", "key", k)

		return true
	})
}

// Reset forgets every held key.
func (t *Tracker) Reset() {
	t.pressed = t.pressed[:0]
}

// ----------------------------------------------------------------------

// IsPressed reports whether key is held according to the tracker.
func (t *Tracker) IsPressed(key Key) bool {
	return slices.Contains(t.pressed, key)
}

// Pressed returns the held keys in the order they went down.
func (t *Tracker) Pressed() []Key {
	return slices.Clone(t.pressed)
}
