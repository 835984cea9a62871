package keystate

import (
	"bytes"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

// physical is a fake keyboard: the keys mapped to true are held down.
type physical map[Key]bool

func (p physical) IsPressed(key Key) bool {
	if key.IsGenericModifier() {
		panic("probe asked about generic modifier " + key.String())
	}
	return p[key]
}

func (p physical) press(keys ...Key) {
	for _, k := range keys {
		p[k] = true
	}
}

func (p physical) release(keys ...Key) {
	for _, k := range keys {
		delete(p, k)
	}
}

func assertPressed(t *testing.T, tr *Tracker, want ...Key) {
	t.Helper()
	got := tr.Pressed()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !slices.Equal(got, want) {
		t.Fatalf("Pressed() = %v, want %v", got, want)
	}
}

func TestResolveLeavesOrdinaryKeysUnchanged(t *testing.T) {
	tr := NewTracker(physical{})
	for k := None; k < keyCount; k++ {
		if k.IsGenericModifier() {
			continue
		}
		if got := tr.ResolveKeyDown(k); got != k {
			t.Errorf("ResolveKeyDown(%s) = %s", k, got)
		}
		if got := tr.ResolveKeyUp(k); got != k {
			t.Errorf("ResolveKeyUp(%s) = %s", k, got)
		}
	}
}

func TestResolveKeyDown(t *testing.T) {
	tests := []struct {
		name string
		raw  Key
		held []Key
		want Key
	}{
		{name: "left shift", raw: Shift, held: []Key{LeftShift}, want: LeftShift},
		{name: "right shift", raw: Shift, held: []Key{RightShift}, want: RightShift},
		{name: "both shifts right wins", raw: Shift, held: []Key{LeftShift, RightShift}, want: RightShift},
		{name: "no shift held", raw: Shift, want: None},
		{name: "left control", raw: Control, held: []Key{LeftControl}, want: LeftControl},
		{name: "both controls right wins", raw: Control, held: []Key{LeftControl, RightControl}, want: RightControl},
		{name: "right alt", raw: Alt, held: []Key{RightAlt}, want: RightAlt},
		{name: "alt ignores shift", raw: Alt, held: []Key{LeftShift}, want: None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := physical{}
			kb.press(tt.held...)
			if got := NewTracker(kb).ResolveKeyDown(tt.raw); got != tt.want {
				t.Fatalf("ResolveKeyDown(%s) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestResolveKeyUpMatching(t *testing.T) {
	tests := []struct {
		name    string
		raw     Key
		tracked []Key
		held    []Key
		want    Key
	}{
		{name: "left shift released", raw: Shift, tracked: []Key{LeftShift}, want: LeftShift},
		{name: "right control released", raw: Control, tracked: []Key{RightControl}, want: RightControl},
		{name: "left control still held", raw: Control, tracked: []Key{LeftControl}, held: []Key{LeftControl}, want: None},
		{name: "not tracked", raw: Alt, want: None},
		{name: "both released right wins", raw: Alt, tracked: []Key{LeftAlt, RightAlt}, want: RightAlt},
		{name: "right still held", raw: Shift, tracked: []Key{LeftShift, RightShift}, held: []Key{RightShift}, want: LeftShift},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := physical{}
			kb.press(tt.tracked...)
			tr := NewTracker(kb)
			for _, k := range tt.tracked {
				tr.RegisterKeyDown(k)
			}
			kb.release(tt.tracked...)
			kb.press(tt.held...)

			before := tr.Pressed()
			if got := tr.ResolveKeyUp(tt.raw); got != tt.want {
				t.Fatalf("ResolveKeyUp(%s) = %s, want %s", tt.raw, got, tt.want)
			}
			assertPressed(t, tr, before...)
		})
	}
}

func TestResolveKeyUpLegacy(t *testing.T) {
	tests := []struct {
		name    string
		raw     Key
		tracked []Key
		held    []Key
		want    Key
	}{
		{name: "shift is not cross-wired", raw: Shift, tracked: []Key{LeftShift}, want: LeftShift},
		{name: "left control confirmed by right shift", raw: Control, tracked: []Key{LeftControl}, held: []Key{LeftControl}, want: LeftControl},
		{name: "left control blocked by right shift", raw: Control, tracked: []Key{LeftControl}, held: []Key{RightShift}, want: None},
		{name: "right control blocked by left shift", raw: Control, tracked: []Key{RightControl}, held: []Key{LeftShift}, want: None},
		{name: "controls both released left wins", raw: Control, tracked: []Key{LeftControl, RightControl}, want: LeftControl},
		{name: "alts both released left wins", raw: Alt, tracked: []Key{RightAlt, LeftAlt}, want: LeftAlt},
		{name: "right alt confirmed by left shift", raw: Alt, tracked: []Key{RightAlt}, held: []Key{RightShift}, want: RightAlt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := physical{}
			kb.press(tt.tracked...)
			tr := NewTracker(kb, WithKeyUpProbe(KeyUpProbeLegacy))
			for _, k := range tt.tracked {
				tr.RegisterKeyDown(k)
			}
			kb.release(tt.tracked...)
			kb.press(tt.held...)

			if got := tr.ResolveKeyUp(tt.raw); got != tt.want {
				t.Fatalf("ResolveKeyUp(%s) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRegisterKeyDownIsIdempotent(t *testing.T) {
	kb := physical{}
	kb.press(LeftShift)
	tr := NewTracker(kb)

	tr.RegisterKeyDown(A)
	tr.RegisterKeyDown(A)
	tr.RegisterKeyDown(Shift)
	tr.RegisterKeyDown(LeftShift)

	assertPressed(t, tr, A, LeftShift)
}

func TestRegisterKeyDownResolvesGenericModifier(t *testing.T) {
	kb := physical{}
	kb.press(RightShift)
	tr := NewTracker(kb)

	if got := tr.ResolveKeyDown(Shift); got != RightShift {
		t.Fatalf("ResolveKeyDown(Shift) = %s, want RightShift", got)
	}
	tr.RegisterKeyDown(Shift)

	if tr.IsPressed(Shift) {
		t.Fatal("generic Shift recorded")
	}
	assertPressed(t, tr, RightShift)
}

func TestRegisterKeyDownSkipsUnresolvedModifier(t *testing.T) {
	tr := NewTracker(physical{})
	tr.RegisterKeyDown(Control)
	assertPressed(t, tr)
}

func TestUnregisterKeyDown(t *testing.T) {
	tr := NewTracker(physical{})
	tr.RegisterKeyDown(A)
	tr.RegisterKeyDown(B)

	tr.UnregisterKeyDown(C)
	assertPressed(t, tr, A, B)

	tr.UnregisterKeyDown(A)
	assertPressed(t, tr, B)

	tr.UnregisterKeyDown(None)
	assertPressed(t, tr, B)
}

func TestQueryDownPlainKeyExclusivity(t *testing.T) {
	for _, mod := range modifierVariants {
		t.Run(mod.String(), func(t *testing.T) {
			kb := physical{}
			kb.press(mod)
			tr := NewTracker(kb)
			tr.RegisterKeyDown(A)
			tr.RegisterKeyDown(mod)

			if tr.QueryDown(A, None) {
				t.Errorf("QueryDown(A, None) = true with %s held", mod)
			}
			if !tr.QueryDown(A, mod) {
				t.Errorf("QueryDown(A, %s) = false", mod)
			}
		})
	}
}

func TestQueryDownCombo(t *testing.T) {
	kb := physical{}
	kb.press(LeftShift, LeftControl)
	tr := NewTracker(kb)
	tr.RegisterKeyDown(A)
	tr.RegisterKeyDown(LeftShift)
	tr.RegisterKeyDown(LeftControl)

	if !tr.QueryDown(A, LeftShift) {
		t.Error("QueryDown(A, LeftShift) = false")
	}
	// no exclusivity once a modifier is named
	if !tr.QueryDown(A, LeftControl) {
		t.Error("QueryDown(A, LeftControl) = false")
	}
	if tr.QueryDown(A, RightShift) {
		t.Error("QueryDown(A, RightShift) = true")
	}
	if tr.QueryDown(B, LeftShift) {
		t.Error("QueryDown(B, LeftShift) = true")
	}
	if tr.QueryDown(None, None) {
		t.Error("QueryDown(None, None) = true")
	}
}

func TestReconcileDropsStaleModifiers(t *testing.T) {
	kb := physical{}
	kb.press(LeftControl, RightAlt)
	tr := NewTracker(kb)
	tr.RegisterKeyDown(A)
	tr.RegisterKeyDown(LeftControl)
	tr.RegisterKeyDown(RightAlt)

	// focus lost: key-up events for A and LeftControl never arrive
	kb.release(A, LeftControl)

	tr.RegisterKeyDown(B)

	assertPressed(t, tr, A, RightAlt, B)
	if !tr.QueryDown(B, RightAlt) {
		t.Error("QueryDown(B, RightAlt) = false")
	}
}

func TestReconcileExplicit(t *testing.T) {
	kb := physical{}
	kb.press(LeftShift)
	tr := NewTracker(kb)
	tr.RegisterKeyDown(LeftShift)
	tr.RegisterKeyDown(Q)

	kb.release(LeftShift)
	tr.Reconcile()

	assertPressed(t, tr, Q)
	if !tr.QueryDown(Q, None) {
		t.Error("QueryDown(Q, None) = false after reconcile")
	}
}

func TestQueryUpTransitionGate(t *testing.T) {
	kb := physical{}
	kb.press(LeftShift)
	tr := NewTracker(kb)
	tr.RegisterKeyDown(A)
	tr.RegisterKeyDown(B)
	tr.RegisterKeyDown(LeftShift)

	tests := []struct {
		name     string
		released Key
		main     Key
		modifier Key
		want     bool
	}{
		{name: "unrelated release", released: B, main: A, modifier: None, want: false},
		{name: "unrelated release with modifier", released: B, main: A, modifier: LeftShift, want: false},
		{name: "main released", released: A, main: A, modifier: LeftShift, want: true},
		{name: "modifier released", released: LeftShift, main: A, modifier: LeftShift, want: true},
		{name: "plain blocked by modifier", released: A, main: A, modifier: None, want: false},
		{name: "none release with plain query", released: None, main: A, modifier: None, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.QueryUpTransition(tt.released, tt.main, tt.modifier); got != tt.want {
				t.Fatalf("QueryUpTransition(%s, %s, %s) = %v, want %v",
					tt.released, tt.main, tt.modifier, got, tt.want)
			}
		})
	}
}

func TestKeyUpProtocol(t *testing.T) {
	kb := physical{}
	kb.press(LeftControl)
	tr := NewTracker(kb)
	tr.RegisterKeyDown(S)
	tr.RegisterKeyDown(Control)

	kb.release(LeftControl)
	released := tr.ResolveKeyUp(Control)
	if released != LeftControl {
		t.Fatalf("ResolveKeyUp(Control) = %s, want LeftControl", released)
	}
	if !tr.QueryUpTransition(released, S, LeftControl) {
		t.Fatal("QueryUpTransition before unregister = false")
	}
	tr.UnregisterKeyDown(released)

	if tr.QueryUpTransition(released, S, LeftControl) {
		t.Fatal("QueryUpTransition after unregister = true")
	}
	assertPressed(t, tr, S)
}

func TestHandleKeyUpSnapshot(t *testing.T) {
	kb := physical{}
	kb.press(RightShift)
	tr := NewTracker(kb)

	if got := tr.HandleKeyDown(F5); got != F5 {
		t.Fatalf("HandleKeyDown(F5) = %s", got)
	}
	if got := tr.HandleKeyDown(Shift); got != RightShift {
		t.Fatalf("HandleKeyDown(Shift) = %s, want RightShift", got)
	}

	kb.release(RightShift)
	rel := tr.HandleKeyUp(Shift)

	if rel.Key != RightShift {
		t.Fatalf("Release.Key = %s, want RightShift", rel.Key)
	}
	if !rel.MatchesCombo(Combo{Main: F5, Modifier: RightShift}) {
		t.Error("release does not match RightShift+F5")
	}
	if rel.Matches(F5, None) {
		t.Error("release matches bare F5 while RightShift was held")
	}
	assertPressed(t, tr, F5)

	rel = tr.HandleKeyUp(F5)
	if !rel.Matches(F5, None) {
		t.Error("release of F5 does not match bare F5")
	}
	assertPressed(t, tr)
}

func TestScenarioComboLifecycle(t *testing.T) {
	kb := physical{}
	tr := NewTracker(kb)

	assertPressed(t, tr)

	kb.press(A)
	tr.RegisterKeyDown(A)
	if !tr.QueryDown(A, None) {
		t.Fatal("QueryDown(A, None) = false after A down")
	}

	kb.press(LeftControl)
	tr.RegisterKeyDown(LeftControl)
	if tr.QueryDown(A, None) {
		t.Fatal("QueryDown(A, None) = true with LeftControl held")
	}
	if !tr.ComboDown(Combo{Main: A, Modifier: LeftControl}) {
		t.Fatal("QueryDown(A, LeftControl) = false")
	}

	tr.UnregisterKeyDown(LeftControl)
	if !tr.QueryDown(A, None) {
		t.Fatal("QueryDown(A, None) = false after LeftControl up")
	}
}

func TestPlainKeyStaysDownUntilUnregistered(t *testing.T) {
	tr := NewTracker(nil)
	tr.RegisterKeyDown(Space)

	for i := 0; i < 3; i++ {
		tr.RegisterKeyDown(Digit1)
		if !tr.QueryDown(Space, None) {
			t.Fatalf("QueryDown(Space, None) = false after %d other key downs", i+1)
		}
	}

	tr.UnregisterKeyDown(Space)
	if tr.QueryDown(Space, None) {
		t.Fatal("QueryDown(Space, None) = true after unregister")
	}
}

func TestReset(t *testing.T) {
	kb := physical{}
	kb.press(LeftAlt)
	tr := NewTracker(kb)
	tr.RegisterKeyDown(LeftAlt)
	tr.RegisterKeyDown(Tab)

	tr.Reset()

	assertPressed(t, tr)
	if tr.IsPressed(Tab) {
		t.Fatal("Tab still pressed after Reset")
	}
}

func TestPressedReturnsCopy(t *testing.T) {
	tr := NewTracker(nil)
	tr.RegisterKeyDown(A)

	got := tr.Pressed()
	got[0] = B

	assertPressed(t, tr, A)
}

func TestTrackerLogsReconciliation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	kb := physical{}
	kb.press(RightControl)
	tr := NewTracker(kb, WithLogger(logger))
	tr.RegisterKeyDown(Control)

	kb.release(RightControl)
	tr.RegisterKeyDown(X)

	out := buf.String()
	if !strings.Contains(out, "resolved key down") || !strings.Contains(out, "key=RightControl") {
		t.Errorf("missing resolution log:\n%s", out)
	}
	if !strings.Contains(out, "dropped stale modifier") {
		t.Errorf("missing reconciliation log:\n%s", out)
	}
}
