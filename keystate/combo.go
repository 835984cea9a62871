package keystate

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------

// Combo is a main key optionally held together with one modifier.
// A Combo with Modifier None only matches a bare press.
type Combo struct {
	Main     Key
	Modifier Key
}

// ParseCombo parses "A", "LeftControl+A" or "A+LeftControl". A combo may
// name at most one modifier, and that modifier must be a true variant
// because the tracker never holds generic codes.
func ParseCombo(spec string) (Combo, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Combo{}, fmt.Errorf("combo is empty")
	}

	parts := strings.Split(raw, "+")
	if len(parts) > 2 {
		return Combo{}, fmt.Errorf("combo %q has more than one modifier", raw)
	}

	keys := make([]Key, 0, len(parts))
	for _, part := range parts {
		k, err := ParseKey(part)
		if err != nil {
			return Combo{}, fmt.Errorf("combo %q: %w", raw, err)
		}
		if k == None {
			return Combo{}, fmt.Errorf("combo %q: None is not a valid key", raw)
		}
		if k.IsGenericModifier() {
			return Combo{}, fmt.Errorf("combo %q: %s is ambiguous, use Left%s or Right%s", raw, k, k, k)
		}
		keys = append(keys, k)
	}

	if len(keys) == 1 {
		return Combo{Main: keys[0]}, nil
	}

	switch {
	case keys[0].IsModifierVariant():
		return Combo{Main: keys[1], Modifier: keys[0]}, nil
	case keys[1].IsModifierVariant():
		return Combo{Main: keys[0], Modifier: keys[1]}, nil
	}

	return Combo{}, fmt.Errorf("combo %q: one of the keys must be a modifier", raw)
}

func (c Combo) String() string {
	if c.Modifier == None {
		return c.Main.String()
	}
	return c.Modifier.String() + "+" + c.Main.String()
}
