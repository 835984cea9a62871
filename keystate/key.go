package keystate

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------

// Key identifies a physical or logical keyboard key.
//
// The generic modifiers Shift, Control and Alt are what a host reports when
// it does not tell left from right. Every generic modifier has exactly two
// true variants (LeftShift/RightShift and so on).
type Key uint16

const (
	None Key = iota

	// generic modifiers
	Shift
	Control
	Alt

	// true variants
	LeftShift
	RightShift
	LeftControl
	RightControl
	LeftAlt
	RightAlt

	A
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z

	Digit0
	Digit1
	Digit2
	Digit3
	Digit4
	Digit5
	Digit6
	Digit7
	Digit8
	Digit9

	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12

	Escape
	Tab
	CapsLock
	Space
	Enter
	Backspace
	Insert
	Delete
	Home
	End
	PageUp
	PageDown
	Left
	Up
	Right
	Down

	keyCount
)

// ----------------------------------------------------------------------

var keyNames = [keyCount]string{
	None:         "None",
	Shift:        "Shift",
	Control:      "Control",
	Alt:          "Alt",
	LeftShift:    "LeftShift",
	RightShift:   "RightShift",
	LeftControl:  "LeftControl",
	RightControl: "RightControl",
	LeftAlt:      "LeftAlt",
	RightAlt:     "RightAlt",
	Escape:       "Escape",
	Tab:          "Tab",
	CapsLock:     "CapsLock",
	Space:        "Space",
	Enter:        "Enter",
	Backspace:    "Backspace",
	Insert:       "Insert",
	Delete:       "Delete",
	Home:         "Home",
	End:          "End",
	PageUp:       "PageUp",
	PageDown:     "PageDown",
	Left:         "Left",
	Up:           "Up",
	Right:        "Right",
	Down:         "Down",
}

// aliases accepted by ParseKey in addition to the canonical names
var keyAliases = map[string]Key{
	"CTRL":      Control,
	"LCTRL":     LeftControl,
	"RCTRL":     RightControl,
	"LEFTCTRL":  LeftControl,
	"RIGHTCTRL": RightControl,
	"LSHIFT":    LeftShift,
	"RSHIFT":    RightShift,
	"MENU":      Alt,
	"LALT":      LeftAlt,
	"RALT":      RightAlt,
	"ESC":       Escape,
	"RETURN":    Enter,
	"DEL":       Delete,
	"PGUP":      PageUp,
	"PGDN":      PageDown,
}

var keyByName map[string]Key

func init() {
	for k := A; k <= Z; k++ {
		keyNames[k] = string(rune('A' + (k - A)))
	}
	for k := Digit0; k <= Digit9; k++ {
		keyNames[k] = string(rune('0' + (k - Digit0)))
	}
	for k := F1; k <= F12; k++ {
		keyNames[k] = fmt.Sprintf("F%d", k-F1+1)
	}

	keyByName = make(map[string]Key, len(keyNames)+len(keyAliases))
	for k, name := range keyNames {
		keyByName[strings.ToUpper(name)] = Key(k)
	}
	for alias, k := range keyAliases {
		keyByName[alias] = k
	}
}

// ----------------------------------------------------------------------

func (k Key) String() string {
	if k < keyCount {
		return keyNames[k]
	}
	return fmt.Sprintf("Key(%d)", uint16(k))
}

// ParseKey returns the key with the given name. Matching is
// case-insensitive and accepts a few common aliases such as "Ctrl" or "Esc".
func ParseKey(name string) (Key, error) {
	token := strings.ToUpper(strings.TrimSpace(name))
	if token == "" {
		return None, fmt.Errorf("key name is empty")
	}
	if k, ok := keyByName[token]; ok {
		return k, nil
	}
	return None, fmt.Errorf("unknown key %q", name)
}

// ----------------------------------------------------------------------

// variantPair holds the true variants of one generic modifier.
type variantPair struct {
	left  Key
	right Key
}

var variantsByGeneric = map[Key]variantPair{
	Shift:   {left: LeftShift, right: RightShift},
	Control: {left: LeftControl, right: RightControl},
	Alt:     {left: LeftAlt, right: RightAlt},
}

// modifierVariants lists every true modifier variant. A bare key query
// fails while any of these is held.
var modifierVariants = [...]Key{
	LeftShift, RightShift,
	LeftControl, RightControl,
	LeftAlt, RightAlt,
}

// IsGenericModifier reports whether k is Shift, Control or Alt.
func (k Key) IsGenericModifier() bool {
	_, ok := variantsByGeneric[k]
	return ok
}

// IsModifierVariant reports whether k is a left or right Shift, Control or Alt.
func (k Key) IsModifierVariant() bool {
	for _, v := range modifierVariants {
		if k == v {
			return true
		}
	}
	return false
}

// Variants returns the left and right variants of a generic modifier.
func (k Key) Variants() (left, right Key, ok bool) {
	pair, ok := variantsByGeneric[k]
	return pair.left, pair.right, ok
}

// Generic maps a true variant to its generic modifier. Any other key is
// returned unchanged.
func (k Key) Generic() Key {
	for generic, pair := range variantsByGeneric {
		if k == pair.left || k == pair.right {
			return generic
		}
	}
	return k
}
