//go:build linux

package keystate

import (
	"log/slog"

	"github.com/holoplot/go-evdev"
)

// ----------------------------------------------------------------------

var evdevCodes = map[Key]evdev.EvCode{
	LeftShift:    evdev.KEY_LEFTSHIFT,
	RightShift:   evdev.KEY_RIGHTSHIFT,
	LeftControl:  evdev.KEY_LEFTCTRL,
	RightControl: evdev.KEY_RIGHTCTRL,
	LeftAlt:      evdev.KEY_LEFTALT,
	RightAlt:     evdev.KEY_RIGHTALT,

	A: evdev.KEY_A, B: evdev.KEY_B, C: evdev.KEY_C, D: evdev.KEY_D,
	E: evdev.KEY_E, F: evdev.KEY_F, G: evdev.KEY_G, H: evdev.KEY_H,
	I: evdev.KEY_I, J: evdev.KEY_J, K: evdev.KEY_K, L: evdev.KEY_L,
	M: evdev.KEY_M, N: evdev.KEY_N, O: evdev.KEY_O, P: evdev.KEY_P,
	Q: evdev.KEY_Q, R: evdev.KEY_R, S: evdev.KEY_S, T: evdev.KEY_T,
	U: evdev.KEY_U, V: evdev.KEY_V, W: evdev.KEY_W, X: evdev.KEY_X,
	Y: evdev.KEY_Y, Z: evdev.KEY_Z,

	Digit0: evdev.KEY_0, Digit1: evdev.KEY_1, Digit2: evdev.KEY_2,
	Digit3: evdev.KEY_3, Digit4: evdev.KEY_4, Digit5: evdev.KEY_5,
	Digit6: evdev.KEY_6, Digit7: evdev.KEY_7, Digit8: evdev.KEY_8,
	Digit9: evdev.KEY_9,

	F1: evdev.KEY_F1, F2: evdev.KEY_F2, F3: evdev.KEY_F3, F4: evdev.KEY_F4,
	F5: evdev.KEY_F5, F6: evdev.KEY_F6, F7: evdev.KEY_F7, F8: evdev.KEY_F8,
	F9: evdev.KEY_F9, F10: evdev.KEY_F10, F11: evdev.KEY_F11, F12: evdev.KEY_F12,

	Escape:    evdev.KEY_ESC,
	Tab:       evdev.KEY_TAB,
	CapsLock:  evdev.KEY_CAPSLOCK,
	Space:     evdev.KEY_SPACE,
	Enter:     evdev.KEY_ENTER,
	Backspace: evdev.KEY_BACKSPACE,
	Insert:    evdev.KEY_INSERT,
	Delete:    evdev.KEY_DELETE,
	Home:      evdev.KEY_HOME,
	End:       evdev.KEY_END,
	PageUp:    evdev.KEY_PAGEUP,
	PageDown:  evdev.KEY_PAGEDOWN,
	Left:      evdev.KEY_LEFT,
	Up:        evdev.KEY_UP,
	Right:     evdev.KEY_RIGHT,
	Down:      evdev.KEY_DOWN,
}

var keysByEvdevCode map[evdev.EvCode]Key

func init() {
	keysByEvdevCode = make(map[evdev.EvCode]Key, len(evdevCodes))
	for k, code := range evdevCodes {
		keysByEvdevCode[code] = k
	}
}

// FromEvdev translates an EV_KEY code. Unknown codes map to None.
// evdev always reports true variants, never a generic modifier.
func FromEvdev(code evdev.EvCode) Key {
	return keysByEvdevCode[code]
}

// ToEvdev returns the EV_KEY code of k. Generic modifiers have none.
func ToEvdev(k Key) (evdev.EvCode, bool) {
	code, ok := evdevCodes[k]
	return code, ok
}

// ----------------------------------------------------------------------

// keyStater is the part of *evdev.InputDevice the prober needs.
type keyStater interface {
	State(t evdev.EvType) (evdev.StateMap, error)
}

// EvdevProber probes keys by reading the kernel key state of an input
// device (EVIOCGKEY), which does not depend on consuming its event queue.
type EvdevProber struct {
	device keyStater
	logger *slog.Logger
}

// NewEvdevProber returns a prober for dev. A nil logger discards output.
func NewEvdevProber(dev *evdev.InputDevice, logger *slog.Logger) *EvdevProber {
	return newEvdevProber(dev, logger)
}

func newEvdevProber(dev keyStater, logger *slog.Logger) *EvdevProber {
	if logger == nil {
		logger = discardLogger()
	}
	return &EvdevProber{device: dev, logger: logger}
}

// IsPressed reports whether key is physically down. If the device state
// cannot be read the key reads as released.
func (p *EvdevProber) IsPressed(key Key) bool {

	code, ok := evdevCodes[key]

	if !ok {
		return false
	}

	state, err := p.device.State(evdev.EV_KEY)

	if err != nil {
		p.logger.Warn("[keystate] reading key state failed, treating key as released", "key", key, "error", err)
		return false
	}

	return state[code]
}
