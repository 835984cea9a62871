//go:build windows

package keystate

import (
	"log/slog"
	"sync"

	"golang.org/x/sys/windows"
)

var (
	user32DLL            = windows.NewLazySystemDLL("user32.dll")
	procGetAsyncKeyState = user32DLL.NewProc("GetAsyncKeyState")
)

// asyncKeyDown is the high bit of the GetAsyncKeyState result.
const asyncKeyDown = 0x8000

// Win32 virtual-key codes. Shift, Control and Alt (VK_MENU) are the generic
// codes that Windows Forms style hosts deliver in key events.
var virtualKeys = map[Key]uint32{
	Shift:        0x10,
	Control:      0x11,
	Alt:          0x12,
	LeftShift:    0xA0,
	RightShift:   0xA1,
	LeftControl:  0xA2,
	RightControl: 0xA3,
	LeftAlt:      0xA4,
	RightAlt:     0xA5,
	Backspace:    0x08,
	Tab:          0x09,
	Enter:        0x0D,
	CapsLock:     0x14,
	Escape:       0x1B,
	Space:        0x20,
	PageUp:       0x21,
	PageDown:     0x22,
	End:          0x23,
	Home:         0x24,
	Left:         0x25,
	Up:           0x26,
	Right:        0x27,
	Down:         0x28,
	Insert:       0x2D,
	Delete:       0x2E,
}

var keysByVirtualKey map[uint32]Key

func init() {
	for k := A; k <= Z; k++ {
		virtualKeys[k] = 0x41 + uint32(k-A)
	}
	for k := Digit0; k <= Digit9; k++ {
		virtualKeys[k] = 0x30 + uint32(k-Digit0)
	}
	for k := F1; k <= F12; k++ {
		virtualKeys[k] = 0x70 + uint32(k-F1)
	}

	keysByVirtualKey = make(map[uint32]Key, len(virtualKeys))
	for k, vk := range virtualKeys {
		keysByVirtualKey[vk] = k
	}
}

// FromVirtualKey translates a Win32 virtual-key code as delivered by a host
// key event. Unknown codes map to None.
func FromVirtualKey(vk uint32) Key {
	return keysByVirtualKey[vk]
}

// VirtualKey returns the Win32 virtual-key code of k.
func VirtualKey(k Key) (uint32, bool) {
	vk, ok := virtualKeys[k]
	return vk, ok
}

// ----------------------------------------------------------------------

// AsyncKeyStateProber probes keys with GetAsyncKeyState.
type AsyncKeyStateProber struct {
	logger   *slog.Logger
	loadOnce sync.Once
	loadErr  error
}

// NewAsyncKeyStateProber returns a prober backed by user32.dll. A nil logger
// discards output.
func NewAsyncKeyStateProber(logger *slog.Logger) *AsyncKeyStateProber {
	if logger == nil {
		logger = discardLogger()
	}
	return &AsyncKeyStateProber{logger: logger}
}

// IsPressed reports whether key is physically down. When user32.dll cannot
// be loaded every key reads as released.
func (p *AsyncKeyStateProber) IsPressed(key Key) bool {
	p.loadOnce.Do(func() {
		p.loadErr = procGetAsyncKeyState.Find()
		if p.loadErr != nil {
			p.logger.Warn("[keystate] GetAsyncKeyState is unavailable, keys read as released", "error", p.loadErr)
		}
	})
	if p.loadErr != nil {
		return false
	}

	vk, ok := virtualKeys[key]
	if !ok {
		return false
	}

	// The return value is a SHORT; the high bit marks the key as down.
	ret, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return ret&asyncKeyDown != 0
}
