package location

import "math"

// Cursor is the mouse cursor shape a location asks for while the mouse is
// over one of its handles.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorHand
	CursorSizing
	CursorSizeNWSE
	CursorSizeWE
	CursorSizeNESW
	CursorSizeNS
)

func (c Cursor) String() string {
	switch c {
	case CursorHand:
		return "hand"
	case CursorSizing:
		return "sizing"
	case CursorSizeNWSE:
		return "size-nwse"
	case CursorSizeWE:
		return "size-we"
	case CursorSizeNESW:
		return "size-nesw"
	case CursorSizeNS:
		return "size-ns"
	default:
		return "default"
	}
}

// compass lists the resize cursor for each 22.5 degree step of rotation,
// starting from the top-left corner of an unrotated model.
var compass = [16]Cursor{
	CursorSizeNWSE, CursorSizeWE, CursorSizeWE, CursorSizeNESW,
	CursorSizeNESW, CursorSizeNS, CursorSizeNS, CursorSizeNWSE,
	CursorSizeNWSE, CursorSizeWE, CursorSizeWE, CursorSizeNESW,
	CursorSizeNESW, CursorSizeNS, CursorSizeNS, CursorSizeNWSE,
}

// ResizeCursor returns the resize cursor for a corner handle (HandleLeftTop
// through HandleLeftBottom) of a model rotated by the given degrees. Each
// corner is a quarter turn, four compass steps, after the previous one.
func ResizeCursor(corner int, rotation float64) Cursor {
	r := math.Mod(rotation, 360)
	if r < 0 {
		r += 360
	}
	state := int(r/22.5) % 16
	if corner >= HandleLeftTop && corner <= HandleLeftBottom {
		state = (state + 4*corner) % 16
	} else {
		state = (state + 12) % 16
	}
	return compass[state]
}
