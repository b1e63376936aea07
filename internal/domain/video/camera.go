package video

import "errors"

// ErrNoCamera is returned when no matching capture device is present.
var ErrNoCamera = errors.New("no camera found")

// Facing mirrors the back/front choice of a phone camera.
type Facing string

const (
	FacingBack     Facing = "back"
	FacingFront    Facing = "front"
	FacingExternal Facing = "external"
)

// ParseFacing accepts "back", "front" or "external".
func ParseFacing(s string) (Facing, bool) {
	switch f := Facing(s); f {
	case FacingBack, FacingFront, FacingExternal:
		return f, true
	}
	return "", false
}

// Camera is a capture device node.
type Camera struct {
	ID     string `json:"id"`
	Facing Facing `json:"facing"`
}

// FindCamera returns the first camera facing f.
func FindCamera(cams []Camera, f Facing) (Camera, error) {
	for _, c := range cams {
		if c.Facing == f {
			return c, nil
		}
	}
	return Camera{}, ErrNoCamera
}

// OtherFacing returns the facing a switch moves to: back and front swap,
// anything else goes back.
func OtherFacing(f Facing) Facing {
	if f == FacingBack {
		return FacingFront
	}
	return FacingBack
}
