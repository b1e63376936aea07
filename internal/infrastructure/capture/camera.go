// Package capture records clips from local camera devices with ffmpeg.
package capture

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/tesso57/jelly/internal/domain/video"
)

// DeviceGlob matches candidate camera nodes.
var DeviceGlob = "/dev/video*"

// ListCameras returns device nodes in numeric order. The first one is
// reported as the back camera and the second as the front camera.
func ListCameras() ([]video.Camera, error) {
	paths, err := filepath.Glob(DeviceGlob)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(paths, func(a, b string) int {
		return deviceNumber(a) - deviceNumber(b)
	})

	cams := make([]video.Camera, 0, len(paths))
	for i, p := range paths {
		facing := video.FacingExternal
		switch i {
		case 0:
			facing = video.FacingBack
		case 1:
			facing = video.FacingFront
		}
		cams = append(cams, video.Camera{ID: p, Facing: facing})
	}
	return cams, nil
}

// ResolveCamera turns a facing name into a device node. Anything else is
// taken as a device path and returned unchanged, as is the empty string.
func ResolveCamera(name string) (string, error) {
	f, ok := video.ParseFacing(name)
	if !ok {
		return name, nil
	}
	cams, err := ListCameras()
	if err != nil {
		return "", err
	}
	cam, err := video.FindCamera(cams, f)
	if err != nil {
		return "", fmt.Errorf("%s camera: %w", f, err)
	}
	return cam.ID, nil
}

func deviceNumber(path string) int {
	base := filepath.Base(path)
	digits := strings.TrimLeftFunc(base, func(r rune) bool { return r < '0' || r > '9' })
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 1 << 30
	}
	return n
}
