package usecase

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tesso57/jelly/internal/domain/video"
	"golang.org/x/sync/singleflight"
)

// ClipRepository abstracts persistence for recorded clips.
type ClipRepository interface {
	Add(clip video.Clip) error
	List() ([]video.Clip, error)
	Get(id string) (video.Clip, error)
	Remove(id string) error
	Scan(dir string, skip ...string) (int, error)
}

// CameraRollService provides camera roll operations.
type CameraRollService struct {
	Repo      ClipRepository
	OutputDir string
	// Recording returns the file currently being written, if any. Rescans
	// leave it alone until the recorder has saved it.
	Recording func() string

	// scans collapses concurrent rescans of the same directory.
	scans singleflight.Group
}

// NewCameraRollService constructs a CameraRollService.
func NewCameraRollService(repo ClipRepository, outputDir string) *CameraRollService {
	return &CameraRollService{Repo: repo, OutputDir: outputDir}
}

// List returns all clips, newest first.
func (s *CameraRollService) List() ([]video.Clip, error) {
	return s.Repo.List()
}

// Rescan indexes clips found in the output directory and returns the
// updated list.
func (s *CameraRollService) Rescan() ([]video.Clip, error) {
	dir := strings.TrimSpace(s.OutputDir)
	if dir == "" {
		return s.Repo.List()
	}
	v, err, _ := s.scans.Do(dir, func() (any, error) {
		var skip []string
		if s.Recording != nil {
			if p := s.Recording(); p != "" {
				skip = append(skip, p)
			}
		}
		if _, err := s.Repo.Scan(dir, skip...); err != nil {
			return nil, err
		}
		return s.Repo.List()
	})
	if err != nil {
		return nil, err
	}
	clips, _ := v.([]video.Clip)
	return append([]video.Clip(nil), clips...), nil
}

// Delete removes a clip and its file and returns the updated list.
// A file that is already gone is not an error.
func (s *CameraRollService) Delete(id string) ([]video.Clip, error) {
	clip, err := s.Repo.Get(id)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(clip.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to delete %s: %w", clip.Path, err)
	}
	if err := s.Repo.Remove(id); err != nil {
		return nil, err
	}
	return s.Repo.List()
}
