package video

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Quality is a recording quality tier.
type Quality string

const (
	QualityLow    Quality = "LOW"
	QualityMedium Quality = "MEDIUM"
	QualityHigh   Quality = "HIGH"
)

// Qualities lists tiers from lowest to highest.
var Qualities = []Quality{QualityLow, QualityMedium, QualityHigh}

// Profile describes the encoder parameters of a quality tier.
type Profile struct {
	Label   string
	Width   int
	Height  int
	Bitrate int
	FPS     int
}

var profiles = map[Quality]Profile{
	QualityLow:    {Label: "Low", Width: 640, Height: 480, Bitrate: 1_000_000, FPS: 24},
	QualityMedium: {Label: "Medium", Width: 1280, Height: 720, Bitrate: 3_000_000, FPS: 30},
	QualityHigh:   {Label: "High", Width: 1920, Height: 1080, Bitrate: 10_000_000, FPS: 30},
}

// Profile returns the encoder parameters for q.
// Unknown tiers fall back to medium.
func (q Quality) Profile() Profile {
	if p, ok := profiles[q]; ok {
		return p
	}
	return profiles[QualityMedium]
}

// Next cycles to the following tier.
func (q Quality) Next() Quality {
	for i, candidate := range Qualities {
		if candidate == q {
			return Qualities[(i+1)%len(Qualities)]
		}
	}
	return QualityMedium
}

// ParseQuality parses a tier name case-insensitively.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := profiles[q]; !ok {
		return "", fmt.Errorf("unknown quality %q (expected low, medium or high)", s)
	}
	return q, nil
}

// Allowed recording lengths.
const (
	ShortDuration = 15 * time.Second
	LongDuration  = 60 * time.Second
)

// ValidDuration reports whether d is one of the supported recording lengths.
func ValidDuration(d time.Duration) bool {
	return d == ShortDuration || d == LongDuration
}

// Clip is a recorded video stored on disk.
type Clip struct {
	ID         string        `json:"id"`
	Path       string        `json:"path"`
	Quality    Quality       `json:"quality"`
	Audio      bool          `json:"audio"`
	Duration   time.Duration `json:"duration"`
	RecordedAt time.Time     `json:"recorded_at"`
	Size       int64         `json:"size"`
}

// Name returns the clip's file name.
func (c Clip) Name() string {
	return filepath.Base(c.Path)
}

const clipTimeLayout = "20060102_150405"

// ClipFileName builds VID_<QUALITY>_<AUDIO|MUTED>_<yyyyMMdd_HHmmss>.mp4.
func ClipFileName(q Quality, audio bool, t time.Time) string {
	sound := "MUTED"
	if audio {
		sound = "AUDIO"
	}
	return fmt.Sprintf("VID_%s_%s_%s.mp4", q, sound, t.Format(clipTimeLayout))
}

// ClipFileNameSeq is ClipFileName with a _<n> suffix for the n-th clip
// started within the same second. n <= 1 gives the plain name.
func ClipFileNameSeq(q Quality, audio bool, t time.Time, n int) string {
	name := ClipFileName(q, audio, t)
	if n <= 1 {
		return name
	}
	return fmt.Sprintf("%s_%d.mp4", strings.TrimSuffix(name, ".mp4"), n)
}

// ParseClipFileName reverses ClipFileName. The timestamp is read in loc.
func ParseClipFileName(name string, loc *time.Location) (Quality, bool, time.Time, error) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, "VID_") || !strings.EqualFold(filepath.Ext(base), ".mp4") {
		return "", false, time.Time{}, fmt.Errorf("not a clip file name: %q", base)
	}
	parts := strings.SplitN(strings.TrimSuffix(base[len("VID_"):], filepath.Ext(base)), "_", 3)
	if len(parts) != 3 {
		return "", false, time.Time{}, fmt.Errorf("malformed clip file name: %q", base)
	}
	q, err := ParseQuality(parts[0])
	if err != nil {
		return "", false, time.Time{}, err
	}
	var audio bool
	switch parts[1] {
	case "AUDIO":
		audio = true
	case "MUTED":
	default:
		return "", false, time.Time{}, fmt.Errorf("malformed audio marker in %q", base)
	}
	if loc == nil {
		loc = time.Local
	}
	stamp := parts[2]
	if len(stamp) > len(clipTimeLayout) {
		seq := stamp[len(clipTimeLayout):]
		if n, err := strconv.Atoi(strings.TrimPrefix(seq, "_")); err != nil || seq[0] != '_' || n < 2 {
			return "", false, time.Time{}, fmt.Errorf("malformed sequence in %q", base)
		}
		stamp = stamp[:len(clipTimeLayout)]
	}
	t, err := time.ParseInLocation(clipTimeLayout, stamp, loc)
	if err != nil {
		return "", false, time.Time{}, fmt.Errorf("malformed timestamp in %q: %w", base, err)
	}
	return q, audio, t, nil
}
