// Package settings defines application-level configuration data.
package settings

import (
	"time"

	"github.com/tesso57/jelly/internal/domain/video"
)

// FeedConfig defines where the video feed is fetched from.
type FeedConfig struct {
	Kind           string `yaml:"kind" kong:"help='Feed source kind (rest/rss)',default='rest'"`
	Endpoint       string `yaml:"endpoint" kong:"help='Feed endpoint URL',default='https://cbtzdoasmkbbiwnyoxvz.supabase.co/rest/v1/shareable_data'"`
	APIKey         string `yaml:"api_key" kong:"help='API key sent as apikey and bearer token (JELLY_API_KEY overrides)'"`
	Limit          int    `yaml:"limit" kong:"help='Number of videos per fetch',default='5'"`
	TimeoutSeconds int    `yaml:"timeout_seconds" kong:"help='Request timeout in seconds',default='10'"`
	Lenient        bool   `yaml:"lenient" kong:"help='Default missing id/url fields instead of failing',default='false'"`
}

// Timeout returns the request timeout as a duration.
func (c FeedConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PlayerConfig defines the external player used by playback pages.
type PlayerConfig struct {
	Command string   `yaml:"command" kong:"help='Player command',default='mpv'"`
	Args    []string `yaml:"args" kong:"help='Player arguments placed before the URL',default='--really-quiet,--loop=inf'"`
}

// RecorderConfig defines the capture backend.
type RecorderConfig struct {
	FFmpeg          string `yaml:"ffmpeg" kong:"help='ffmpeg binary',default='ffmpeg'"`
	VideoDevice     string `yaml:"video_device" kong:"help='Camera device (empty = first detected)'"`
	AudioDevice     string `yaml:"audio_device" kong:"help='ALSA audio device',default='default'"`
	OutputDir       string `yaml:"output_dir" kong:"help='Directory recorded clips are written to'"`
	DurationSeconds int    `yaml:"duration_seconds" kong:"help='Default clip length (15 or 60)',default='15'"`
	Quality         string `yaml:"quality" kong:"help='Default quality (low/medium/high)',default='MEDIUM'"`
	Audio           bool   `yaml:"audio" kong:"help='Record audio by default',default='true'"`
}

// KeyMapConfig defines the configuration for keybindings.
type KeyMapConfig struct {
	Up             string `yaml:"up" kong:"help='Previous video key',default='k,up'"`
	Down           string `yaml:"down" kong:"help='Next video key',default='j,down'"`
	Play           string `yaml:"play" kong:"help='Replay current video key',default='enter'"`
	Refresh        string `yaml:"refresh" kong:"help='Refresh key',default='r'"`
	NextTab        string `yaml:"next_tab" kong:"help='Next tab key',default='tab,l'"`
	PrevTab        string `yaml:"prev_tab" kong:"help='Previous tab key',default='shift+tab,h'"`
	Record         string `yaml:"record" kong:"help='Start/stop recording key',default='s'"`
	ToggleDuration string `yaml:"toggle_duration" kong:"help='Toggle 15s/60s key',default='d'"`
	CycleQuality   string `yaml:"cycle_quality" kong:"help='Cycle quality key',default='c'"`
	ToggleSound    string `yaml:"toggle_sound" kong:"help='Toggle sound key',default='m'"`
	SwitchCamera   string `yaml:"switch_camera" kong:"help='Switch back/front camera key',default='f'"`
	Delete         string `yaml:"delete" kong:"help='Delete clip key',default='x'"`
	Quit           string `yaml:"quit" kong:"help='Quit key',default='q'"`
}

// ThemeConfig defines the color theme configuration.
type ThemeConfig struct {
	Accent string `yaml:"accent" kong:"help='Accent color',default='205'"`
	Muted  string `yaml:"muted" kong:"help='Secondary text color',default='240'"`
	Error  string `yaml:"error" kong:"help='Error banner color',default='196'"`
}

// Settings represents the application configuration.
type Settings struct {
	Feed        FeedConfig     `yaml:"feed" kong:"embed,prefix='feed.'"`
	Player      PlayerConfig   `yaml:"player" kong:"embed,prefix='player.'"`
	Recorder    RecorderConfig `yaml:"recorder" kong:"embed,prefix='recorder.'"`
	KeyMap      KeyMapConfig   `yaml:"keymap" kong:"embed,prefix='keymap.'"`
	Theme       ThemeConfig    `yaml:"theme" kong:"embed,prefix='theme.'"`
	LibraryFile string         `yaml:"library_file" kong:"help='Camera roll database path'"`
	LogFile     string         `yaml:"log_file" kong:"help='Log file path'"`
	LogLevel    string         `yaml:"log_level" kong:"help='Log level',default='info'"`
}

// RecordDuration returns the configured default clip length,
// falling back to the short duration for unsupported values.
func (s Settings) RecordDuration() time.Duration {
	d := time.Duration(s.Recorder.DurationSeconds) * time.Second
	if !video.ValidDuration(d) {
		return video.ShortDuration
	}
	return d
}
