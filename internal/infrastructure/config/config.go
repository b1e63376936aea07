// Package config handles configuration loading and saving.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/renameio/v2"
	"github.com/tesso57/jelly/internal/application/settings"
	"github.com/tesso57/jelly/internal/domain/video"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv overrides feed.api_key for the running process only.
const APIKeyEnv = "JELLY_API_KEY"

// Store manages persisted application settings.
//
// Settings is what the process runs with: the file plus environment and
// command line overrides. Only the file's own values are ever written back.
type Store struct {
	Settings   settings.Settings
	file       settings.Settings
	configPath string
}

// DefaultPath returns ~/.config/jelly/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jelly", "config.yaml"), nil
}

// Load loads the configuration from the specified path or default location.
func Load(customPath ...string) (*Store, error) {
	var configPath string
	if len(customPath) > 0 && customPath[0] != "" {
		configPath = expandHome(customPath[0])
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := settings.Settings{}
	store := &Store{configPath: configPath}

	var options []kong.Option
	if _, err := os.Stat(configPath); err == nil {
		options = append(options, kong.Configuration(yamlKongLoader, configPath))
	}

	parser, err := kong.New(&cfg, options...)
	if err != nil {
		return nil, err
	}
	if _, err := parser.Parse([]string{}); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	store.file = cfg
	store.file.Player.Args = slices.Clone(cfg.Player.Args)
	store.Settings = cfg
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		store.Settings.Feed.APIKey = key
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := store.Save(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	return store, nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.configPath
}

func applyDefaults(s *settings.Settings) {
	dataDir := filepath.Join(defaultDataHome(), "jelly")

	s.LibraryFile = expandHome(strings.TrimSpace(s.LibraryFile))
	if s.LibraryFile == "" {
		s.LibraryFile = filepath.Join(dataDir, "library.db")
	}
	s.LogFile = expandHome(strings.TrimSpace(s.LogFile))
	if s.LogFile == "" {
		s.LogFile = filepath.Join(dataDir, "jelly.log")
	}
	s.Recorder.OutputDir = expandHome(strings.TrimSpace(s.Recorder.OutputDir))
	if s.Recorder.OutputDir == "" {
		s.Recorder.OutputDir = defaultVideosDir()
	}
	if q, err := video.ParseQuality(s.Recorder.Quality); err == nil {
		s.Recorder.Quality = string(q)
	} else {
		s.Recorder.Quality = string(video.QualityMedium)
	}
	s.Feed.Kind = strings.ToLower(strings.TrimSpace(s.Feed.Kind))
}

func defaultDataHome() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome != "" {
		return dataHome
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

func defaultVideosDir() string {
	if dir := os.Getenv("XDG_VIDEOS_DIR"); dir != "" {
		return filepath.Join(dir, "jelly")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "jelly-videos"
	}
	return filepath.Join(home, "Videos", "jelly")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func yamlKongLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var f kong.ResolverFunc = func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		names := []string{flag.Name, strings.ReplaceAll(flag.Name, "-", "_")}
		for _, name := range names {
			if v, ok := values[name]; ok {
				return v, nil
			}
			if v, ok := lookupNested(values, strings.Split(name, ".")); ok {
				return v, nil
			}
		}
		return nil, nil
	}
	return f, nil
}

func lookupNested(values map[string]any, parts []string) (any, bool) {
	if len(parts) < 2 {
		return nil, false
	}
	curr := values
	for _, part := range parts[:len(parts)-1] {
		next, ok := curr[part].(map[string]any)
		if !ok {
			return nil, false
		}
		curr = next
	}
	v, ok := curr[parts[len(parts)-1]]
	return v, ok
}

// SetQuality persists the default recording quality.
func (s *Store) SetQuality(q video.Quality) error {
	s.Settings.Recorder.Quality = string(q)
	s.file.Recorder.Quality = string(q)
	return s.Save()
}

// SetDuration persists the default clip length.
func (s *Store) SetDuration(d time.Duration) error {
	if !video.ValidDuration(d) {
		return fmt.Errorf("unsupported duration %s", d)
	}
	s.Settings.Recorder.DurationSeconds = int(d / time.Second)
	s.file.Recorder.DurationSeconds = int(d / time.Second)
	return s.Save()
}

// SetAudio persists whether clips record sound.
func (s *Store) SetAudio(on bool) error {
	s.Settings.Recorder.Audio = on
	s.file.Recorder.Audio = on
	return s.Save()
}

// Save atomically writes the file-backed settings to the config file.
// Overrides applied to Settings after Load are not written.
func (s *Store) Save() error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s.file); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return renameio.WriteFile(s.configPath, buf.Bytes(), 0600)
}
