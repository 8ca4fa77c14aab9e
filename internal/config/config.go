// Package config loads and validates the compose pipeline's
// configuration: a TOML file, overridable by flags/environment, plus a
// version-directory allocator for successive runs against the same
// output tree. Adapted from the teacher's flat Config struct, redesigned
// so every field the pipeline reads is one it actually declares.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the fully resolved configuration for one compose run.
type Config struct {
	ScenarioFile string `toml:"scenario_file"`
	OutputDir    string `toml:"output_dir"`

	Width  int `toml:"width"`
	Height int `toml:"height"`
	FPS    int `toml:"fps"`

	NoVoiceover bool   `toml:"no_voiceover"`
	NoCursor    bool   `toml:"no_cursor"`
	ReuseAudio  string `toml:"reuse_audio"`

	VideoCodec  string `toml:"video_codec"`
	CRF         int    `toml:"crf"`
	PixelFormat string `toml:"pixel_format"`

	Workers int `toml:"workers"`

	TTSProvider string `toml:"tts_provider"`
	TTSVoice    string `toml:"tts_voice"`
	TTSAPIKey   string `toml:"tts_api_key"`

	SilenceThresholdDb    float64 `toml:"silence_threshold_db"`
	SilenceMinDurationSec float64 `toml:"silence_min_duration_sec"`

	Debug bool `toml:"debug"`
}

// Defaults returns a Config with every field the pipeline needs
// populated with a sane default.
func Defaults() Config {
	return Config{
		Width: 1920, Height: 1080, FPS: 30,
		VideoCodec: "libx264", CRF: 23, PixelFormat: "yuv420p",
		Workers:               0, // resolved later against runtime.NumCPU
		TTSProvider:           "cloud",
		SilenceThresholdDb:    -30,
		SilenceMinDurationSec: 0.3,
	}
}

// Load reads a TOML config file over the defaults. A missing file is not
// an error; callers rely on flag/env overrides plus the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DEMOREEL_-prefixed environment
// variables, applied after the TOML file and before flags.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("DEMOREEL_TTS_API_KEY"); ok {
		c.TTSAPIKey = v
	}
	if v, ok := lookup("DEMOREEL_OUTPUT_DIR"); ok {
		c.OutputDir = v
	}
	if v, ok := lookup("DEMOREEL_WORKERS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

// Validate reports the first internally-inconsistent field it finds.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: width and height must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("config: fps must be positive, got %d", c.FPS)
	}
	if !c.NoVoiceover && c.TTSProvider == "" {
		return fmt.Errorf("config: tts_provider is required unless no_voiceover is set")
	}
	return nil
}

// NextVersionDir allocates the next unused "v<N>" subdirectory of root,
// scanning existing v<N> siblings so re-running compose against the same
// output tree never clobbers a prior render. Adapted from the teacher's
// FindLatest* directory-scanning helpers, generalized from "most recent
// file matching a suffix" to "one past the largest existing v<N>" (gaps
// left by deleted versions are not reused).
func NextVersionDir(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return filepath.Join(root, "v1"), nil
		}
		return "", fmt.Errorf("config: reading %s: %w", root, err)
	}

	var versions []int
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "v") {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(e.Name(), "v")); err == nil {
			versions = append(versions, n)
		}
	}
	sort.Ints(versions)

	next := 1
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}
	return filepath.Join(root, fmt.Sprintf("v%d", next)), nil
}
