// Package config loads the melodygrid configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/icco/melodygrid/internal/audio"
	"github.com/icco/melodygrid/internal/export"
	"github.com/icco/melodygrid/internal/grid"
)

const appName = "melodygrid"

// Config is the main configuration structure
type Config struct {
	Tempo       int     `yaml:"tempo"`
	SampleRate  int     `yaml:"sample_rate"`
	Channels    int     `yaml:"channels"`
	TailSeconds float64 `yaml:"tail_seconds"`
	ExportGain  float64 `yaml:"export_gain"`
	Volume      float64 `yaml:"volume"`
	Wave        string  `yaml:"wave"`
	DataDir     string  `yaml:"data_dir"`
	ExportDir   string  `yaml:"export_dir"`
	MIDIOut     string  `yaml:"midi_out,omitempty"`
	Debug       bool    `yaml:"debug"`
}

// Dir returns the config directory, ~/.config/melodygrid.
func Dir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the full path to config.yaml
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns a config with the reference settings.
func Default() *Config {
	return &Config{
		Tempo:       grid.DefaultTempo,
		SampleRate:  audio.DefaultSampleRate,
		Channels:    2,
		TailSeconds: export.DefaultTail,
		ExportGain:  export.ExportPeak,
		Volume:      1,
		Wave:        audio.WaveTriangle.String(),
		DataDir:     filepath.Join("~", ".config", appName, "data"),
		ExportDir:   ".",
	}
}

// Load reads the config at path, or the default path when path is empty.
// A missing file yields the defaults. Fields absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, cfg.expand()
		}
		path = p
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("error expanding %s: %w", path, err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // user supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, cfg.expand()
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, cfg.expand()
}

// Save writes the config as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) expand() error {
	var err error
	if c.DataDir, err = homedir.Expand(c.DataDir); err != nil {
		return fmt.Errorf("error expanding data_dir: %w", err)
	}
	if c.ExportDir, err = homedir.Expand(c.ExportDir); err != nil {
		return fmt.Errorf("error expanding export_dir: %w", err)
	}
	return nil
}

// Validate rejects settings the audio and export code cannot use.
func (c *Config) Validate() error {
	if !grid.ValidTempo(c.Tempo) {
		return fmt.Errorf("tempo %d outside [%d, %d]", c.Tempo, grid.MinTempo, grid.MaxTempo)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
	}
	if c.TailSeconds < 0 {
		return fmt.Errorf("tail_seconds must not be negative, got %g", c.TailSeconds)
	}
	if c.ExportGain <= 0 || c.ExportGain > 1 {
		return fmt.Errorf("export_gain must be in (0, 1], got %g", c.ExportGain)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("volume must be in [0, 1], got %g", c.Volume)
	}
	if _, ok := audio.ParseWave(c.Wave); !ok {
		return fmt.Errorf("unknown wave %q", c.Wave)
	}
	return nil
}

// WaveType returns the configured oscillator shape.
func (c *Config) WaveType() audio.WaveType {
	w, _ := audio.ParseWave(c.Wave)
	return w
}

// Renderer builds the offline renderer for the configured export settings.
func (c *Config) Renderer() *export.Renderer {
	r := export.NewRenderer()
	r.SampleRate = c.SampleRate
	r.Channels = c.Channels
	r.Tail = c.TailSeconds
	r.Envelope = audio.LiveEnvelope.WithPeak(c.ExportGain)
	r.Wave = c.WaveType()
	return r
}

// SynthOptions builds the live synthesizer options.
func (c *Config) SynthOptions() audio.Options {
	return audio.Options{
		SampleRate: c.SampleRate,
		Volume:     c.Volume,
		Envelope:   audio.LiveEnvelope,
		Wave:       c.WaveType(),
	}
}
