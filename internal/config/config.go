// Package config loads the engine-level settings a synth.Synthesizer is
// constructed from: sample rate, channel count, a polyphony value (validated
// but not read by the engine; voice pools are uncapped), the initial MIDI
// standard, master volume, and the SoundFont files to preload. It is the
// one supplemental, file-driven way to pin these down beyond the CLI's flag
// set.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kestrelaudio/sfsynth/midi"
)

// Config is the engine's construction input, loadable from a YAML file or
// built in code via Default.
type Config struct {
	SampleRate      int      `yaml:"sample_rate"`
	Channels        int      `yaml:"channels"`
	Polyphony       int      `yaml:"polyphony"`
	InitialStandard string   `yaml:"initial_standard"`
	StandardFixed   bool     `yaml:"standard_fixed"`
	MasterVolume    float64  `yaml:"master_volume"`
	SoundFonts      []string `yaml:"soundfonts"`
}

// Default returns the engine's out-of-the-box configuration: 44100 Hz, 16
// channels, Polyphony 256 (not enforced: channels do not cap their voice
// count), GM standard, full volume, no preloaded SoundFonts.
func Default() Config {
	return Config{
		SampleRate:      44100,
		Channels:        16,
		Polyphony:       256,
		InitialStandard: "GM",
		StandardFixed:   false,
		MasterVolume:    1.0,
	}
}

// Load reads and unmarshals a YAML config file at path, starting from
// Default so a partial file only overrides the fields it sets.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports whether c describes a constructible Synthesizer.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("config: sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("config: channels must be positive, got %d", c.Channels)
	}
	if c.Polyphony <= 0 {
		return fmt.Errorf("config: polyphony must be positive, got %d", c.Polyphony)
	}
	if c.MasterVolume < 0 {
		return fmt.Errorf("config: master_volume must not be negative, got %g", c.MasterVolume)
	}
	if _, err := c.Standard(); err != nil {
		return err
	}
	return nil
}

// Standard parses InitialStandard into a midi.Standard.
func (c Config) Standard() (midi.Standard, error) {
	switch c.InitialStandard {
	case "GM", "":
		return midi.StandardGM, nil
	case "GS":
		return midi.StandardGS, nil
	case "XG":
		return midi.StandardXG, nil
	default:
		return 0, fmt.Errorf("config: unknown initial_standard %q", c.InitialStandard)
	}
}
