package emu

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"pcmemu/emu/log"
	"pcmemu/hw/multipcm"
	"pcmemu/hw/okim6295"
	"pcmemu/hw/pcm"
	"pcmemu/hw/rf5c68"
	"pcmemu/hw/ymz280b"
)

type Config struct {
	Output   OutputConfig   `toml:"output"`
	MultiPCM MultiPCMConfig `toml:"multipcm"`
	YMZ280B  YMZ280BConfig  `toml:"ymz280b"`
	RF5C68   RF5C68Config   `toml:"rf5c68"`
	OKIM6295 OKIM6295Config `toml:"okim6295"`
	Log      LogConfig      `toml:"log"`
}

type OutputConfig struct {
	Rate  int     `toml:"rate"`
	Gain  float64 `toml:"gain"`
	Loops int     `toml:"loops"` // times a looping file is played
}

type MultiPCMConfig struct {
	PanLaw string `toml:"pan_law"`
}

type YMZ280BConfig struct {
	LoopRestore bool `toml:"loop_restore"`
}

type RF5C68Config struct {
	// Variant of the chip declared in the RF5C68 slot of a VGM file.
	Variant string `toml:"variant"`
}

type OKIM6295Config struct {
	// Pin7 overrides the pin 7 state declared by the file, if set.
	Pin7 *bool `toml:"pin7,omitempty"`
}

type LogConfig struct {
	Modules []string `toml:"modules"`
}

var DefaultConfig = Config{
	Output: OutputConfig{
		Rate:  44100,
		Gain:  1.0,
		Loops: 2,
	},
	MultiPCM: MultiPCMConfig{PanLaw: multipcm.Default.PanLaw.String()},
	YMZ280B:  YMZ280BConfig{LoopRestore: ymz280b.Default.LoopRestore},
	RF5C68:   RF5C68Config{Variant: rf5c68.Default.Variant.String()},
}

// Check validates the configuration.
func (cfg *Config) Check() error {
	if cfg.Output.Rate < 8000 || cfg.Output.Rate > maxSampleRate {
		return fmt.Errorf("output rate %d out of range [8000, %d]", cfg.Output.Rate, maxSampleRate)
	}
	if cfg.Output.Gain <= 0 {
		return fmt.Errorf("output gain must be positive, got %g", cfg.Output.Gain)
	}
	if _, ok := pcm.ParsePanLaw(cfg.MultiPCM.PanLaw); !ok {
		return fmt.Errorf("unknown multipcm pan law %q", cfg.MultiPCM.PanLaw)
	}
	if _, err := rf5c68.ParseVariant(cfg.RF5C68.Variant); err != nil {
		return err
	}
	for _, name := range cfg.Log.Modules {
		if _, ok := log.ModuleByName(name); !ok {
			return fmt.Errorf("unknown log module %q", name)
		}
	}
	return nil
}

func (cfg *Config) multiPCMConfig() multipcm.Config {
	law, _ := pcm.ParsePanLaw(cfg.MultiPCM.PanLaw)
	return multipcm.Config{PanLaw: law}
}

func (cfg *Config) ymzConfig() ymz280b.Config {
	return ymz280b.Config{LoopRestore: cfg.YMZ280B.LoopRestore}
}

func (cfg *Config) rf5cConfig() rf5c68.Config {
	v, _ := rf5c68.ParseVariant(cfg.RF5C68.Variant)
	return rf5c68.Config{Variant: v}
}

// okiConfig returns the OKIM6295 configuration, pin7 being the state
// declared by the file.
func (cfg *Config) okiConfig(pin7 bool) okim6295.Config {
	if cfg.OKIM6295.Pin7 != nil {
		pin7 = *cfg.OKIM6295.Pin7
	}
	return okim6295.Config{Pin7: pin7}
}

const DefaultFileMode = os.FileMode(0755)

var ConfigDir = sync.OnceValue(func() string {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Fatalf("failed to get user config directory: %v", err)
	}

	dir := filepath.Join(cfgdir, "pcmemu")
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// LoadConfig loads the configuration at path. Missing keys keep their
// default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return DefaultConfig, err
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.WarnZ("unknown config key").String("key", key.String()).End()
	}
	if err := cfg.Check(); err != nil {
		return DefaultConfig, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the pcmemu config
// directory, or provides the default one.
func LoadConfigOrDefault() Config {
	path := filepath.Join(ConfigDir(), cfgFilename)
	cfg, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.ModEmu.WarnZ("failed to load config, using defaults").Error("err", err).End()
		}
		return DefaultConfig
	}
	return cfg
}

// SaveConfig into pcmemu config directory.
func SaveConfig(cfg Config) error {
	return saveConfig(filepath.Join(ConfigDir(), cfgFilename), cfg)
}

func saveConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
