// Package config handles javium.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/daimatz/javium/pkg/classfile"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "javium.toml"

// Config represents a javium.toml file.
type Config struct {
	Decode    Decode    `toml:"decode"`
	Classpath Classpath `toml:"classpath"`
	Output    Output    `toml:"output"`
	Log       Log       `toml:"log"`

	// Dir is the directory containing the file, "" for defaults.
	Dir string `toml:"-"`
}

// Decode tunes the decoder.
type Decode struct {
	MaxDepth int `toml:"max_depth"`
	// MaxMajorVersion rejects newer class files when non-zero.
	MaxMajorVersion uint16 `toml:"max_major_version"`
}

type Classpath struct {
	Entries []string `toml:"entries"`
}

type Output struct {
	Format  string `toml:"format"`
	Color   string `toml:"color"`
	Verbose bool   `toml:"verbose"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Decode: Decode{MaxDepth: classfile.DefaultMaxDepth},
		Output: Output{Format: "text", Color: "auto"},
		Log:    Log{Level: "warn"},
	}
}

// Load parses the javium.toml file in dir. Keys it does not set keep
// their defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a javium.toml file and loads
// it. Without one it returns Default().
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "text", "cbor":
	default:
		return fmt.Errorf("output.format must be text or cbor, got %q", c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color must be auto, always or never, got %q", c.Output.Color)
	}
	if c.Decode.MaxDepth < 0 {
		return fmt.Errorf("decode.max_depth must not be negative, got %d", c.Decode.MaxDepth)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// ClasspathEntries returns the configured entries, resolved against Dir
// when relative.
func (c *Config) ClasspathEntries() []string {
	var paths []string
	for _, e := range c.Classpath.Entries {
		if c.Dir != "" && !filepath.IsAbs(e) {
			e = filepath.Join(c.Dir, e)
		}
		paths = append(paths, e)
	}
	return paths
}

// DecoderOptions returns the classfile options implied by the config.
func (c *Config) DecoderOptions(logger zerolog.Logger) []classfile.Option {
	return []classfile.Option{
		classfile.WithMaxDepth(c.Decode.MaxDepth),
		classfile.WithLogger(logger),
	}
}
