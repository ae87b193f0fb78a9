package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hyperblame/internal/engine"
	"github.com/roach88/hyperblame/internal/gitcli"
)

// Language is one comment family of the useless-line filter.
type Language struct {
	Extensions      []string `yaml:"extensions" json:"extensions"`
	CommentPrefixes []string `yaml:"comment_prefixes" json:"comment_prefixes"`
}

// Config holds engine and CLI settings.
type Config struct {
	Workers         int                 `yaml:"workers" json:"workers"`
	Strict          bool                `yaml:"strict" json:"strict"`
	RenameKey       string              `yaml:"rename_key" json:"rename_key"`
	IgnoreRevsFile  string              `yaml:"ignore_revs_file" json:"ignore_revs_file"`
	DefaultPrefixes []string            `yaml:"default_prefixes" json:"default_prefixes,omitempty"`
	Languages       map[string]Language `yaml:"languages" json:"languages,omitempty"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Workers:        engine.DefaultWorkers,
		RenameKey:      string(engine.RenameKeyNew),
		IgnoreRevsFile: gitcli.DefaultIgnoreFile,
	}
}

// Load reads the file at path. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse validates and decodes YAML data. filename is used in error
// messages only.
func Parse(data []byte, filename string) (*Config, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{File: filename, Message: err.Error()}
	}
	if doc == nil {
		doc = map[string]any{}
	}

	if err := validate(doc, filename); err != nil {
		return nil, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{File: filename, Message: err.Error()}
	}
	return cfg, nil
}

// LineFilter builds the useless-line filter: the built-in families, then
// the configured languages in name order.
func (c *Config) LineFilter() *engine.LineFilter {
	f := engine.DefaultLineFilter()
	if len(c.DefaultPrefixes) > 0 {
		f.SetFallback(c.DefaultPrefixes)
	}

	names := make([]string, 0, len(c.Languages))
	for name := range c.Languages {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lang := c.Languages[name]
		f.AddFamily(lang.CommentPrefixes, lang.Extensions...)
	}
	return f
}

// EngineOptions translates the settings into engine options.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithWorkers(c.Workers),
		engine.WithStrict(c.Strict),
		engine.WithRenameKey(engine.RenameKey(c.RenameKey)),
		engine.WithLineFilter(c.LineFilter()),
	}
}
