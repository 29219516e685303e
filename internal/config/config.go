// Package config loads neutrino settings from a YAML file and turns them
// into search options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"neutrino/internal/search"
)

// DefaultConfigFile is looked up in the working directory when no --config
// flag is given.
const DefaultConfigFile = ".neutrino.yaml"

// ErrInvalidSize is wrapped by every byte-size parse failure.
var ErrInvalidSize = errors.New("invalid size")

// Config represents neutrino configuration options
type Config struct {
	// Concurrency is the total number of traversal and matcher workers
	Concurrency int `yaml:"concurrency"`

	// TraversalRatio is the share of Concurrency used for directory traversal
	TraversalRatio float64 `yaml:"traversal_ratio"`

	// MaxDepth limits how many directory levels are descended (0 = unlimited)
	MaxDepth int `yaml:"max_depth"`

	// MaxSize is the largest file scanned for content, e.g. "1MB" ("0" = unlimited)
	MaxSize string `yaml:"max_size"`

	StackCapacity int `yaml:"stack_capacity"`
	QueueSize     int `yaml:"queue_size"`
	BufferSize    int `yaml:"buffer_size"`

	ExcludeHidden    bool     `yaml:"exclude_hidden"`
	ExcludeDirs      []string `yaml:"exclude_dirs"`
	DefaultSkips     bool     `yaml:"default_skips"`
	RespectGitignore bool     `yaml:"respect_gitignore"`

	// UseMMap maps files of at least MinMMapSize instead of streaming them
	UseMMap     bool   `yaml:"use_mmap"`
	MinMMapSize string `yaml:"min_mmap_size"`

	// Dedupe drops results whose content was already reported
	Dedupe bool `yaml:"dedupe"`

	// LogLevel sets the logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where logs will be written (empty = no log file)
	LogDir string `yaml:"log_dir"`

	// JSON switches console output to a JSON array
	JSON bool `yaml:"json"`

	// Save is the path of a SQLite results database (empty = disabled)
	Save string `yaml:"save"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Concurrency:    search.DefaultConcurrency(),
		TraversalRatio: 1.0 / 3,
		MaxDepth:       0,
		MaxSize:        "1MB",
		StackCapacity:  16,
		QueueSize:      0, // same as Concurrency
		BufferSize:     1000,
		UseMMap:        true,
		MinMMapSize:    "256KB",
		LogLevel:       "info",
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ParseSize parses a human readable byte count such as "1MB", "512KiB" or
// "4096".
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidSize, s, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("%w %q: too large", ErrInvalidSize, s)
	}
	return int64(n), nil
}

// Validate checks ranges and parses every size and level field.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.TraversalRatio <= 0 || c.TraversalRatio >= 1 {
		return fmt.Errorf("traversal_ratio must be between 0 and 1, got %v", c.TraversalRatio)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if c.StackCapacity < 0 || c.QueueSize < 0 || c.BufferSize < 0 {
		return errors.New("stack_capacity, queue_size and buffer_size must not be negative")
	}
	if _, err := ParseSize(c.MaxSize); err != nil {
		return fmt.Errorf("max_size: %w", err)
	}
	if _, err := ParseSize(c.MinMMapSize); err != nil {
		return fmt.Errorf("min_mmap_size: %w", err)
	}
	if _, err := search.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SearchOptions builds the pipeline options for one search.
func (c *Config) SearchOptions(root, glob, pattern string) (search.SearchOptions, error) {
	if err := c.Validate(); err != nil {
		return search.SearchOptions{}, err
	}
	maxSize, _ := ParseSize(c.MaxSize)
	minMMap, _ := ParseSize(c.MinMMapSize)
	return search.SearchOptions{
		Root:             root,
		Glob:             glob,
		Pattern:          pattern,
		Concurrency:      c.Concurrency,
		TraversalRatio:   c.TraversalRatio,
		MaxDepth:         c.MaxDepth,
		MaxSize:          maxSize,
		StackCapacity:    c.StackCapacity,
		QueueSize:        c.QueueSize,
		BufferSize:       c.BufferSize,
		ExcludeHidden:    c.ExcludeHidden,
		ExcludeDirs:      c.ExcludeDirs,
		UseDefaultSkips:  c.DefaultSkips,
		RespectGitignore: c.RespectGitignore,
		UseMMap:          c.UseMMap,
		MinMMapSize:      minMMap,
		DeduplicateFiles: c.Dedupe,
	}, nil
}

// LogOptions returns the logger settings.
func (c *Config) LogOptions() (search.LogOptions, error) {
	level, err := search.ParseLogLevel(c.LogLevel)
	if err != nil {
		return search.LogOptions{}, err
	}
	return search.LogOptions{Dir: c.LogDir, Level: level}, nil
}
