package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/adalundhe/fragments/core/storage"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type Manager struct {
	configPtr unsafe.Pointer
	dirs      *storage.Dirs
	project   *storage.ProjectDirs
	watchers  []func(*Config)
	watcherMu sync.RWMutex
}

type Config struct {
	Diff   DiffConfig   `yaml:"diff"`
	Apply  ApplyConfig  `yaml:"apply"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
	Weave  WeaveConfig  `yaml:"weave"`
}

type DiffConfig struct {
	ContextLines int `yaml:"context_lines"`
}

type ApplyConfig struct {
	Mode    string   `yaml:"mode"`
	Exclude []string `yaml:"exclude"`
}

type OutputConfig struct {
	Color string `yaml:"color"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type WeaveConfig struct {
	MatchDepth    int `yaml:"match_depth"`
	ViewCacheSize int `yaml:"view_cache_size"`
}

const (
	ModeInteractive = "interactive"
	ModeAutomatic   = "automatic"

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// NewManager creates a manager holding the defaults. project may be nil when
// no repository has been found yet.
func NewManager(dirs *storage.Dirs, project *storage.ProjectDirs) *Manager {
	m := &Manager{
		dirs:    dirs,
		project: project,
	}
	cfg := DefaultConfig()
	atomic.StorePointer(&m.configPtr, unsafe.Pointer(cfg))
	return m
}

func DefaultConfig() *Config {
	return &Config{
		Diff: DiffConfig{
			ContextLines: 3,
		},
		Apply: ApplyConfig{
			Mode: ModeInteractive,
		},
		Output: OutputConfig{
			Color: ColorAuto,
		},
		Log: LogConfig{
			Level: "warn",
		},
		Weave: WeaveConfig{
			MatchDepth:    10,
			ViewCacheSize: 64,
		},
	}
}

func (m *Manager) Get() *Config {
	return (*Config)(atomic.LoadPointer(&m.configPtr))
}

// Load layers defaults, project settings, user settings and the
// environment, in that order.
func (m *Manager) Load() error {
	cfg := DefaultConfig()

	if err := m.loadProjectConfig(cfg); err != nil {
		return fmt.Errorf("project config: %w", err)
	}

	if err := m.loadUserConfig(cfg); err != nil {
		return fmt.Errorf("user config: %w", err)
	}

	m.applyEnvironment(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	atomic.StorePointer(&m.configPtr, unsafe.Pointer(cfg))
	m.notifyWatchers(cfg)

	return nil
}

func (m *Manager) loadProjectConfig(cfg *Config) error {
	if m.project == nil {
		return nil
	}
	return m.loadYAMLFile(m.project.Settings, cfg)
}

func (m *Manager) loadUserConfig(cfg *Config) error {
	if m.dirs == nil {
		return nil
	}
	return m.loadYAMLFile(m.dirs.UserSettings(), cfg)
}

func (m *Manager) loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func (m *Manager) applyEnvironment(cfg *Config) {
	if v := os.Getenv("FRAGMENTS_CONTEXT_LINES"); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Diff.ContextLines = n
		}
	}
	if v := os.Getenv("FRAGMENTS_APPLY_MODE"); v != "" {
		cfg.Apply.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("FRAGMENTS_COLOR"); v != "" {
		cfg.Output.Color = strings.ToLower(v)
	}
	if v := os.Getenv("FRAGMENTS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FRAGMENTS_MATCH_DEPTH"); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Weave.MatchDepth = n
		}
	}
}

// Validate rejects settings no command could act on.
func (c *Config) Validate() error {
	if c.Diff.ContextLines < 0 {
		return fmt.Errorf("%w: diff.context_lines must not be negative", ErrInvalidConfig)
	}
	switch c.Apply.Mode {
	case ModeInteractive, ModeAutomatic:
	default:
		return fmt.Errorf("%w: apply.mode %q", ErrInvalidConfig, c.Apply.Mode)
	}
	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: output.color %q", ErrInvalidConfig, c.Output.Color)
	}
	if c.Weave.MatchDepth < 1 {
		return fmt.Errorf("%w: weave.match_depth must be positive", ErrInvalidConfig)
	}
	if c.Weave.ViewCacheSize < 0 {
		return fmt.Errorf("%w: weave.view_cache_size must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func (c *Config) LogLevel() slog.Level {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, s)
	}
	return level, nil
}

func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

func (m *Manager) Reload() error {
	return m.Load()
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
