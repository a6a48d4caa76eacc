// Package config provides configuration management for StudyX.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xvierd/studyx/internal/domain"
	"github.com/xvierd/studyx/internal/logger"
)

const defaultDataDir = "~/.studyx"

// Config holds all configuration for the StudyX application.
type Config struct {
	Timer         TimerConfig        `mapstructure:"timer"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	User          UserConfig         `mapstructure:"user"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Log           LogConfig          `mapstructure:"log"`
	Git           GitConfig          `mapstructure:"git"`
	MCP           MCPConfig          `mapstructure:"mcp"`
	Theme         ThemeConfig        `mapstructure:"theme"`
}

// TimerConfig holds pomodoro timer settings.
type TimerConfig struct {
	FocusMinutes       int  `mapstructure:"focus_minutes"`
	ShortBreakMinutes  int  `mapstructure:"short_break_minutes"`
	LongBreakMinutes   int  `mapstructure:"long_break_minutes"`
	LongBreakInterval  int  `mapstructure:"long_break_interval"`
	AutoStartBreaks    bool `mapstructure:"auto_start_breaks"`
	AutoStartPomodoros bool `mapstructure:"auto_start_pomodoros"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Sound       bool `mapstructure:"sound"`
	Sessions    bool `mapstructure:"sessions"`
	Breaks      bool `mapstructure:"breaks"`
	Assignments bool `mapstructure:"assignments"`
	Goals       bool `mapstructure:"goals"`
}

// UserConfig holds personal preferences.
type UserConfig struct {
	Theme          string `mapstructure:"theme"`
	DefaultSubject string `mapstructure:"default_subject"`
	// WeekStartsOn is 0 for Sunday or 1 for Monday.
	WeekStartsOn int `mapstructure:"week_starts_on"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Console    bool   `mapstructure:"console"`
}

// GitConfig controls tagging sessions with the study workspace revision.
type GitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Workspace is the notes repository to inspect. Empty means the
	// directory studyx was started from.
	Workspace string `mapstructure:"workspace"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ThemeConfig holds the timer screen colors.
type ThemeConfig struct {
	ColorFocus         string `mapstructure:"color_focus"`
	ColorShortBreak    string `mapstructure:"color_short_break"`
	ColorLongBreak     string `mapstructure:"color_long_break"`
	ColorPaused        string `mapstructure:"color_paused"`
	ColorTitle         string `mapstructure:"color_title"`
	ColorSubject       string `mapstructure:"color_subject"`
	ColorHelp          string `mapstructure:"color_help"`
	FocusGradientStart string `mapstructure:"focus_gradient_start"`
	FocusGradientEnd   string `mapstructure:"focus_gradient_end"`
	BreakGradientStart string `mapstructure:"break_gradient_start"`
	BreakGradientEnd   string `mapstructure:"break_gradient_end"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorFocus:         "#3B82F6",
		ColorShortBreak:    "#10B981",
		ColorLongBreak:     "#8B5CF6",
		ColorPaused:        "#6B7280",
		ColorTitle:         "#6B7280",
		ColorSubject:       "#A0AEC0",
		ColorHelp:          "#95A5A6",
		FocusGradientStart: "#3B82F6",
		FocusGradientEnd:   "#60A5FA",
		BreakGradientStart: "#10B981",
		BreakGradientEnd:   "#34D399",
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	t := domain.DefaultTimerConfig()
	return &Config{
		Timer: TimerConfig{
			FocusMinutes:      t.FocusMinutes,
			ShortBreakMinutes: t.ShortBreakMinutes,
			LongBreakMinutes:  t.LongBreakMinutes,
			LongBreakInterval: t.LongBreakInterval,
		},
		Notifications: NotificationConfig{
			Enabled:     true,
			Sound:       true,
			Sessions:    true,
			Breaks:      true,
			Assignments: true,
			Goals:       true,
		},
		User: UserConfig{
			Theme:        "system",
			WeekStartsOn: 1,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir,
		},
		Log: LogConfig{
			Level:      string(logger.LevelInfo),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Git: GitConfig{
			Enabled: true,
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Theme: DefaultThemeConfig(),
	}
}

// Load loads the configuration from the default config file, creating it
// with defaults on first run.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath, creating it with
// defaults when missing.
func LoadFrom(configPath string) (*Config, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveTo(configPath, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	dataDir, err := ExpandHome(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return &cfg, nil
}

// Save saves the configuration to the default config file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveTo(configPath, cfg)
}

// SaveTo writes cfg to configPath as TOML.
func SaveTo(configPath string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := newViper(configPath)
	for key, value := range cfg.values() {
		v.Set(key, value)
	}

	return v.WriteConfigAs(configPath)
}

// Set updates one dotted key in the file at configPath. The value is parsed
// according to the key's type and the resulting config must stay valid.
func Set(configPath, key, value string) error {
	cfg, err := LoadFrom(configPath)
	if err != nil {
		return err
	}

	current, ok := cfg.values()[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(Keys(), ", "))
	}

	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	switch current.(type) {
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		v.Set(key, n)
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, err)
		}
		v.Set(key, b)
	default:
		v.Set(key, value)
	}

	var updated Config
	if err := v.Unmarshal(&updated); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	return v.WriteConfigAs(configPath)
}

// Keys lists every settable config key in sorted order.
func Keys() []string {
	values := DefaultConfig().values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the config flattened to dotted keys.
func (c *Config) Values() map[string]any {
	return c.values()
}

func (c *Config) values() map[string]any {
	return map[string]any{
		"timer.focus_minutes":             c.Timer.FocusMinutes,
		"timer.short_break_minutes":       c.Timer.ShortBreakMinutes,
		"timer.long_break_minutes":        c.Timer.LongBreakMinutes,
		"timer.long_break_interval":       c.Timer.LongBreakInterval,
		"timer.auto_start_breaks":         c.Timer.AutoStartBreaks,
		"timer.auto_start_pomodoros":      c.Timer.AutoStartPomodoros,
		"notifications.enabled":           c.Notifications.Enabled,
		"notifications.sound":             c.Notifications.Sound,
		"notifications.sessions":          c.Notifications.Sessions,
		"notifications.breaks":            c.Notifications.Breaks,
		"notifications.assignments":       c.Notifications.Assignments,
		"notifications.goals":             c.Notifications.Goals,
		"user.theme":                      c.User.Theme,
		"user.default_subject":            c.User.DefaultSubject,
		"user.week_starts_on":             c.User.WeekStartsOn,
		"storage.data_dir":                c.Storage.DataDir,
		"log.level":                       c.Log.Level,
		"log.file":                        c.Log.File,
		"log.max_size_mb":                 c.Log.MaxSizeMB,
		"log.max_backups":                 c.Log.MaxBackups,
		"log.max_age_days":                c.Log.MaxAgeDays,
		"log.console":                     c.Log.Console,
		"git.enabled":                     c.Git.Enabled,
		"git.workspace":                   c.Git.Workspace,
		"mcp.enabled":                     c.MCP.Enabled,
		"theme.color_focus":               c.Theme.ColorFocus,
		"theme.color_short_break":         c.Theme.ColorShortBreak,
		"theme.color_long_break":          c.Theme.ColorLongBreak,
		"theme.color_paused":              c.Theme.ColorPaused,
		"theme.color_title":               c.Theme.ColorTitle,
		"theme.color_subject":             c.Theme.ColorSubject,
		"theme.color_help":                c.Theme.ColorHelp,
		"theme.focus_gradient_start":      c.Theme.FocusGradientStart,
		"theme.focus_gradient_end":        c.Theme.FocusGradientEnd,
		"theme.break_gradient_start":      c.Theme.BreakGradientStart,
		"theme.break_gradient_end":        c.Theme.BreakGradientEnd,
	}
}

// Validate checks settings that would otherwise fail later.
func (c *Config) Validate() error {
	if err := c.ToTimerConfig().Validate(); err != nil {
		return err
	}
	if c.User.WeekStartsOn != 0 && c.User.WeekStartsOn != 1 {
		return fmt.Errorf("user.week_starts_on must be 0 (Sunday) or 1 (Monday), got %d", c.User.WeekStartsOn)
	}
	switch c.User.Theme {
	case "light", "dark", "system", "":
	default:
		return fmt.Errorf("user.theme must be light, dark or system, got %q", c.User.Theme)
	}
	if _, err := logger.ParseLevel(logger.Level(c.Log.Level)); err != nil {
		return err
	}
	return nil
}

// ToTimerConfig converts the timer section to the domain config.
func (c *Config) ToTimerConfig() domain.TimerConfig {
	return domain.TimerConfig{
		FocusMinutes:      c.Timer.FocusMinutes,
		ShortBreakMinutes: c.Timer.ShortBreakMinutes,
		LongBreakMinutes:  c.Timer.LongBreakMinutes,
		LongBreakInterval: c.Timer.LongBreakInterval,
	}
}

// WeekStart returns the configured first day of the week.
func (c *Config) WeekStart() time.Weekday {
	if c.User.WeekStartsOn == 0 {
		return time.Sunday
	}
	return time.Monday
}

// LoggerConfig converts the log section, defaulting the file into the data dir.
func (c *Config) LoggerConfig() logger.Config {
	lc := logger.DefaultConfig(c.Storage.DataDir)
	lc.Level = logger.Level(c.Log.Level)
	if c.Log.File != "" {
		lc.FilePath = c.Log.File
	}
	if c.Log.MaxSizeMB > 0 {
		lc.MaxSizeMB = c.Log.MaxSizeMB
	}
	if c.Log.MaxBackups > 0 {
		lc.MaxBackups = c.Log.MaxBackups
	}
	if c.Log.MaxAgeDays > 0 {
		lc.MaxAgeDays = c.Log.MaxAgeDays
	}
	lc.Console = c.Log.Console
	return lc
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".studyx", "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "studyx.db")
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	for key, value := range DefaultConfig().values() {
		v.SetDefault(key, value)
	}
	return v
}

// ExpandHome resolves a leading ~ in the data directory.
func ExpandHome(dir string) (string, error) {
	if dir == "" {
		dir = defaultDataDir
	}
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(dir, "~")), nil
}
