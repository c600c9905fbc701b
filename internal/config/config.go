// Package config loads diveboard configuration from defaults, TOML files,
// environment variables and command-line flag overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// StateDirName is the per-user and per-project state directory.
const StateDirName = ".diveboard"

const configFileName = "config.toml"

// Config is the merged configuration.
type Config struct {
	General GeneralConfig `toml:"general" mapstructure:"general" json:"general" yaml:"general"`
	Tester  TesterConfig  `toml:"tester" mapstructure:"tester" json:"tester" yaml:"tester"`
	History HistoryConfig `toml:"history" mapstructure:"history" json:"history" yaml:"history"`
	Image   ImageConfig   `toml:"image" mapstructure:"image" json:"image" yaml:"image"`
	Demo    DemoConfig    `toml:"demo" mapstructure:"demo" json:"demo" yaml:"demo"`
}

type GeneralConfig struct {
	LogLevel string `toml:"log_level" mapstructure:"log_level" json:"log_level" yaml:"log_level"`
	Output   string `toml:"output" mapstructure:"output" json:"output" yaml:"output"`
}

type TesterConfig struct {
	// Level is the tester's reporting threshold, independent of log_level.
	Level      string `toml:"level" mapstructure:"level" json:"level" yaml:"level"`
	ReportPath string `toml:"report_path" mapstructure:"report_path" json:"report_path" yaml:"report_path"`
}

type HistoryConfig struct {
	Enabled      bool   `toml:"enabled" mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	DatabasePath string `toml:"database_path" mapstructure:"database_path" json:"database_path" yaml:"database_path"`
	Limit        int    `toml:"limit" mapstructure:"limit" json:"limit" yaml:"limit"`
}

type ImageConfig struct {
	Color         bool `toml:"color" mapstructure:"color" json:"color" yaml:"color"`
	ShowTimeoutMs int  `toml:"show_timeout_ms" mapstructure:"show_timeout_ms" json:"show_timeout_ms" yaml:"show_timeout_ms"`
	ResizeWidth   int  `toml:"resize_width" mapstructure:"resize_width" json:"resize_width" yaml:"resize_width"`
	ResizeHeight  int  `toml:"resize_height" mapstructure:"resize_height" json:"resize_height" yaml:"resize_height"`
}

type DemoConfig struct {
	Dir  string `toml:"dir" mapstructure:"dir" json:"dir" yaml:"dir"`
	File string `toml:"file" mapstructure:"file" json:"file" yaml:"file"`
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// ProjectDir holds the project .diveboard directory. Empty means the
	// current working directory.
	ProjectDir string
	// ConfigPath replaces the project config file when set.
	ConfigPath string
	// FlagOverrides are applied last, keyed by dotted config key.
	FlagOverrides map[string]any
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			LogLevel: "info",
			Output:   "text",
		},
		Tester: TesterConfig{
			Level: "info",
		},
		History: HistoryConfig{
			Enabled: true,
			Limit:   20,
		},
		Image: ImageConfig{
			Color:        true,
			ResizeWidth:  64,
			ResizeHeight: 64,
		},
		Demo: DemoConfig{
			Dir:  "Demo",
			File: "temp.txt",
		},
	}
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"general.log_level":     "DIVEBOARD_LOG_LEVEL",
	"general.output":        "DIVEBOARD_OUTPUT",
	"tester.level":          "DIVEBOARD_TEST_LEVEL",
	"tester.report_path":    "DIVEBOARD_REPORT_PATH",
	"history.enabled":       "DIVEBOARD_HISTORY",
	"history.database_path": "DIVEBOARD_DB",
	"history.limit":         "DIVEBOARD_HISTORY_LIMIT",
	"image.color":           "DIVEBOARD_IMAGE_COLOR",
	"image.show_timeout_ms": "DIVEBOARD_SHOW_TIMEOUT_MS",
	"image.resize_width":    "DIVEBOARD_RESIZE_WIDTH",
	"image.resize_height":   "DIVEBOARD_RESIZE_HEIGHT",
	"demo.dir":              "DIVEBOARD_DEMO_DIR",
	"demo.file":             "DIVEBOARD_DEMO_FILE",
}

// Load merges defaults < user config < project config < env < flags and
// validates the result.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	userPath, projectPath := ConfigPaths(opts.ProjectDir, opts.ConfigPath)
	if err := mergeConfigFile(v, userPath); err != nil {
		return Config{}, err
	}
	if err := mergeConfigFile(v, projectPath); err != nil {
		return Config{}, err
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	for key, value := range opts.FlagOverrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("general.log_level", d.General.LogLevel)
	v.SetDefault("general.output", d.General.Output)
	v.SetDefault("tester.level", d.Tester.Level)
	v.SetDefault("tester.report_path", d.Tester.ReportPath)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.database_path", d.History.DatabasePath)
	v.SetDefault("history.limit", d.History.Limit)
	v.SetDefault("image.color", d.Image.Color)
	v.SetDefault("image.show_timeout_ms", d.Image.ShowTimeoutMs)
	v.SetDefault("image.resize_width", d.Image.ResizeWidth)
	v.SetDefault("image.resize_height", d.Image.ResizeHeight)
	v.SetDefault("demo.dir", d.Demo.Dir)
	v.SetDefault("demo.file", d.Demo.File)
}

// mergeConfigFile merges path into v. Empty or missing paths are skipped.
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	if err := v.MergeConfig(f); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

// ConfigPaths returns the user and project config file paths.
func ConfigPaths(projectDir, configPath string) (user, project string) {
	if home, err := os.UserHomeDir(); err == nil {
		user = filepath.Join(home, StateDirName, configFileName)
	}
	return user, projectConfigPath(projectDir, configPath)
}

func projectConfigPath(projectDir, configPath string) string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(projectDir, StateDirName, configFileName)
}

// DatabasePath resolves the history database location. A leading "~/" is
// expanded; an empty setting means ~/.diveboard/history.db.
func (c Config) DatabasePath() (string, error) {
	path := c.History.DatabasePath
	if path != "" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	if path == "" {
		return filepath.Join(home, StateDirName, "history.db"), nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

var (
	validLevels  = []string{"debug", "info", "warn", "warning", "error", "fatal"}
	validOutputs = []string{"text", "json", "yaml"}
)

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}

// Validate reports every invalid setting in one error.
func Validate(cfg Config) error {
	var problems []string
	if !oneOf(cfg.General.LogLevel, validLevels) {
		problems = append(problems, fmt.Sprintf("general.log_level %q is not one of %s", cfg.General.LogLevel, strings.Join(validLevels, ", ")))
	}
	if !oneOf(cfg.General.Output, validOutputs) {
		problems = append(problems, fmt.Sprintf("general.output %q is not one of %s", cfg.General.Output, strings.Join(validOutputs, ", ")))
	}
	if !oneOf(cfg.Tester.Level, validLevels) {
		problems = append(problems, fmt.Sprintf("tester.level %q is not one of %s", cfg.Tester.Level, strings.Join(validLevels, ", ")))
	}
	if cfg.History.Limit < 0 {
		problems = append(problems, "history.limit must be >= 0")
	}
	if cfg.Image.ShowTimeoutMs < 0 {
		problems = append(problems, "image.show_timeout_ms must be >= 0")
	}
	if cfg.Image.ResizeWidth <= 0 || cfg.Image.ResizeHeight <= 0 {
		problems = append(problems, "image.resize_width and image.resize_height must be > 0")
	}
	if cfg.Demo.File == "" {
		problems = append(problems, "demo.file must not be empty")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
}

// GetValue returns the value at a dotted key, or a whole section.
func GetValue(cfg Config, key string) (any, bool) {
	switch key {
	case "general":
		return cfg.General, true
	case "general.log_level":
		return cfg.General.LogLevel, true
	case "general.output":
		return cfg.General.Output, true

	case "tester":
		return cfg.Tester, true
	case "tester.level":
		return cfg.Tester.Level, true
	case "tester.report_path":
		return cfg.Tester.ReportPath, true

	case "history":
		return cfg.History, true
	case "history.enabled":
		return cfg.History.Enabled, true
	case "history.database_path":
		return cfg.History.DatabasePath, true
	case "history.limit":
		return cfg.History.Limit, true

	case "image":
		return cfg.Image, true
	case "image.color":
		return cfg.Image.Color, true
	case "image.show_timeout_ms":
		return cfg.Image.ShowTimeoutMs, true
	case "image.resize_width":
		return cfg.Image.ResizeWidth, true
	case "image.resize_height":
		return cfg.Image.ResizeHeight, true

	case "demo":
		return cfg.Demo, true
	case "demo.dir":
		return cfg.Demo.Dir, true
	case "demo.file":
		return cfg.Demo.File, true
	}
	return nil, false
}

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
)

var keyKinds = map[string]valueKind{
	"general.log_level":     kindString,
	"general.output":        kindString,
	"tester.level":          kindString,
	"tester.report_path":    kindString,
	"history.enabled":       kindBool,
	"history.database_path": kindString,
	"history.limit":         kindInt,
	"image.color":           kindBool,
	"image.show_timeout_ms": kindInt,
	"image.resize_width":    kindInt,
	"image.resize_height":   kindInt,
	"demo.dir":              kindString,
	"demo.file":             kindString,
}

// Keys lists every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseValue converts a command-line string into the type stored at key.
func ParseValue(key, raw string) (any, error) {
	kind, ok := keyKinds[key]
	if !ok {
		return nil, fmt.Errorf("unsupported config key %q", key)
	}
	return parseValueByKind(raw, kind)
}

// CheckValue validates value for key against the defaults, so a single
// setting can be rejected before it is written to any layer.
func CheckValue(key string, value any) error {
	if _, ok := keyKinds[key]; !ok {
		return fmt.Errorf("unsupported config key %q", key)
	}
	v := viper.New()
	setDefaults(v)
	v.Set(key, value)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return Validate(cfg)
}

func parseValueByKind(raw string, kind valueKind) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case kindString:
		return raw, nil
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse int %q: %w", raw, err)
		}
		return n, nil
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parse bool %q: %w", raw, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported value kind %d", kind)
	}
}

// WriteValue sets key to value in the TOML file at path, creating the file
// and any intermediate tables.
func WriteValue(path, key string, value any) error {
	if path == "" {
		return errors.New("config path is required")
	}
	segments := strings.Split(key, ".")
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("invalid config key %q", key)
		}
	}

	doc := map[string]any{}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &doc); err != nil {
			return fmt.Errorf("decode config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config %s: %w", path, err)
	}

	table := doc
	for _, seg := range segments[:len(segments)-1] {
		next, ok := table[seg]
		if !ok {
			child := map[string]any{}
			table[seg] = child
			table = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("config key %q: %s is not a table", key, seg)
		}
		table = child
	}
	table[segments[len(segments)-1]] = value

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(doc); err != nil {
		f.Close()
		return fmt.Errorf("encode config %s: %w", path, err)
	}
	return f.Close()
}
