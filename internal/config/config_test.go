package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Validate(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestValidate_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.LogLevel = "loud"
	cfg.General.Output = "xml"
	cfg.Tester.Level = "bad"
	cfg.History.Limit = -1
	cfg.Image.ShowTimeoutMs = -1
	cfg.Image.ResizeWidth = 0
	cfg.Demo.File = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
	for _, key := range []string{"general.log_level", "general.output", "tester.level", "history.limit", "image.show_timeout_ms", "image.resize_width", "demo.file"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestValidate_LevelsCaseInsensitive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.LogLevel = "WARNING"
	cfg.Tester.Level = "Debug"
	assert.NoError(t, Validate(cfg))
}

func TestLoad_Precedence_DefaultsUserProjectEnvFlags(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	project := t.TempDir()

	userPath := filepath.Join(home, ".diveboard", "config.toml")
	require.NoError(t, WriteValue(userPath, "history.limit", 3))
	require.NoError(t, WriteValue(userPath, "tester.level", "warn"))
	require.NoError(t, WriteValue(userPath, "demo.dir", "from-user"))

	projectPath := filepath.Join(project, ".diveboard", "config.toml")
	require.NoError(t, WriteValue(projectPath, "history.limit", 4))
	require.NoError(t, WriteValue(projectPath, "tester.level", "error"))

	t.Setenv("DIVEBOARD_HISTORY_LIMIT", "5")

	cfg, err := Load(LoadOptions{
		ProjectDir:    project,
		FlagOverrides: map[string]any{"history.limit": 6},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.History.Limit)
	assert.Equal(t, "error", cfg.Tester.Level)
	assert.Equal(t, "from-user", cfg.Demo.Dir)
	assert.Equal(t, "text", cfg.General.Output)
}

func TestLoad_EnvBeatsFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	require.NoError(t, WriteValue(filepath.Join(project, ".diveboard", "config.toml"), "image.color", true))

	t.Setenv("DIVEBOARD_IMAGE_COLOR", "false")
	t.Setenv("DIVEBOARD_LOG_LEVEL", "debug")

	cfg, err := Load(LoadOptions{ProjectDir: project})
	require.NoError(t, err)
	assert.False(t, cfg.Image.Color)
	assert.Equal(t, "debug", cfg.General.LogLevel)
}

func TestLoad_ConfigPathOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	custom := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, WriteValue(custom, "general.output", "yaml"))

	cfg, err := Load(LoadOptions{ProjectDir: t.TempDir(), ConfigPath: custom})
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.General.Output)
}

func TestLoad_InvalidEnvValueErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DIVEBOARD_HISTORY_LIMIT", "not-an-int")
	_, err := Load(LoadOptions{ProjectDir: t.TempDir()})
	assert.Error(t, err)
}

func TestLoad_InvalidValueFailsValidation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Load(LoadOptions{
		ProjectDir:    t.TempDir(),
		FlagOverrides: map[string]any{"general.output": "xml"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoad_ProjectDirEmptyUsesCWD(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	t.Chdir(project)

	require.NoError(t, WriteValue(filepath.Join(project, ".diveboard", "config.toml"), "history.limit", 9))

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.History.Limit)
}

func TestMergeConfigFile(t *testing.T) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	assert.NoError(t, mergeConfigFile(v, ""), "empty path is a no-op")
	assert.NoError(t, mergeConfigFile(v, filepath.Join(t.TempDir(), "missing.toml")), "missing file is a no-op")
	assert.Error(t, mergeConfigFile(v, t.TempDir()), "directory path")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("general = [\n"), 0o644))
	assert.Error(t, mergeConfigFile(v, path), "invalid toml")

	good := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(good, []byte("[history]\nlimit = 11\n"), 0o644))
	require.NoError(t, mergeConfigFile(v, good))
	assert.Equal(t, 11, v.GetInt("history.limit"))
	assert.Equal(t, "info", v.GetString("general.log_level"))
}

func TestConfigPathsAndProjectConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	u, p := ConfigPaths("/proj", "")
	assert.Equal(t, filepath.Join(home, ".diveboard", "config.toml"), u)
	assert.Equal(t, filepath.Join("/proj", ".diveboard", "config.toml"), p)

	assert.Equal(t, ".diveboard/config.toml", projectConfigPath("", ""))
	assert.Equal(t, "/override.toml", projectConfigPath("/proj", "/override.toml"))
}

func TestDatabasePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	got, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".diveboard", "history.db"), got)

	cfg.History.DatabasePath = "~/runs/h.db"
	got, err = cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "runs", "h.db"), got)

	cfg.History.DatabasePath = "/abs/h.db"
	got, err = cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "/abs/h.db", got)
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("history.limit", "7")
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = ParseValue("image.color", "false")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = ParseValue("tester.report_path", " /tmp/report.txt ")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/report.txt", v)

	_, err = ParseValue("history.limit", "many")
	assert.Error(t, err)
	_, err = ParseValue("image.color", "maybe")
	assert.Error(t, err)

	_, err = parseValueByKind("x", valueKind(123))
	assert.Error(t, err)

	_, err = ParseValue("nope.nope", "x")
	assert.Error(t, err)
}

func TestCheckValue(t *testing.T) {
	assert.NoError(t, CheckValue("general.output", "yaml"))
	assert.NoError(t, CheckValue("history.limit", 0))
	assert.NoError(t, CheckValue("image.color", false))

	assert.ErrorContains(t, CheckValue("general.output", "xml"), `general.output "xml"`)
	assert.ErrorContains(t, CheckValue("history.limit", -1), "history.limit must be >= 0")
	assert.ErrorContains(t, CheckValue("image.resize_width", 0), "image.resize_width")
	assert.ErrorContains(t, CheckValue("demo.file", ""), "demo.file must not be empty")
	assert.ErrorContains(t, CheckValue("nope.nope", "x"), "unsupported config key")
}

func TestKeysHaveGetters(t *testing.T) {
	cfg := DefaultConfig()
	keys := Keys()
	require.NotEmpty(t, keys)
	assert.IsIncreasing(t, keys)
	for _, key := range keys {
		_, ok := GetValue(cfg, key)
		assert.True(t, ok, "GetValue(%q)", key)
	}
}

func TestGetValue(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		key  string
		want any
	}{
		{"general.log_level", "info"},
		{"general.output", "text"},
		{"tester.level", "info"},
		{"tester.report_path", ""},
		{"history.enabled", true},
		{"history.limit", 20},
		{"image.color", true},
		{"image.resize_width", 64},
		{"demo.dir", "Demo"},
		{"demo.file", "temp.txt"},
		{"general", cfg.General},
		{"tester", cfg.Tester},
		{"history", cfg.History},
		{"image", cfg.Image},
		{"demo", cfg.Demo},
	}
	for _, tc := range cases {
		got, ok := GetValue(cfg, tc.key)
		require.True(t, ok, "GetValue(%q) not found", tc.key)
		assert.Equal(t, tc.want, got, "GetValue(%q)", tc.key)
	}

	for _, key := range []string{"", "nope", "general.nope", "history.nope", "image.nope.deeper"} {
		_, ok := GetValue(cfg, key)
		assert.False(t, ok, "expected %q to be not found", key)
	}
}

func TestWriteValue(t *testing.T) {
	assert.Error(t, WriteValue("", "history.limit", 2), "empty path")

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, WriteValue(path, "history.limit", 3))
	require.NoError(t, WriteValue(path, "general.output", "json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[history]")
	assert.Contains(t, string(data), "limit = 3")
	assert.Contains(t, string(data), `output = "json"`)

	assert.Error(t, WriteValue(path, "history..limit", 1), "empty segment")

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("history = \"oops\"\n"), 0o644))
	assert.Error(t, WriteValue(bad, "history.limit", 2), "history is not a table")
}

func TestWriteValue_DecodeExistingInvalidTOMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("general = [\n"), 0o644))

	err := WriteValue(path, "history.limit", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}
