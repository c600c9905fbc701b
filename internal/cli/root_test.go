package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/diveboard/internal/config"
	"github.com/Dicklesworthstone/diveboard/internal/db"
	"github.com/Dicklesworthstone/diveboard/internal/output"
	"github.com/Dicklesworthstone/diveboard/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs a cobra command with the given args and returns stdout, stderr, and error.
func executeCommand(root *cobra.Command, args ...string) (stdout string, stderr string, err error) {
	stdoutBuf := new(bytes.Buffer)
	stderrBuf := new(bytes.Buffer)

	root.SetOut(stdoutBuf)
	root.SetErr(stderrBuf)
	root.SetArgs(args)

	err = root.Execute()

	return stdoutBuf.String(), stderrBuf.String(), err
}

// resetFlags restores every package-level flag to its default.
func resetFlags() {
	flagConfig = ""
	flagOutput = ""
	flagJSON = false
	flagVerbose = false
	flagLogLevel = ""
	flagDB = ""
	flagProject = ""

	flagDemoDir = ""
	flagDemoReport = ""
	flagDemoImage = ""
	flagDemoShow = false
	flagDemoLevel = ""
	flagDemoNoHistory = false

	flagFileFields = ""
	flagFileFollowFor = 0

	flagImageGray = false
	flagImageWidth = 0
	flagImageHeight = 0
	flagImageOut = ""
	flagImageWait = -1
	flagImageTitle = ""

	flagTimeLabel = "Command"
	flagTimeExpect = 0
	flagTimeNoHistory = false

	flagHistoryLimit = -1
	flagConfigGlobal = false

	appConfig = config.DefaultConfig()
	runner = execRunner{}
}

// newTestRootCmd creates a fresh root command for testing (avoids state pollution).
// HOME is isolated and the project is a temp harness with its own history db.
func newTestRootCmd(t *testing.T, subs ...*cobra.Command) (*cobra.Command, *testutil.Harness) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	resetFlags()
	t.Cleanup(resetFlags)

	h := testutil.NewHarness(t)

	cmd := &cobra.Command{
		Use:               "diveboard",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: rootPreRun,
	}
	cmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path")
	cmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "output format")
	cmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "shorthand for --output=json")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level")
	cmd.PersistentFlags().StringVar(&flagDB, "db", "", "history database path")
	cmd.PersistentFlags().StringVarP(&flagProject, "project", "C", h.ProjectDir, "project directory")

	for _, sub := range subs {
		cmd.AddCommand(sub)
	}
	return cmd, h
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"help flag short", []string{"-h"}},
		{"config flag", []string{"--config", "/tmp/test.toml", "--help"}},
		{"output flag yaml", []string{"--output", "yaml", "--help"}},
		{"json shorthand", []string{"-j", "--help"}},
		{"verbose flag", []string{"-v", "--help"}},
		{"log level", []string{"--log-level", "warn", "--help"}},
		{"db flag", []string{"--db", "/tmp/test.db", "--help"}},
		{"project flag", []string{"-C", "/tmp/project", "--help"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := newTestRootCmd(t, versionCmd)
			_, _, err := executeCommand(cmd, tt.args...)
			assert.NoError(t, err)
		})
	}
}

func TestFlagOverrides(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)
	assert.Empty(t, flagOverrides())

	flagLogLevel = "warn"
	flagOutput = "yaml"
	flagDB = "/tmp/h.db"
	assert.Equal(t, map[string]any{
		"general.log_level":     "warn",
		"general.output":        "yaml",
		"history.database_path": "/tmp/h.db",
	}, flagOverrides())

	flagVerbose = true
	flagJSON = true
	got := flagOverrides()
	assert.Equal(t, "debug", got["general.log_level"])
	assert.Equal(t, "json", got["general.output"])
}

func TestRootPreRun_InvalidOutputRejected(t *testing.T) {
	cmd, _ := newTestRootCmd(t, versionCmd)
	_, _, err := executeCommand(cmd, "version", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestExecuteRoot_ReportsErrorInOutputFormat(t *testing.T) {
	run := func(args ...string) (string, string, error) {
		cmd, _ := newTestRootCmd(t, historyCmd)
		var stdout, stderr bytes.Buffer
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)
		cmd.SetArgs(args)
		err := executeRoot(cmd)
		return stdout.String(), stderr.String(), err
	}

	stdout, stderr, err := run("history", "show", "missing", "-j")
	require.Error(t, err)
	assert.Empty(t, stdout)
	var payload output.ErrorPayload
	require.NoError(t, json.Unmarshal([]byte(stderr), &payload))
	assert.Equal(t, "error", payload.Error)
	assert.Contains(t, payload.Message, db.ErrRunNotFound.Error())

	_, stderr, err = run("history", "show", "missing", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, stderr, "error: error\n")
	assert.Contains(t, stderr, "message: ")

	_, stderr, err = run("history", "show", "missing")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(stderr, "✗ "), stderr)
}

func TestVersionCommand_TextOutput(t *testing.T) {
	cmd, _ := newTestRootCmd(t, versionCmd)
	stdout, _, err := executeCommand(cmd, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "diveboard dev")
	assert.Contains(t, stdout, "db:")
}

func TestVersionCommand_JSONOutput(t *testing.T) {
	cmd, h := newTestRootCmd(t, versionCmd)
	stdout, _, err := executeCommand(cmd, "version", "-j")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "dev", got["version"])
	assert.Equal(t, h.DBPath, got["db_path"])
	assert.True(t, strings.HasPrefix(got["go_version"].(string), "go"))
}

func TestGetDB_Precedence(t *testing.T) {
	_, h := newTestRootCmd(t)

	flagProject = h.ProjectDir
	got, err := GetDB()
	require.NoError(t, err)
	assert.Equal(t, h.DBPath, got, "project state dir")

	appConfig.History.DatabasePath = "/cfg/h.db"
	got, err = GetDB()
	require.NoError(t, err)
	assert.Equal(t, "/cfg/h.db", got, "config beats project")

	flagDB = "/flag/h.db"
	got, err = GetDB()
	require.NoError(t, err)
	assert.Equal(t, "/flag/h.db", got, "flag beats config")
}

func TestGetOutput(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	assert.Equal(t, "text", GetOutput())
	appConfig.General.Output = "yaml"
	assert.Equal(t, "yaml", GetOutput())
	flagOutput = "text"
	assert.Equal(t, "text", GetOutput())
	flagJSON = true
	assert.Equal(t, "json", GetOutput())
}
