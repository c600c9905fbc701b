package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCommands_Lifecycle(t *testing.T) {
	cmd, _ := newTestRootCmd(t, fileCmd)
	path := filepath.Join(t.TempDir(), "notes.txt")

	_, stderr, err := executeCommand(cmd, "file", "create", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "created "+path)

	_, _, err = executeCommand(cmd, "file", "create", path)
	assert.Error(t, err, "create is exclusive")

	_, _, err = executeCommand(cmd, "file", "write", path, `a,b\n`)
	require.NoError(t, err)
	_, _, err = executeCommand(cmd, "file", "append", path, `c,d\nlast`)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\nc,d\nlast", string(data))

	stdout, _, err := executeCommand(cmd, "file", "read", path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\nc,d\nlast\n", stdout)

	stdout, _, err = executeCommand(cmd, "file", "read", path, "--fields", ",")
	require.NoError(t, err)
	assert.Equal(t, "a\tb\nc\td\nlast\n", stdout)

	stdout, _, err = executeCommand(cmd, "file", "exists", path)
	require.NoError(t, err)
	assert.Equal(t, "true\n", stdout)

	_, _, err = executeCommand(cmd, "file", "erase", path)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, _, err = executeCommand(cmd, "file", "delete", path)
	require.NoError(t, err)
	assert.NoFileExists(t, path)

	stdout, _, err = executeCommand(cmd, "file", "exists", path)
	require.NoError(t, err)
	assert.Equal(t, "false\n", stdout)
}

func TestFileCommands_DeleteMissingWarns(t *testing.T) {
	cmd, _ := newTestRootCmd(t, fileCmd)
	path := filepath.Join(t.TempDir(), "missing.txt")

	_, stderr, err := executeCommand(cmd, "file", "delete", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "does not exist")
}

func TestFileCommands_JSON(t *testing.T) {
	cmd, _ := newTestRootCmd(t, fileCmd)
	path := filepath.Join(t.TempDir(), "f.txt")

	stdout, _, err := executeCommand(cmd, "file", "create", path, "-j")
	require.NoError(t, err)
	var view fileView
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.Equal(t, fileView{Path: path, Action: "created", Exists: true}, view)

	require.NoError(t, os.WriteFile(path, []byte("x;y\nz\n"), 0o644))
	stdout, _, err = executeCommand(cmd, "file", "read", path, "-j")
	require.NoError(t, err)
	var lines []string
	require.NoError(t, json.Unmarshal([]byte(stdout), &lines))
	assert.Equal(t, []string{"x;y", "z"}, lines)

	stdout, _, err = executeCommand(cmd, "file", "read", path, "--fields", ";", "-j")
	require.NoError(t, err)
	var rows [][]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	assert.Equal(t, [][]string{{"x", "y"}, {"z"}}, rows)
}

func TestFileCommands_ReadMissing(t *testing.T) {
	cmd, _ := newTestRootCmd(t, fileCmd)
	_, _, err := executeCommand(cmd, "file", "read", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestFileFollow_StopsAfterDuration(t *testing.T) {
	cmd, _ := newTestRootCmd(t, fileCmd)
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("old line\n"), 0o644))

	stdout, _, err := executeCommand(cmd, "file", "follow", path, "--for", "50ms")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "old line")
}

func TestFileFollow_YAMLStream(t *testing.T) {
	cmd, _ := newTestRootCmd(t, fileCmd)
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	stop := make(chan struct{})
	appended := make(chan struct{})
	go func() {
		defer close(appended)
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return
				}
				_, _ = f.WriteString("hello\n")
				_ = f.Close()
			}
		}
	}()

	stdout, _, err := executeCommand(cmd, "file", "follow", path, "--for", "800ms", "-o", "yaml")
	close(stop)
	<-appended
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "---\n"), stdout)
	assert.Contains(t, stdout, "line: hello\n")
	assert.Contains(t, stdout, "path: "+path)
}

func TestFileFollow_MissingFile(t *testing.T) {
	cmd, _ := newTestRootCmd(t, fileCmd)
	_, _, err := executeCommand(cmd, "file", "follow", filepath.Join(t.TempDir(), "missing.txt"), "--for", "10ms")
	assert.Error(t, err)
}

func TestUnescapeContent(t *testing.T) {
	assert.Equal(t, "a\nb\tc", unescapeContent(`a\nb\tc`))
	assert.Equal(t, "plain", unescapeContent("plain"))
}
