package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockExecutor_RecordsCalls(t *testing.T) {
	mock := NewMockExecutor([]byte("output"), nil)

	_, _ = mock.Run("ls", "-la", "/tmp")
	_, _ = mock.Run("echo", "hello")

	require.Equal(t, 2, mock.CallCount())
	assert.Equal(t, "ls", mock.RecordedCalls[0].Name)
	assert.Equal(t, []string{"-la", "/tmp"}, mock.RecordedCalls[0].Args)
	assert.True(t, mock.WasCalledWith("echo", "hello"))
	assert.False(t, mock.WasCalledWith("echo"))

	last := mock.LastCall()
	require.NotNil(t, last)
	assert.Equal(t, "echo", last.Name)
}

func TestMockExecutor_ReturnsConfiguredOutput(t *testing.T) {
	wantErr := errors.New("boom")
	mock := NewMockExecutor([]byte("mock output"), wantErr)

	out, err := mock.Run("any")
	assert.Equal(t, "mock output", string(out))
	assert.ErrorIs(t, err, wantErr)
}

func TestMockExecutor_OutputFunc(t *testing.T) {
	mock := NewMockExecutorFunc(func(name string, args []string) ([]byte, error) {
		return []byte(name + ":" + args[0]), nil
	})

	out, err := mock.Run("go", "build")
	require.NoError(t, err)
	assert.Equal(t, "go:build", string(out))
}

func TestMockExecutor_LastCallEmpty(t *testing.T) {
	assert.Nil(t, NewMockExecutor(nil, nil).LastCall())
}

func TestCommandSequenceMock(t *testing.T) {
	mock := NewCommandSequenceMock(
		SequenceStep{Output: []byte("first")},
		SequenceStep{Error: errors.New("second failed")},
	)

	out, err := mock.Run("x")
	require.NoError(t, err)
	assert.Equal(t, "first", string(out))

	_, err = mock.Run("x")
	assert.EqualError(t, err, "second failed")

	_, err = mock.Run("x")
	assert.ErrorContains(t, err, "exhausted")
}

func TestHarness_WriteFileAndRun(t *testing.T) {
	h := NewHarness(t)
	path := h.WriteFile("nested/a.txt", []byte("a"), 0o644)
	assert.Equal(t, h.MustPath("nested", "a.txt"), path)

	run := MakeRun(t, h.DB, RunWithName("smoke"))
	got, err := h.DB.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "smoke", got.Name)
}

func TestRequireLines(t *testing.T) {
	RequireLines(t, "a\nb\n", []string{"a", "b"}, "lines")
	RequireLines(t, "", nil, "empty")
}
