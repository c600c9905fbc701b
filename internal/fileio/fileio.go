// Package fileio wraps create/read/write/append/erase/delete operations on a
// single named file, with an explicit reader lifecycle.
package fileio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Dicklesworthstone/diveboard/internal/utils"
	"github.com/charmbracelet/log"
)

// ErrReaderNotOpen is returned by read operations before OpenReader.
var ErrReaderNotOpen = errors.New("reader not open")

const filePerm = 0o644

// Handle operates on one file path. It is not safe for concurrent use.
type Handle struct {
	path   string
	logger *log.Logger

	file   *os.File
	reader *bufio.Reader
}

// Option configures a Handle.
type Option func(*Handle)

// WithLogger sets the logger used for notices.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handle) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New returns a Handle for path. Nothing is opened.
func New(path string, opts ...Option) *Handle {
	h := &Handle{path: path}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = utils.WithPrefix("file")
	}
	return h
}

// Path returns the file path.
func (h *Handle) Path() string {
	return h.path
}

// Create creates a new empty file. It fails if the file already exists.
func (h *Handle) Create() error {
	f, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", h.path, err)
	}
	return f.Close()
}

// OpenReader opens the file for sequential reading. An already open reader
// is replaced; its descriptor is closed.
func (h *Handle) OpenReader() error {
	f, err := os.Open(h.path)
	if err != nil {
		return fmt.Errorf("open reader %s: %w", h.path, err)
	}
	if h.file != nil {
		_ = h.file.Close()
	}
	h.file = f
	h.reader = bufio.NewReader(f)
	return nil
}

// ReadLine returns the next line including its trailing newline, if any.
// A "\r\n" ending is returned as "\n". At end of file it returns "" and a
// nil error.
func (h *Handle) ReadLine() (string, error) {
	if h.reader == nil {
		return "", fmt.Errorf("read %s: %w", h.path, ErrReaderNotOpen)
	}
	line, err := h.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return line, fmt.Errorf("read %s: %w", h.path, err)
	}
	if strings.HasSuffix(line, "\r\n") {
		line = strings.TrimSuffix(line, "\r\n") + "\n"
	}
	return line, nil
}

// ReadFields reads the next line and splits it on delim. The trailing
// newline stays on the last field. At end of file it returns an empty slice.
func (h *Handle) ReadFields(delim string) ([]string, error) {
	line, err := h.ReadLine()
	if err != nil {
		return nil, err
	}
	if line == "" {
		return []string{}, nil
	}
	return strings.Split(line, delim), nil
}

// CloseReader closes the open reader. Closing without one is a no-op.
func (h *Handle) CloseReader() error {
	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	h.reader = nil
	if err != nil {
		return fmt.Errorf("close reader %s: %w", h.path, err)
	}
	return nil
}

// ReadAll returns the whole file content.
func (h *Handle) ReadAll() (string, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", h.path, err)
	}
	return string(data), nil
}

// WriteToFile replaces the file content with content, creating the file if needed.
func (h *Handle) WriteToFile(content string) error {
	if err := os.WriteFile(h.path, []byte(content), filePerm); err != nil {
		return fmt.Errorf("write %s: %w", h.path, err)
	}
	return nil
}

// AppendToFile appends content, creating the file if needed.
func (h *Handle) AppendToFile(content string) error {
	f, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, filePerm)
	if err != nil {
		return fmt.Errorf("append %s: %w", h.path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("append %s: %w", h.path, err)
	}
	return f.Close()
}

// EraseContent truncates the file to zero length without removing it.
func (h *Handle) EraseContent() error {
	if err := os.Truncate(h.path, 0); err != nil {
		return fmt.Errorf("erase %s: %w", h.path, err)
	}
	return nil
}

// Exists reports whether the path currently refers to something on disk.
func (h *Handle) Exists() bool {
	_, err := os.Stat(h.path)
	return err == nil
}

// Delete removes the file. A missing file is logged and is not an error.
func (h *Handle) Delete() error {
	if !h.Exists() {
		h.logger.Warn("delete skipped: the file does not exist", "path", h.path)
		return nil
	}
	if err := os.Remove(h.path); err != nil {
		return fmt.Errorf("delete %s: %w", h.path, err)
	}
	return nil
}
