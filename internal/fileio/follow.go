package fileio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
)

// Follow calls fn with every complete line appended to the file after Follow
// starts, until ctx is done or the file is removed. A file that shrinks is
// read again from the beginning. An error from fn stops following and is returned.
func (h *Handle) Follow(ctx context.Context, fn func(line string) error) error {
	f, err := os.Open(h.path)
	if err != nil {
		return fmt.Errorf("follow %s: %w", h.path, err)
	}
	defer f.Close()

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("follow %s: %w", h.path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new fsnotify watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(h.path); err != nil {
		return fmt.Errorf("watch %s: %w", h.path, err)
	}

	reader := bufio.NewReader(f)
	var partial string

	drain := func() error {
		if info, err := os.Stat(h.path); err == nil && info.Size() < offset {
			h.logger.Debug("file truncated, rewinding", "path", h.path)
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("rewind %s: %w", h.path, err)
			}
			reader.Reset(f)
			offset = 0
			partial = ""
		}
		for {
			line, err := reader.ReadString('\n')
			offset += int64(len(line))
			if err != nil {
				if errors.Is(err, io.EOF) {
					partial += line
					return nil
				}
				return fmt.Errorf("read %s: %w", h.path, err)
			}
			if err := fn(partial + line); err != nil {
				return err
			}
			partial = ""
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			switch {
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				h.logger.Warn("followed file went away", "path", h.path)
				return nil
			case ev.Has(fsnotify.Write):
				if err := drain(); err != nil {
					return err
				}
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", h.path, err)
		}
	}
}
