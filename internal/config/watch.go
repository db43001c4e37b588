package config

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// AllowlistWatcher watches the collector's allowlist file for changes and
// invokes onChange with the reloaded line list. Used only by
// `xcprobe collect --watch-allowlist`; it never touches the rest of the
// configuration and never runs during analysis.
type AllowlistWatcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewAllowlistWatcher opens an fsnotify watch on path's containing
// directory (files replaced via rename, as most editors do, don't fire
// Write events on the original inode).
func NewAllowlistWatcher(path string) (*AllowlistWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create allowlist watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("config: watch %q: %w", dir, err)
	}
	return &AllowlistWatcher{path: path, watcher: w}, nil
}

// Watch blocks, debouncing events on path and invoking onChange with the
// newly read allowlist lines, until ctx is cancelled.
func (a *AllowlistWatcher) Watch(ctx context.Context, onChange func([]string)) error {
	const debounce = 100 * time.Millisecond
	var timer *time.Timer

	defer a.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-a.watcher.Events:
			if !ok {
				return fmt.Errorf("config: allowlist watcher events channel closed")
			}
			if event.Name != a.path {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				lines, err := ReadAllowlist(a.path)
				if err == nil {
					onChange(lines)
				}
			})
		case err, ok := <-a.watcher.Errors:
			if !ok {
				return fmt.Errorf("config: allowlist watcher errors channel closed")
			}
			_ = err // non-fatal: keep watching
		}
	}
}

// ReadAllowlist reads the allowlist file, one command name per line,
// skipping blank lines and lines starting with "#".
func ReadAllowlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
