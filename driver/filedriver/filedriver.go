// Package filedriver provides a filesystem-backed session driver: one
// file per session id under a base directory, written atomically.
package filedriver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ggoodman/http-sessions-go/driver"
)

var _ driver.Driver = (*Driver)(nil)

const fileExt = ".sess"

// Config controls the file driver.
type Config struct {
	// Dir is the directory session files live in. It is created if
	// missing.
	Dir string

	// TTL is the lifetime of a session measured from its last write.
	// Zero disables expiry.
	TTL time.Duration

	// Logger receives watcher diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Driver is a filesystem-backed driver.Driver implementation. It keeps an
// index of session ids and their last-write times, maintained by an
// fsnotify watcher so that List and Sweep do not rescan the directory on
// every call even when other processes touch the files.
type Driver struct {
	dir string
	ttl time.Duration
	log *slog.Logger

	mu    sync.Mutex
	index map[string]time.Time

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New creates a file driver rooted at cfg.Dir.
func New(cfg Config) (*Driver, error) {
	if cfg.Dir == "" {
		return nil, errors.New("filedriver: directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	d := &Driver{
		dir:   cfg.Dir,
		ttl:   cfg.TTL,
		log:   log,
		index: make(map[string]time.Time),
		done:  make(chan struct{}),
	}
	if err := d.rebuildIndex(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		// The driver still works without a watcher; the index degrades to
		// the state captured at startup plus this process's own writes.
		log.Debug("fsnotify unavailable", slog.String("err", err.Error()))
	} else if err := w.Add(cfg.Dir); err != nil {
		log.Debug("fsnotify add dir failed", slog.String("err", err.Error()))
		_ = w.Close()
	} else {
		d.watcher = w
		go d.watch()
	}
	return d, nil
}

// Close stops the directory watcher.
func (d *Driver) Close() error {
	select {
	case <-d.done:
	default:
		close(d.done)
	}
	if d.watcher != nil {
		return d.watcher.Close()
	}
	return nil
}

func (d *Driver) path(sessionID string) (string, error) {
	if !validID(sessionID) {
		return "", fmt.Errorf("filedriver: invalid session id %q", sessionID)
	}
	return filepath.Join(d.dir, sessionID+fileExt), nil
}

func (d *Driver) Load(ctx context.Context, sessionID string) (string, bool, error) {
	p, err := d.path(sessionID)
	if err != nil {
		return "", false, err
	}

	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat session %s: %w", sessionID, err)
	}
	if d.expired(fi.ModTime()) {
		_ = os.Remove(p)
		d.forgetIndexed(sessionID)
		return "", false, nil
	}

	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	return string(b), true, nil
}

func (d *Driver) Save(ctx context.Context, sessionID string, payload string) error {
	p, err := d.path(sessionID)
	if err != nil {
		return err
	}

	// Write-then-rename keeps concurrent readers off half-written files.
	tmp, err := os.CreateTemp(d.dir, sessionID+".tmp-*")
	if err != nil {
		return fmt.Errorf("write session %s: %w", sessionID, err)
	}
	if _, err := tmp.WriteString(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write session %s: %w", sessionID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write session %s: %w", sessionID, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write session %s: %w", sessionID, err)
	}

	d.mu.Lock()
	d.index[sessionID] = time.Now()
	d.mu.Unlock()
	return nil
}

func (d *Driver) Remove(ctx context.Context, sessionID string) error {
	p, err := d.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session %s: %w", sessionID, err)
	}
	d.forgetIndexed(sessionID)
	return nil
}

// List returns the known session ids, freshest first not guaranteed.
func (d *Driver) List(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.index))
	for id := range d.index {
		ids = append(ids, id)
	}
	return ids, nil
}

// Sweep removes sessions whose last write is older than the TTL and
// reports how many were removed. A no-op when no TTL is configured.
func (d *Driver) Sweep(ctx context.Context) (int, error) {
	if d.ttl <= 0 {
		return 0, nil
	}

	d.mu.Lock()
	var stale []string
	for id, mtime := range d.index {
		if d.expired(mtime) {
			stale = append(stale, id)
		}
	}
	d.mu.Unlock()

	removed := 0
	for _, id := range stale {
		if err := d.Remove(ctx, id); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (d *Driver) expired(mtime time.Time) bool {
	return d.ttl > 0 && time.Since(mtime) > d.ttl
}

func (d *Driver) forgetIndexed(sessionID string) {
	d.mu.Lock()
	delete(d.index, sessionID)
	d.mu.Unlock()
}

func (d *Driver) rebuildIndex() error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return fmt.Errorf("scan session dir: %w", err)
	}
	for _, e := range entries {
		id, ok := idFromName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		d.index[id] = info.ModTime()
	}
	return nil
}

func (d *Driver) watch() {
	for {
		select {
		case <-d.done:
			return
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			id, isSess := idFromName(filepath.Base(ev.Name))
			if !isSess {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Chmod|fsnotify.Rename) != 0:
				if fi, err := os.Stat(ev.Name); err == nil {
					d.mu.Lock()
					d.index[id] = fi.ModTime()
					d.mu.Unlock()
				} else {
					// Renamed away or already gone.
					d.forgetIndexed(id)
				}
			case ev.Op&fsnotify.Remove != 0:
				d.forgetIndexed(id)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.log.Debug("fsnotify error", slog.String("err", err.Error()))
		}
	}
}

func idFromName(name string) (string, bool) {
	id, found := strings.CutSuffix(name, fileExt)
	if !found || id == "" {
		return "", false
	}
	return id, true
}

func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
