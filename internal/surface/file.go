package surface

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/grapher/internal/equation"
)

// DefaultDebounce coalesces the burst of events editors emit for one save.
const DefaultDebounce = 100 * time.Millisecond

// File publishes the contents of a text file on start and on every save.
type File struct {
	path     string
	debounce time.Duration
	channel  *equation.Channel
	log      *zap.Logger
}

// NewFile creates a watched-file surface.
func NewFile(path string, debounce time.Duration, ch *equation.Channel, log *zap.Logger) *File {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &File{path: path, debounce: debounce, channel: ch, log: log}
}

// Run watches the file until ctx is cancelled.
func (f *File) Run(ctx context.Context) error {
	abs, err := filepath.Abs(f.path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", f.path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file on save.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	if err := f.publish(abs); err != nil {
		return err
	}
	f.log.Info("watching equation file", zap.String("path", abs))

	timer := time.NewTimer(f.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != abs {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				timer.Reset(f.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			if err := f.publish(abs); err != nil {
				f.log.Warn("reload failed", zap.Error(err))
			}
		}
	}
}

func (f *File) publish(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	snap := f.channel.Publish(equation.SplitLines(string(data)))
	f.log.Debug("equations published",
		zap.String("path", path),
		zap.Uint64("seq", snap.Seq),
		zap.Int("lines", len(snap.Lines)),
	)
	return nil
}
