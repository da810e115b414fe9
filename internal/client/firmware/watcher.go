package firmware

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/iotadmin/internal/filex"
	"github.com/dmitrijs2005/iotadmin/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a dropped file must stay unchanged before it is
// handed to the intake.
const DefaultSettle = 500 * time.Millisecond

// DropWatcher turns files appearing in a directory into drop-zone events:
// a new file starts a drag, writes keep it going, removal cancels it, and
// once the file has been quiet for the settle interval it is dropped.
type DropWatcher struct {
	dir    string
	settle time.Duration
	intake *Intake
	logger logging.Logger
	onDrop func(a *Artifact, err error)
}

func NewDropWatcher(dir string, settle time.Duration, intake *Intake, logger logging.Logger) *DropWatcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &DropWatcher{dir: dir, settle: settle, intake: intake, logger: logger}
}

// OnDrop registers fn to be told about every completed drop and its
// validation outcome.
func (w *DropWatcher) OnDrop(fn func(a *Artifact, err error)) {
	w.onDrop = fn
}

func (w *DropWatcher) Dir() string {
	return w.dir
}

// Run watches the directory until ctx is done.
func (w *DropWatcher) Run(ctx context.Context) error {
	dir, err := filex.EnsureSubdDir(w.dir)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("drop watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("drop watcher: watch %s: %w", dir, err)
	}
	w.logger.Info(ctx, "watching drop directory", "dir", dir)

	var (
		pending string
		timer   *time.Timer
		settled <-chan time.Time
	)
	arm := func() {
		if timer == nil {
			timer = time.NewTimer(w.settle)
			settled = timer.C
			return
		}
		timer.Stop()
		timer.Reset(w.settle)
	}
	disarm := func() {
		if timer != nil {
			timer.Stop()
		}
	}
	defer disarm()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "drop watcher error", "error", err)

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignored(ev.Name) {
				continue
			}

			switch {
			case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
				if ev.Name == pending {
					pending = ""
					disarm()
					w.intake.DragLeave()
				}

			case ev.Has(fsnotify.Create):
				pending = ev.Name
				w.intake.DragEnter()
				arm()

			case ev.Has(fsnotify.Write):
				if pending == "" {
					pending = ev.Name
					w.intake.DragEnter()
				}
				if ev.Name == pending {
					w.intake.DragOver()
					arm()
				}
			}

		case <-settled:
			if pending == "" {
				continue
			}
			name := pending
			pending = ""
			w.drop(ctx, name)
		}
	}
}

func (w *DropWatcher) drop(ctx context.Context, name string) {
	a, err := ArtifactFromFile(name, SourceDrop)
	if err != nil {
		w.intake.DragLeave()
		if !errors.Is(err, ErrNotAFile) {
			w.logger.Warn(ctx, "dropped file vanished", "file", name, "error", err)
		}
		return
	}

	err = w.intake.Drop(a)
	if err != nil {
		w.logger.Warn(ctx, "dropped file rejected", "file", a.Name, "error", err)
	} else {
		w.logger.Info(ctx, "firmware dropped", "file", a.Name, "size", a.Size)
	}
	if w.onDrop != nil {
		w.onDrop(a, err)
	}
}

// ignored skips editor swap files and other dot-files.
func ignored(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
