// Package watch re-runs a conversion whenever its input file changes or a
// refresh schedule fires.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	appLog "schedcal/internal/log"
)

const defaultDebounce = 500 * time.Millisecond

// RunFunc performs one conversion.
type RunFunc func(ctx context.Context) error

// Options tunes a Watcher.
type Options struct {
	// Refresh is a cron spec ("*/15 * * * *", "@every 1h"). Empty disables
	// scheduled runs.
	Refresh string
	// Debounce coalesces bursts of file events. Spreadsheet editors often
	// write a file several times per save.
	Debounce time.Duration
}

// Watcher owns the event loop. Conversions never overlap: they all run on
// the Run goroutine.
type Watcher struct {
	path     string
	run      RunFunc
	refresh  string
	debounce time.Duration
}

// New returns a watcher for path.
func New(path string, run RunFunc, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Refresh != "" {
		if _, err := cron.ParseStandard(opts.Refresh); err != nil {
			return nil, fmt.Errorf("watch: refresh %q: %w", opts.Refresh, err)
		}
	}
	return &Watcher{
		path:     abs,
		run:      run,
		refresh:  opts.Refresh,
		debounce: opts.Debounce,
	}, nil
}

// Run blocks until ctx is canceled. Conversion errors are logged and the
// loop keeps going; the previous output stays in place.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	// Watch the directory: editors replace the file via rename, which drops
	// a watch placed on the file itself.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	scheduled := make(chan struct{}, 1)
	if w.refresh != "" {
		c := cron.New()
		if _, err := c.AddFunc(w.refresh, func() {
			select {
			case scheduled <- struct{}{}:
			default:
			}
		}); err != nil {
			return fmt.Errorf("watch: refresh %q: %w", w.refresh, err)
		}
		c.Start()
		defer c.Stop()
	}

	appLog.Info("watching input", "path", w.path, "refresh", w.refresh)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			appLog.Debug("input changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			appLog.Error("watch: fsnotify error", err, "path", w.path)

		case <-timerC:
			timerC = nil
			w.convert(ctx, "change")

		case <-scheduled:
			w.convert(ctx, "schedule")
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func (w *Watcher) convert(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := w.run(ctx); err != nil {
		appLog.Error("conversion failed; keeping previous output", err, "reason", reason, "path", w.path)
		return
	}
	appLog.Info("conversion finished", "reason", reason, "elapsed", time.Since(start).String())
}
