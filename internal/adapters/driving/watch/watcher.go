// Package watch ingests files dropped into a directory, turning it into a
// continuously indexed inbox.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driving"
	"github.com/quarry-labs/quarry-cli/internal/logger"
)

// DefaultSettle is how long a file must stay quiet before it is ingested.
// Editors and downloads write in bursts; ingesting on the first event would
// read half a file.
const DefaultSettle = 500 * time.Millisecond

// Watcher observes a directory and ingests eligible files after writes
// settle.
type Watcher struct {
	dir    string
	ingest driving.IngestService
	exts   map[string]bool
	settle time.Duration

	// OnResult, when set, is called after each ingestion attempt.
	OnResult func(path string, doc *domain.Document, err error)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher over dir for files with the given extensions
// (lower-case, dot included).
func New(dir string, ingest driving.IngestService, extensions []string) *Watcher {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[ext] = true
	}
	return &Watcher{
		dir:    dir,
		ingest: ingest,
		exts:   exts,
		settle: DefaultSettle,
		timers: make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled. Files already present when
// Run starts are not ingested; only new writes are.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.cancelTimers()
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.eligible(event) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// eligible reports whether the event should trigger ingestion: a create or
// write of a visible regular file with a supported extension.
func (w *Watcher) eligible(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if !w.exts[strings.ToLower(filepath.Ext(base))] {
		return false
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return false
	}
	return true
}

// schedule (re)arms the settle timer for the path. Every further event on
// the same path pushes ingestion back by the settle interval.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.ingestFile(ctx, path)
	})
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Reading %s: %v", path, err)
		if w.OnResult != nil {
			w.OnResult(path, nil, err)
		}
		return
	}

	doc, err := w.ingest.Ingest(ctx, domain.RawFile{
		Filename: filepath.Base(path),
		Content:  content,
	})
	if err != nil {
		logger.Warn("Ingesting %s: %v", path, err)
	} else {
		logger.Info("Ingested %s -> %s", path, doc.ID)
	}
	if w.OnResult != nil {
		w.OnResult(path, doc, err)
	}
}

func (w *Watcher) cancelTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}
