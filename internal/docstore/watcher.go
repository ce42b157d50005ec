package docstore

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SpoolWatcher watches a drop directory and ingests supported documents
// placed there, as an alternative to the upload endpoint. Events are
// debounced so a file still being written is not ingested half-finished.
type SpoolWatcher struct {
	store        *Store
	dir          string
	watcher      *fsnotify.Watcher
	debounceTime time.Duration

	mu      sync.Mutex
	pending map[string]time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSpoolWatcher creates a watcher for the given directory.
func NewSpoolWatcher(store *Store, dir string) (*SpoolWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &SpoolWatcher{
		store:        store,
		dir:          dir,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
		pending:      make(map[string]time.Time),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start begins watching the spool directory.
func (w *SpoolWatcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.ingestLoop()

	log.Printf("👀 Watching %s for documents", w.dir)
	return nil
}

// Stop stops the watcher and waits for in-flight ingestion to finish.
func (w *SpoolWatcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *SpoolWatcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !SupportedExtension(event.Name) {
				continue
			}
			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  Watcher error: %v", err)
		}
	}
}

func (w *SpoolWatcher) ingestLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			for _, path := range w.takeSettled() {
				w.ingestFile(path)
			}
		}
	}
}

// takeSettled returns paths whose last event is older than the debounce
// window and removes them from the pending set.
func (w *SpoolWatcher) takeSettled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := time.Now().Add(-w.debounceTime)
	var settled []string
	for path, last := range w.pending {
		if last.Before(cutoff) {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	return settled
}

func (w *SpoolWatcher) ingestFile(path string) {
	text, err := ExtractText(path)
	if err != nil {
		log.Printf("❌ Failed to extract %s: %v", path, err)
		return
	}

	key, err := w.store.Ingest(w.ctx, filepath.Base(path), text)
	if err != nil {
		log.Printf("❌ Failed to ingest %s: %v", path, err)
		return
	}
	log.Printf("📄 Spooled document %s available as %s", filepath.Base(path), key)
}
