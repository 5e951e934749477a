package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/bignote/internal/models"
	"github.com/starford/bignote/internal/storage"
)

// Kinds of index change reported to an EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
	// EventFolder reports a new folder; its path has no extension.
	EventFolder = "folder"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of the Event constants.
type EventCallback func(kind string, path string)

// A rename is seen only on its old path; the rescan after this delay picks
// up wherever the note went.
const reconcileDelay = 200 * time.Millisecond

// relPath returns the slash-separated vault path of abs, or false for paths
// outside the vault and hidden entries.
func relPath(vaultRoot, abs string) (string, bool) {
	rel, err := filepath.Rel(vaultRoot, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return "", false
		}
	}
	return rel, true
}

type watcher struct {
	fsw    *fsnotify.Watcher
	db     *DB
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     EventCallback
}

func (w *watcher) emit(kind, path string) {
	if w.cb != nil {
		w.cb(kind, path)
	}
}

// Watch keeps the index in step with the vault directory until ctx is
// cancelled. Folders created later are watched too; hidden entries never
// are. cb, when set, hears about every index change and every new folder,
// since both can change which folders form clusters.
func Watch(ctx context.Context, db *DB, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	w := &watcher{fsw: fsw, db: db, store: store, root: vaultRoot, logger: logger, cb: cb}
	if err := w.addTree(vaultRoot); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", vaultRoot))

	reconcile := time.NewTimer(reconcileDelay)
	reconcile.Stop()
	defer reconcile.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-reconcile.C:
			w.reconcile()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				reconcile.Reset(reconcileDelay)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// handle applies one event and reports whether a rescan is needed.
func (w *watcher) handle(ev fsnotify.Event) bool {
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.newFolder(ev.Name)
			return false
		}
	}
	if !strings.HasSuffix(ev.Name, models.MarkdownExt) {
		return false
	}
	rel, ok := relPath(w.root, ev.Name)
	if !ok {
		return false
	}

	switch {
	case ev.Op.Has(fsnotify.Create):
		w.index(rel, EventCreated)
	case ev.Op.Has(fsnotify.Write):
		w.index(rel, EventUpdated)
	case ev.Op.Has(fsnotify.Remove):
		w.remove(rel)
	case ev.Op.Has(fsnotify.Rename):
		w.remove(rel)
		return true
	}
	return false
}

func (w *watcher) index(rel, kind string) {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := IndexFile(w.db, rel, data); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	w.emit(kind, rel)
}

func (w *watcher) remove(rel string) {
	if err := w.db.DeleteNote(rel); err != nil {
		w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: deleted", slog.String("path", rel))
	w.emit(EventDeleted, rel)
}

// newFolder watches a folder created at runtime and indexes the notes it
// already holds, which happens when a folder is moved in whole.
func (w *watcher) newFolder(abs string) {
	relDir, ok := relPath(w.root, abs)
	if !ok {
		return
	}
	if err := w.addTree(abs); err != nil {
		w.logger.Warn("watcher: add new dir failed", slog.String("path", abs), slog.String("error", err.Error()))
	}
	w.emit(EventFolder, relDir)

	_ = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, models.MarkdownExt) {
			return nil
		}
		if rel, ok := relPath(w.root, p); ok {
			w.index(rel, EventCreated)
		}
		return nil
	})
}

// reconcile compares index checksums with the disk: entries without a file
// are dropped, files that are new or changed are indexed.
func (w *watcher) reconcile() {
	indexed, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range indexed {
		if _, ok := disk[p]; !ok {
			w.remove(p)
		}
	}
	for p, sum := range disk {
		if indexed[p] != sum {
			w.index(p, EventCreated)
		}
	}
}

// addTree watches dir and every visible folder below it.
func (w *watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}
