package index

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/bignote/internal/storage"
)

type watchEnv struct {
	dir   string
	store storage.Provider
	db    *DB

	mu     sync.Mutex
	events []string
}

// startWatch sets up a vault holding files, syncs it and runs the watcher
// until the test ends.
func startWatch(t *testing.T, files map[string]string) *watchEnv {
	t.Helper()
	env := &watchEnv{dir: t.TempDir(), db: testDB(t)}
	for p, content := range files {
		abs := filepath.Join(env.dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(env.dir)
	if err != nil {
		t.Fatal(err)
	}
	env.store = store

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if err := Sync(env.db, store, logger); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.Cleanup(func() {
		cancel()
		<-done
	})
	go func() {
		defer close(done)
		_ = Watch(ctx, env.db, store, env.dir, logger, env.record)
	}()
	time.Sleep(100 * time.Millisecond)
	return env
}

func (e *watchEnv) record(kind, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, kind+":"+path)
}

func (e *watchEnv) saw(event string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.events {
		if ev == event {
			return true
		}
	}
	return false
}

func (e *watchEnv) write(t *testing.T, rel, content string) {
	t.Helper()
	abs := filepath.Join(e.dir, filepath.FromSlash(rel))
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_PeripheralFrontmatterIndexed(t *testing.T) {
	env := startWatch(t, map[string]string{
		"Project/Project.md":  "# Project\n",
		"Project/tasks/.keep": "",
	})

	env.write(t, "Project/tasks/000 Fix.md", "---\nparent: \"[[Project]]\"\n---\n")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		fm, _ := env.db.Frontmatter(context.Background(), "Project/tasks/000 Fix.md")
		return fm != nil && fm["parent"] == "[[Project]]"
	}, "frontmatter of new note not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return env.saw(EventCreated + ":Project/tasks/000 Fix.md")
	}, "expected created callback for the new note")
}

func TestWatcher_ParentEditReindexed(t *testing.T) {
	env := startWatch(t, map[string]string{
		"Project/Project.md":        "# Project\n",
		"Project/ideas/000 Idea.md": "---\nparent: \"[[Other]]\"\n---\n",
	})

	env.write(t, "Project/ideas/000 Idea.md", "---\nparent: \"[[Project]]\"\n---\n")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		fm, _ := env.db.Frontmatter(context.Background(), "Project/ideas/000 Idea.md")
		return fm != nil && fm["parent"] == "[[Project]]"
	}, "edited parent link not reindexed")
}

func TestWatcher_NewCategoryFolder(t *testing.T) {
	env := startWatch(t, map[string]string{"Project/Project.md": "# Project\n"})

	if err := os.Mkdir(filepath.Join(env.dir, "Project", "issues"), 0o755); err != nil {
		t.Fatal(err)
	}

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return env.saw(EventFolder + ":Project/issues")
	}, "expected folder callback for the new category folder")

	// Files in the new folder are watched too.
	env.write(t, "Project/issues/000 Bug.md", "# Bug\n")
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := env.db.GetChecksum("Project/issues/000 Bug.md")
		return cs != ""
	}, "file in new folder not indexed by watcher")
}

func TestWatcher_HiddenPathsIgnored(t *testing.T) {
	env := startWatch(t, map[string]string{
		"Project/Project.md": "# Project\n",
		".trash/old.md":      "# Old\n",
	})

	env.write(t, ".trash/new.md", "# New\n")
	env.write(t, "Project/visible.md", "# Visible\n")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := env.db.GetChecksum("Project/visible.md")
		return cs != ""
	}, "visible note not indexed")

	if cs, _ := env.db.GetChecksum(".trash/new.md"); cs != "" {
		t.Error("note under a hidden folder was indexed")
	}
	if env.saw(EventCreated + ":.trash/new.md") {
		t.Error("callback fired for a hidden path")
	}
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	env := startWatch(t, map[string]string{
		"Project/Project.md":        "# Project\n",
		"Project/tasks/000 Done.md": "---\nparent: \"[[Project]]\"\n---\n",
	})

	if err := os.Remove(filepath.Join(env.dir, "Project", "tasks", "000 Done.md")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := env.db.GetChecksum("Project/tasks/000 Done.md")
		return cs == ""
	}, "deleted note still in index")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return env.saw(EventDeleted + ":Project/tasks/000 Done.md")
	}, "expected deleted callback")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	env := startWatch(t, map[string]string{
		"Project/Project.md":       "# Project\n",
		"Project/tasks/000 Old.md": "---\nparent: \"[[Project]]\"\n---\n",
	})

	err := os.Rename(
		filepath.Join(env.dir, "Project", "tasks", "000 Old.md"),
		filepath.Join(env.dir, "Project", "tasks", "000 New.md"))
	if err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := env.db.GetChecksum("Project/tasks/000 Old.md")
		newCS, _ := env.db.GetChecksum("Project/tasks/000 New.md")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}
