// Package testutil provides shared test helpers for setting up vaults, trees and databases.
package testutil

import (
	"context"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/starford/bignote/internal/index"
	"github.com/starford/bignote/internal/models"
	"github.com/starford/bignote/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "bignote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory holding files (path → content).
func TestVault(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	for p, content := range files {
		if strings.HasSuffix(p, "/") {
			if err := store.CreateFolder(strings.TrimSuffix(p, "/")); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	return vaultDir, store
}

// Tree builds an in-memory vault snapshot. Each entry is a file path, or a
// folder path when it ends in "/".
func Tree(paths ...string) *models.Folder {
	root := models.NewFolder(nil, "vault")
	for _, p := range paths {
		isDir := strings.HasSuffix(p, "/")
		segs := strings.Split(strings.Trim(p, "/"), "/")
		cur := root
		dirs := segs
		if !isDir {
			dirs = segs[:len(segs)-1]
		}
		for _, name := range dirs {
			next, ok := cur.ChildFolder(name)
			if !ok {
				next = models.NewFolder(cur, name)
				cur.Folders = append(cur.Folders, next)
			}
			cur = next
		}
		if !isDir {
			cur.Files = append(cur.Files, models.NewFile(cur, segs[len(segs)-1]))
		}
	}
	root.Walk(func(f *models.Folder) bool {
		sort.Slice(f.Files, func(i, j int) bool { return f.Files[i].Name < f.Files[j].Name })
		sort.Slice(f.Folders, func(i, j int) bool { return f.Folders[i].Name < f.Folders[j].Name })
		return true
	})
	return root
}

// Meta is an in-memory frontmatter source keyed by note path.
type Meta map[string]map[string]any

// Frontmatter implements cluster.MetadataIndex.
func (m Meta) Frontmatter(_ context.Context, path string) (map[string]any, error) {
	return m[path], nil
}

// Parent is shorthand for a frontmatter map holding only a parent link.
func Parent(name string) map[string]any {
	return map[string]any{"parent": "[[" + name + "]]"}
}
