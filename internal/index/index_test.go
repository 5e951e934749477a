package index

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/bignote/internal/parser"
	"github.com/starford/bignote/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "bignote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:        "Project/tasks/000 Setup.md",
		Basename:    "000 Setup",
		Checksum:    "abc123",
		Frontmatter: map[string]any{"parent": "[[Project]]"},
	}
	if err := db.UpsertNote(row); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum(row.Path)
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestFrontmatter(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	res, err := parser.Parse([]byte("---\nparent: [[Project]]\nstatus: todo\n---\nbody\n"))
	if err != nil {
		t.Fatal(err)
	}
	_ = db.UpsertNote(NoteRow{Path: "a.md", Basename: "a", Checksum: "1", Frontmatter: res.Frontmatter})
	_ = db.UpsertNote(NoteRow{Path: "plain.md", Basename: "plain", Checksum: "2"})

	fm, err := db.Frontmatter(ctx, "a.md")
	if err != nil {
		t.Fatalf("Frontmatter: %v", err)
	}
	if fm["status"] != "todo" {
		t.Errorf("status = %v", fm["status"])
	}
	// The unquoted link form survives the JSON round trip.
	if target, ok := parser.LinkTarget(fm["parent"]); !ok || target != "Project" {
		t.Errorf("parent = %v (%q, %v)", fm["parent"], target, ok)
	}

	for _, p := range []string{"plain.md", "missing.md"} {
		fm, err := db.Frontmatter(ctx, p)
		if err != nil || fm != nil {
			t.Errorf("%s: fm = %v, err = %v; want nil, nil", p, fm, err)
		}
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "del.md", Basename: "del", Checksum: "x"})

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "up.md", Basename: "up", Checksum: "1", Frontmatter: map[string]any{"status": "todo"}})
	_ = db.UpsertNote(NoteRow{Path: "up.md", Basename: "up", Checksum: "2"})

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	fm, _ := db.Frontmatter(context.Background(), "up.md")
	if fm != nil {
		t.Errorf("frontmatter should be cleared, got %v", fm)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestDuplicateBasenames(t *testing.T) {
	db := testDB(t)
	for _, p := range []struct{ path, base string }{
		{"A/notes.md", "notes"},
		{"B/notes.md", "notes"},
		{"C/other.md", "other"},
		{"C/Plan.md", "Plan"},
		{"D/Plan.md", "Plan"},
		{"E/Plan.md", "Plan"},
	} {
		_ = db.UpsertNote(NoteRow{Path: p.path, Basename: p.base, Checksum: "x"})
	}

	dups, err := db.DuplicateBasenames()
	if err != nil {
		t.Fatalf("DuplicateBasenames: %v", err)
	}
	if len(dups) != 2 {
		t.Fatalf("got %+v, want 2 duplicates", dups)
	}
	if dups[0].Basename != "Plan" || len(dups[0].Paths) != 3 {
		t.Errorf("first = %+v", dups[0])
	}
	if dups[1].Basename != "notes" || dups[1].Paths[0] != "A/notes.md" || dups[1].Paths[1] != "B/notes.md" {
		t.Errorf("second = %+v", dups[1])
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("Project/Project.md", []byte("# Project\n"))
	_ = store.Write("Project/tasks/000 Setup.md", []byte("---\nparent: \"[[Project]]\"\n---\n"))
	_ = store.Write(".trash/old.md", []byte("gone"))
	_ = db.UpsertNote(NoteRow{Path: "stale.md", Basename: "stale", Checksum: "s"})

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	paths, _ := db.AllPaths()
	if len(paths) != 2 {
		t.Errorf("paths = %v, want the two visible notes", paths)
	}
	if _, ok := paths["stale.md"]; ok {
		t.Error("stale entry survived sync")
	}
	fm, _ := db.Frontmatter(context.Background(), "Project/tasks/000 Setup.md")
	if fm["parent"] != "[[Project]]" {
		t.Errorf("parent = %v", fm["parent"])
	}
}
