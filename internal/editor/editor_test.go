package editor

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"
)

type memStore map[string]string

func (m memStore) Read(p string) ([]byte, error) {
	s, ok := m[p]
	if !ok {
		return nil, errors.New("missing")
	}
	return []byte(s), nil
}

func (m memStore) Write(p string, content []byte) error {
	m[p] = string(content)
	return nil
}

func TestOffset(t *testing.T) {
	content := "one\ntwo\nthree"
	tests := []struct {
		c    Cursor
		want int
	}{
		{Cursor{0, 0}, 0},
		{Cursor{0, 3}, 3},
		{Cursor{0, 99}, 3},
		{Cursor{1, 1}, 5},
		{Cursor{2, 5}, 13},
		{Cursor{7, 0}, 13},
		{End, 13},
		{Cursor{1, -4}, 4},
	}
	for _, tt := range tests {
		if got := Offset(content, tt.c); got != tt.want {
			t.Errorf("Offset(%+v) = %d, want %d", tt.c, got, tt.want)
		}
	}
}

func TestPosition(t *testing.T) {
	content := "one\ntwo\nthree"
	if got := Position(content, 5); got != (Cursor{1, 1}) {
		t.Errorf("got %+v", got)
	}
	if got := Position(content, 100); got != (Cursor{2, 5}) {
		t.Errorf("got %+v", got)
	}
}

func TestInsertAtCursor(t *testing.T) {
	store := memStore{"a.md": "# Title\nbody\n"}
	ed := NewFile(store, "a.md", Cursor{Line: 0, Ch: 7})
	if err := ed.InsertAtCursor(context.Background(), "Spawn [[000 X]] ^spawn-task-abc123"); err != nil {
		t.Fatal(err)
	}
	want := "# Title\nSpawn [[000 X]] ^spawn-task-abc123\n\nbody\n"
	if store["a.md"] != want {
		t.Errorf("got %q, want %q", store["a.md"], want)
	}

	// The cursor advanced, so a second insert follows the first.
	if err := ed.InsertAtCursor(context.Background(), "next"); err != nil {
		t.Fatal(err)
	}
	want = "# Title\nSpawn [[000 X]] ^spawn-task-abc123\n\nnext\n\nbody\n"
	if store["a.md"] != want {
		t.Errorf("got %q, want %q", store["a.md"], want)
	}
}

func TestInsertAtEnd(t *testing.T) {
	store := memStore{"a.md": "body"}
	if err := NewFile(store, "a.md", End).InsertAtCursor(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	if store["a.md"] != "body\nx\n" {
		t.Errorf("got %q", store["a.md"])
	}
}

func TestInsertMissingNote(t *testing.T) {
	err := NewFile(memStore{}, "gone.md", End).InsertAtCursor(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestInsertCancelled(t *testing.T) {
	store := memStore{"a.md": "body"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewFile(store, "a.md", End).InsertAtCursor(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if store["a.md"] != "body" {
		t.Error("cancelled insert modified the note")
	}
}

func TestOffset_MultiByte(t *testing.T) {
	content := "héllo\n😀x\nend"
	tests := []struct {
		c    Cursor
		want int
	}{
		{Cursor{0, 1}, 1},
		{Cursor{0, 2}, 3}, // after é, which is two bytes
		{Cursor{0, 5}, 6},
		{Cursor{1, 1}, 7}, // inside the surrogate pair: start of 😀
		{Cursor{1, 2}, 11},
		{Cursor{1, 3}, 12},
	}
	for _, tt := range tests {
		if got := Offset(content, tt.c); got != tt.want {
			t.Errorf("Offset(%+v) = %d, want %d", tt.c, got, tt.want)
		}
	}
	if got := Position(content, 11); got != (Cursor{1, 2}) {
		t.Errorf("Position(11) = %+v, want {1 2}", got)
	}
}

func TestInsertAtCursor_MultiByteLine(t *testing.T) {
	store := memStore{"a.md": "héllo\n"}
	ed := NewFile(store, "a.md", Cursor{Line: 0, Ch: 2})
	if err := ed.InsertAtCursor(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	want := "hé\nx\nllo\n"
	if store["a.md"] != want {
		t.Errorf("got %q, want %q", store["a.md"], want)
	}
	if !utf8.ValidString(store["a.md"]) {
		t.Error("note is not valid UTF-8")
	}
	if err := ed.InsertAtCursor(context.Background(), "y"); err != nil {
		t.Fatal(err)
	}
	if store["a.md"] != "hé\nx\n\ny\nllo\n" {
		t.Errorf("second insert: got %q", store["a.md"])
	}
}
