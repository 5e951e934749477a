// Package editor edits vault notes at a cursor position.
package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf16"
)

// Store is the file access an editor needs.
type Store interface {
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
}

// Cursor is a zero-based position in a note. A negative Line means the end
// of the note. Ch counts UTF-16 code units, as editors built on JavaScript
// strings do; past the end of its line it is clamped, and inside a
// character it rounds down to that character's start.
type Cursor struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

// End is the cursor after the last character of a note.
var End = Cursor{Line: -1}

// File edits one note through a Store. Reads and writes of a File are
// serialised; edits made by others between them are lost.
type File struct {
	store  Store
	path   string
	cursor Cursor
	mu     sync.Mutex
}

// NewFile returns an editor for the note at path positioned at cursor.
func NewFile(store Store, path string, cursor Cursor) *File {
	return &File{store: store, path: path, cursor: cursor}
}

// Path returns the edited note's path.
func (f *File) Path() string {
	return f.path
}

// InsertAtCursor inserts text on its own line at the cursor. The cursor
// moves past the inserted text.
func (f *File) InsertAtCursor(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.store.Read(f.path)
	if err != nil {
		return fmt.Errorf("editor: read %s: %w", f.path, err)
	}
	content := string(data)
	at := Offset(content, f.cursor)
	insert := "\n" + text + "\n"
	updated := content[:at] + insert + content[at:]
	if err := f.store.Write(f.path, []byte(updated)); err != nil {
		return fmt.Errorf("editor: write %s: %w", f.path, err)
	}
	f.cursor = Position(updated, at+len(insert))
	return nil
}

// Offset converts a cursor into a byte offset in content.
func Offset(content string, c Cursor) int {
	if c.Line < 0 {
		return len(content)
	}
	off := 0
	for line := 0; line < c.Line; line++ {
		i := strings.IndexByte(content[off:], '\n')
		if i < 0 {
			return len(content)
		}
		off += i + 1
	}
	end := strings.IndexByte(content[off:], '\n')
	if end < 0 {
		end = len(content) - off
	}
	return off + lineOffset(content[off:off+end], max(c.Ch, 0))
}

// lineOffset returns the byte offset within line of the character column ch.
func lineOffset(line string, ch int) int {
	units := 0
	for i, r := range line {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > ch {
			return i
		}
		units += n
	}
	return len(line)
}

func columnOf(prefix string) int {
	units := 0
	for _, r := range prefix {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		units += n
	}
	return units
}

// Position converts a byte offset in content into a cursor.
func Position(content string, offset int) Cursor {
	offset = min(max(offset, 0), len(content))
	before := content[:offset]
	line := strings.Count(before, "\n")
	return Cursor{Line: line, Ch: columnOf(before[strings.LastIndexByte(before, '\n')+1:])}
}
