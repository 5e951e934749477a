// Package models defines the vault tree types.
package models

import (
	"path"
	"strings"
	"time"
)

// MarkdownExt is the extension of note files.
const MarkdownExt = ".md"

// Folder is a directory in a vault snapshot. Files and Folders are kept
// sorted by name, which is the enumeration order used for lookups.
type Folder struct {
	Name    string
	Path    string // vault-relative, slash separated; "" for the vault root
	Parent  *Folder
	Files   []*File
	Folders []*Folder
}

// File is a regular file in a vault snapshot.
type File struct {
	Name     string // with extension
	Basename string // without extension
	Path     string
	Parent   *Folder
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFile builds a File under parent. The basename strips only the last extension.
func NewFile(parent *Folder, name string) *File {
	f := &File{
		Name:     name,
		Basename: strings.TrimSuffix(name, path.Ext(name)),
		Parent:   parent,
	}
	if parent != nil {
		f.Path = path.Join(parent.Path, name)
	} else {
		f.Path = name
	}
	return f
}

// NewFolder builds a Folder under parent (nil for the vault root).
func NewFolder(parent *Folder, name string) *Folder {
	f := &Folder{Name: name, Parent: parent}
	if parent != nil {
		f.Path = path.Join(parent.Path, name)
	}
	return f
}

// IsMarkdown reports whether the file is a note.
func (f *File) IsMarkdown() bool {
	return path.Ext(f.Name) == MarkdownExt
}

// Root walks up to the top of the tree.
func (f *Folder) Root() *Folder {
	r := f
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// ChildFolder returns the direct child folder with the given name.
func (f *Folder) ChildFolder(name string) (*Folder, bool) {
	for _, c := range f.Folders {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// FileCount counts direct file children (non-recursive).
func (f *Folder) FileCount() int {
	return len(f.Files)
}

// Walk visits f and every descendant folder depth-first in enumeration order.
// It stops early when fn returns false.
func (f *Folder) Walk(fn func(*Folder) bool) bool {
	if !fn(f) {
		return false
	}
	for _, c := range f.Folders {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// FindFolder looks up a folder by vault-relative path.
func (f *Folder) FindFolder(p string) (*Folder, bool) {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return f.Root(), true
	}
	cur := f.Root()
	for _, seg := range strings.Split(p, "/") {
		next, ok := cur.ChildFolder(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// FindFile looks up a file by vault-relative path.
func (f *Folder) FindFile(p string) (*File, bool) {
	p = strings.Trim(path.Clean("/"+p), "/")
	dir, name := path.Split(p)
	parent, ok := f.FindFolder(dir)
	if !ok {
		return nil, false
	}
	for _, c := range parent.Files {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}
