// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/bignote/internal/models"

// Provider is the interface for vault file operations. Paths are relative to
// the vault root and slash separated.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.NoteMetadata, error)
	// Tree returns a fresh snapshot of the whole vault.
	Tree() (*models.Folder, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, replacing any existing file.
	Write(path string, content []byte) error
	// Create atomically writes content to a path that must not exist yet.
	Create(path string, content []byte) error
	// CreateFolder creates dir and its parents; an existing folder is not an error.
	CreateFolder(dir string) error
}
