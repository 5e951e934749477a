package cluster

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/bignote/internal/apperr"
	"github.com/starford/bignote/internal/models"
	"github.com/starford/bignote/internal/parser"
)

// Frontmatter keys written on peripheral notes.
const (
	ParentProperty    = "parent"
	SpawnedByProperty = "spawned_by"
	StatusProperty    = "status"
)

// MetadataIndex provides the parsed frontmatter of a note.
type MetadataIndex interface {
	// Frontmatter returns nil without error when the note has none.
	Frontmatter(ctx context.Context, path string) (map[string]any, error)
}

// Resolver answers the questions that need frontmatter: which index note a
// peripheral note belongs to, and whether it is a valid peripheral note.
type Resolver struct {
	meta   MetadataIndex
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil logger falls back to slog.Default().
func NewResolver(meta MetadataIndex, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{meta: meta, logger: logger}
}

// FindNote returns the first Markdown note named basename in enumeration
// order. Basenames are not unique in a vault; callers get whichever comes first.
func FindNote(tree *models.Folder, basename string) (*models.File, bool) {
	var found *models.File
	tree.Root().Walk(func(f *models.Folder) bool {
		for _, file := range f.Files {
			if file.IsMarkdown() && file.Basename == basename {
				found = file
				return false
			}
		}
		return true
	})
	return found, found != nil
}

// EnumerateRoots lists every cluster root folder in the tree.
func EnumerateRoots(tree *models.Folder) []*models.Folder {
	var out []*models.Folder
	tree.Root().Walk(func(f *models.Folder) bool {
		if IsRootFolder(f) {
			out = append(out, f)
		}
		return true
	})
	return out
}

// IndexFromRootFolder returns the index note of a cluster root folder.
func IndexFromRootFolder(folder *models.Folder) (*models.File, error) {
	if !IsRootFolder(folder) {
		name := "<nil>"
		if folder != nil {
			name = folder.Path
		}
		return nil, fmt.Errorf("%s is not a cluster root folder: %w", name, apperr.ErrStructuralMismatch)
	}
	for _, f := range folder.Files {
		if f.Basename == folder.Name {
			return f, nil
		}
	}
	// Unreachable while IsRootFolder holds.
	return nil, fmt.Errorf("%s has no index note: %w", folder.Path, apperr.ErrStructuralMismatch)
}

// LinkedNote resolves the wikilink stored under prop in file's frontmatter.
func (r *Resolver) LinkedNote(ctx context.Context, file *models.File, prop string) (*models.File, error) {
	if file == nil || file.Parent == nil {
		return nil, fmt.Errorf("no file: %w", apperr.ErrResolutionFailure)
	}
	fm, err := r.meta.Frontmatter(ctx, file.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: read frontmatter: %v: %w", file.Path, err, apperr.ErrResolutionFailure)
	}
	if fm == nil {
		return nil, fmt.Errorf("%s: no frontmatter: %w", file.Path, apperr.ErrResolutionFailure)
	}
	raw, ok := fm[prop]
	if !ok || raw == nil {
		return nil, fmt.Errorf("%s: no %q property: %w", file.Path, prop, apperr.ErrResolutionFailure)
	}
	target, ok := parser.LinkTarget(raw)
	if !ok {
		return nil, fmt.Errorf("%s: %q is not a link: %w", file.Path, prop, apperr.ErrResolutionFailure)
	}
	linked, ok := FindNote(file.Parent, target)
	if !ok {
		return nil, fmt.Errorf("%s: no note named %q: %w", file.Path, target, apperr.ErrResolutionFailure)
	}
	return linked, nil
}

// IndexFromPeripheral follows note's parent property to an index note.
func (r *Resolver) IndexFromPeripheral(ctx context.Context, note *models.File) (*models.File, error) {
	linked, err := r.LinkedNote(ctx, note, ParentProperty)
	if err != nil {
		r.logger.Warn("cluster: parent unresolved", slog.String("error", err.Error()))
		return nil, err
	}
	if !IsRootFile(linked) {
		err := fmt.Errorf("%s is not an index note: %w", linked.Path, apperr.ErrStructuralMismatch)
		r.logger.Warn("cluster: parent is not an index note",
			slog.String("path", note.Path), slog.String("parent", linked.Path))
		return nil, err
	}
	return linked, nil
}

// peripheralIndex validates file as a peripheral note and returns its index note.
func (r *Resolver) peripheralIndex(ctx context.Context, file *models.File) (*models.File, error) {
	if file == nil || file.Parent == nil {
		return nil, fmt.Errorf("file has no parent folder: %w", apperr.ErrStructuralMismatch)
	}
	category := file.Parent
	if !IsCategoryFolder(category) {
		return nil, fmt.Errorf("%s is not a category folder: %w", category.Path, apperr.ErrStructuralMismatch)
	}
	index, err := r.IndexFromPeripheral(ctx, file)
	if err != nil {
		return nil, err
	}
	// Non-nil: IsCategoryFolder required a cluster root parent.
	if index.Parent != category.Parent {
		return nil, fmt.Errorf("%s belongs to %s but its parent link points at %s: %w",
			file.Path, category.Parent.Path, index.Path, apperr.ErrStructuralMismatch)
	}
	return index, nil
}

// IsPeripheralNote reports whether file is a valid peripheral note.
func (r *Resolver) IsPeripheralNote(ctx context.Context, file *models.File) bool {
	if _, err := r.peripheralIndex(ctx, file); err != nil {
		r.logger.Debug("cluster: not a peripheral note", slog.String("error", err.Error()))
		return false
	}
	return true
}

// IndexFor returns the index note of the cluster note belongs to. note must
// be either the index note itself or a valid peripheral note.
func (r *Resolver) IndexFor(ctx context.Context, note *models.File) (*models.File, error) {
	if IsRootFile(note) {
		return note, nil
	}
	index, err := r.peripheralIndex(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("note is not part of a cluster: %w", err)
	}
	return index, nil
}
