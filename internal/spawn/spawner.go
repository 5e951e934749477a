// Package spawn creates new peripheral notes inside a cluster and links
// them back to the note they were spawned from.
package spawn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/bignote/internal/apperr"
	"github.com/starford/bignote/internal/cluster"
	"github.com/starford/bignote/internal/models"
	"github.com/starford/bignote/internal/prompt"
	"github.com/starford/bignote/internal/taxonomy"
)

// DefaultJournalHeading closes the body of every spawned note.
const DefaultJournalHeading = "Journal"

// TreeStorage is the vault access the spawner needs.
type TreeStorage interface {
	Tree(ctx context.Context) (*models.Folder, error)
	// CreateFolder must succeed when the folder already exists.
	CreateFolder(ctx context.Context, path string) error
	WriteFile(ctx context.Context, path string, content []byte) error
}

// Editor inserts text into the origin note at its cursor.
type Editor interface {
	InsertAtCursor(ctx context.Context, text string) error
}

// Prompt asks the user for choices. Both methods return apperr.ErrCancelled
// when the user closes the prompt.
type Prompt interface {
	SelectOne(ctx context.Context, title string, options []string) (string, error)
	InputText(ctx context.Context, title string) (string, error)
}

// Request carries the selections of a spawn.
type Request struct {
	// Origin is the vault path of the note the spawn starts from.
	Origin string `json:"origin"`
	// Root optionally names a cluster root folder; the origin then need not
	// belong to any cluster.
	Root string `json:"root,omitempty"`
	// Context is a context type heading, singular or plural.
	Context string `json:"context"`
	Name    string `json:"name"`
}

// Result describes the note a spawn created.
type Result struct {
	Path      string `json:"path"`
	Basename  string `json:"basename"`
	TripletID string `json:"triplet_id"`
	BlockID   string `json:"block_id"`
	Line      string `json:"line"`
	IndexPath string `json:"index_path"`
	Origin    string `json:"origin"`
	Content   string `json:"content"`
}

// Spawner runs the spawn workflow.
type Spawner struct {
	store          TreeStorage
	resolver       *cluster.Resolver
	logger         *slog.Logger
	hex            func() string
	journalHeading string
}

// Option configures a Spawner.
type Option func(*Spawner)

// WithHexSource replaces the random block identifier suffix generator.
func WithHexSource(fn func() string) Option {
	return func(s *Spawner) { s.hex = fn }
}

// WithJournalHeading sets the heading that ends a spawned note's body.
func WithJournalHeading(h string) Option {
	return func(s *Spawner) {
		if h != "" {
			s.journalHeading = h
		}
	}
}

// New creates a Spawner.
func New(store TreeStorage, resolver *cluster.Resolver, logger *slog.Logger, opts ...Option) *Spawner {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Spawner{
		store:          store,
		resolver:       resolver,
		logger:         logger,
		hex:            func() string { return randomHex(6) },
		journalHeading: DefaultJournalHeading,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Spawner) enter(state State, origin string) {
	s.logger.Debug("spawn: state", slog.String("state", state.String()), slog.String("origin", origin))
}

// Run drives the whole workflow interactively: it asks for the cluster
// (when outside is set), the context type and the note name, then spawns.
func (s *Spawner) Run(ctx context.Context, p Prompt, origin string, outside bool, ed Editor) (*Result, error) {
	req := Request{Origin: origin}

	s.enter(StateSelectOrigin, origin)
	tree, err := s.store.Tree(ctx)
	if err != nil {
		return nil, fail(StateSelectOrigin, fmt.Errorf("read tree: %w: %w", apperr.ErrStorageFailure, err))
	}
	originFile, err := findOrigin(tree, origin)
	if err != nil {
		return nil, fail(StateSelectOrigin, err)
	}
	if outside {
		roots := cluster.EnumerateRoots(tree)
		if len(roots) == 0 {
			return nil, fail(StateSelectOrigin, fmt.Errorf("vault has no cluster roots: %w", apperr.ErrStructuralMismatch))
		}
		options := make([]string, len(roots))
		for i, r := range roots {
			options[i] = r.Path
		}
		req.Root, err = p.SelectOne(ctx, "Cluster", options)
		if err != nil {
			return nil, fail(StateSelectOrigin, err)
		}
	} else if _, err := s.resolver.IndexFor(ctx, originFile); err != nil {
		return nil, fail(StateSelectOrigin, fmt.Errorf("spawner is not part of a cluster: %w", err))
	}

	s.enter(StateSelectContext, origin)
	req.Context, err = p.SelectOne(ctx, "Context type", taxonomy.Headings())
	if err != nil {
		return nil, fail(StateSelectContext, err)
	}

	s.enter(StateSelectName, origin)
	req.Name, err = p.InputText(ctx, "New note name (without NNN ID)")
	if err != nil {
		return nil, fail(StateSelectName, err)
	}

	return s.Spawn(ctx, req, ed)
}

func findOrigin(tree *models.Folder, origin string) (*models.File, error) {
	f, ok := tree.FindFile(origin)
	if !ok {
		return nil, fmt.Errorf("origin note %q: %w", origin, apperr.ErrNotFound)
	}
	return f, nil
}

// Spawn creates a peripheral note from already made selections. It stops at
// the first failing step and does not undo earlier ones: a category folder
// created during allocation stays when a later step fails.
func (s *Spawner) Spawn(ctx context.Context, req Request, ed Editor) (*Result, error) {
	if ed == nil {
		return nil, fail(StateSelectOrigin, errors.New("no editor for the origin note"))
	}

	s.enter(StateSelectOrigin, req.Origin)
	tree, err := s.store.Tree(ctx)
	if err != nil {
		return nil, fail(StateSelectOrigin, fmt.Errorf("read tree: %w: %w", apperr.ErrStorageFailure, err))
	}
	origin, err := findOrigin(tree, req.Origin)
	if err != nil {
		return nil, fail(StateSelectOrigin, err)
	}

	var index *models.File
	if req.Root != "" {
		root, ok := tree.FindFolder(req.Root)
		if !ok {
			return nil, fail(StateSelectOrigin, fmt.Errorf("cluster root %q: %w", req.Root, apperr.ErrNotFound))
		}
		if index, err = cluster.IndexFromRootFolder(root); err != nil {
			return nil, fail(StateSelectOrigin, err)
		}
	} else if index, err = s.resolver.IndexFor(ctx, origin); err != nil {
		return nil, fail(StateSelectOrigin, fmt.Errorf("spawner is not part of a cluster: %w", err))
	}

	s.enter(StateSelectContext, req.Origin)
	ct, ok := taxonomy.Lookup(req.Context)
	if !ok {
		return nil, fail(StateSelectContext, fmt.Errorf("unknown context type %q: %w", req.Context, apperr.ErrInvalidSelection))
	}

	s.enter(StateSelectName, req.Origin)
	if err := prompt.ValidateName(req.Name); err != nil {
		return nil, fail(StateSelectName, fmt.Errorf("note name %q: %v: %w", req.Name, err, apperr.ErrInvalidSelection))
	}
	name := strings.TrimSpace(req.Name)

	s.enter(StateResolve, req.Origin)
	categoryPath := path.Join(index.Parent.Path, ct.Folder)

	s.enter(StateAllocate, req.Origin)
	if err := s.store.CreateFolder(ctx, categoryPath); err != nil {
		return nil, fail(StateAllocate, fmt.Errorf("create folder %s: %w: %w", categoryPath, apperr.ErrStorageFailure, err))
	}
	// The folder may be new, so count from a fresh snapshot.
	tree, err = s.store.Tree(ctx)
	if err != nil {
		return nil, fail(StateAllocate, fmt.Errorf("read tree: %w: %w", apperr.ErrStorageFailure, err))
	}
	current, ok := tree.FindFile(index.Path)
	if !ok {
		return nil, fail(StateAllocate, fmt.Errorf("index note %s disappeared: %w", index.Path, apperr.ErrStructuralMismatch))
	}
	id, err := cluster.NextTripletID(ct.Folder, current)
	if err != nil {
		return nil, fail(StateAllocate, err)
	}

	s.enter(StateCompose, req.Origin)
	basename := id + " " + name
	blockID := BlockID(ct.Code, s.hex())
	content, err := noteContent(index.Basename, origin.Basename, blockID, s.journalHeading, ct.Doer)
	if err != nil {
		return nil, fail(StateCompose, err)
	}
	notePath := path.Join(categoryPath, basename+models.MarkdownExt)

	s.enter(StatePersist, req.Origin)
	if err := s.store.WriteFile(ctx, notePath, content); err != nil {
		return nil, fail(StatePersist, fmt.Errorf("write %s: %w: %w", notePath, apperr.ErrStorageFailure, err))
	}
	line := ForwardLine(basename, blockID)
	if err := ed.InsertAtCursor(ctx, line); err != nil {
		return nil, fail(StatePersist, fmt.Errorf("insert forward reference: %w: %w", apperr.ErrStorageFailure, err))
	}

	s.logger.Info("spawn: note created",
		slog.String("state", StateDone.String()),
		slog.String("path", notePath),
		slog.String("index", index.Path),
		slog.String("origin", origin.Path),
		slog.String("context", ct.Singular))

	return &Result{
		Path:      notePath,
		Basename:  basename,
		TripletID: id,
		BlockID:   blockID,
		Line:      line,
		IndexPath: index.Path,
		Origin:    origin.Path,
		Content:   string(content),
	}, nil
}
