// Package noteservice ties vault storage, the metadata index and the
// spawner together for the HTTP, MCP and CLI surfaces.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/starford/bignote/internal/apperr"
	"github.com/starford/bignote/internal/cluster"
	"github.com/starford/bignote/internal/editor"
	"github.com/starford/bignote/internal/index"
	"github.com/starford/bignote/internal/models"
	"github.com/starford/bignote/internal/parser"
	"github.com/starford/bignote/internal/spawn"
	"github.com/starford/bignote/internal/storage"
	"github.com/starford/bignote/internal/taxonomy"
)

// Metadata sources.
const (
	SourceIndex = "index"
	SourceLive  = "live"
)

// SpawnHook is called after every successful spawn.
type SpawnHook func(*spawn.Result)

// Service coordinates storage, index and spawn operations.
type Service struct {
	store    storage.Provider
	db       *index.DB
	logger   *slog.Logger
	resolver *cluster.Resolver
	spawner  *spawn.Spawner

	source    string
	spawnOpts []spawn.Option
	onSpawn   SpawnHook

	// Spawns run one at a time; ID allocation counts files and reserves nothing.
	spawnMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithMetadataSource selects where frontmatter is read from: SourceIndex
// (default) or SourceLive.
func WithMetadataSource(source string) Option {
	return func(s *Service) {
		if source != "" {
			s.source = source
		}
	}
}

// WithSpawnOptions passes options through to the spawner.
func WithSpawnOptions(opts ...spawn.Option) Option {
	return func(s *Service) { s.spawnOpts = append(s.spawnOpts, opts...) }
}

// WithSpawnHook registers fn to run after each spawn.
func WithSpawnHook(fn SpawnHook) Option {
	return func(s *Service) { s.onSpawn = fn }
}

// NewService creates a new note service.
func NewService(store storage.Provider, db *index.DB, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, db: db, logger: logger, source: SourceIndex}
	for _, opt := range opts {
		opt(s)
	}
	var meta cluster.MetadataIndex = s.db
	if s.source == SourceLive {
		meta = liveMetadata{store: store}
	}
	s.resolver = cluster.NewResolver(meta, logger)
	s.spawner = spawn.New(vault{s}, s.resolver, logger, s.spawnOpts...)
	return s
}

// SetSpawnHook replaces the spawn hook. Used when the event sink is created
// after the service.
func (s *Service) SetSpawnHook(fn SpawnHook) {
	s.spawnMu.Lock()
	defer s.spawnMu.Unlock()
	s.onSpawn = fn
}

// Tree returns a fresh vault snapshot.
func (s *Service) Tree(_ context.Context) (*models.Folder, error) {
	tree, err := s.store.Tree()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrStorageFailure, err)
	}
	return tree, nil
}

// CategorySummary is one category folder of a cluster.
type CategorySummary struct {
	ContextType string `json:"context_type"`
	Folder      string `json:"folder"`
	Path        string `json:"path"`
	Notes       int    `json:"notes"`
	NextID      string `json:"next_id"`
}

// ClusterSummary describes one cluster root folder.
type ClusterSummary struct {
	Name       string            `json:"name"`
	Path       string            `json:"path"`
	IndexPath  string            `json:"index_path"`
	Categories []CategorySummary `json:"categories"`
}

// Clusters lists every cluster in the vault in enumeration order.
func (s *Service) Clusters(ctx context.Context) ([]ClusterSummary, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	roots := cluster.EnumerateRoots(tree)
	out := make([]ClusterSummary, 0, len(roots))
	for _, root := range roots {
		idx, err := cluster.IndexFromRootFolder(root)
		if err != nil {
			return nil, err
		}
		sum := ClusterSummary{Name: root.Name, Path: root.Path, IndexPath: idx.Path, Categories: []CategorySummary{}}
		for _, f := range root.Folders {
			if !cluster.IsCategoryFolder(f) {
				continue
			}
			ct, _ := taxonomy.ByFolder(f.Name)
			sum.Categories = append(sum.Categories, CategorySummary{
				ContextType: ct.Singular,
				Folder:      f.Name,
				Path:        f.Path,
				Notes:       f.FileCount(),
				NextID:      cluster.FormatTripletID(f.FileCount()),
			})
		}
		out = append(out, sum)
	}
	return out, nil
}

// Classify reports the cluster roles of the node at p.
func (s *Service) Classify(ctx context.Context, p string) (cluster.Report, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return cluster.Report{}, err
	}
	return s.resolver.Classify(ctx, tree, p)
}

// Resolution is the cluster a note belongs to.
type Resolution struct {
	Path      string `json:"path"`
	IndexPath string `json:"index_path"`
	RootPath  string `json:"root_path"`
}

// Resolve finds the index note of the cluster the note at p belongs to.
func (s *Service) Resolve(ctx context.Context, p string) (*Resolution, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	note, ok := tree.FindFile(p)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, apperr.ErrNotFound)
	}
	idx, err := s.resolver.IndexFor(ctx, note)
	if err != nil {
		return nil, err
	}
	return &Resolution{Path: note.Path, IndexPath: idx.Path, RootPath: idx.Parent.Path}, nil
}

// Spawn creates a peripheral note and inserts its forward reference into
// the origin note at cursor.
func (s *Service) Spawn(ctx context.Context, req spawn.Request, cursor editor.Cursor) (*spawn.Result, error) {
	s.spawnMu.Lock()
	defer s.spawnMu.Unlock()
	res, err := s.spawner.Spawn(ctx, req, editor.NewFile(indexedFiles{s}, req.Origin, cursor))
	return s.spawned(res, err)
}

// RunSpawn asks p for the selections and spawns from origin.
func (s *Service) RunSpawn(ctx context.Context, p spawn.Prompt, origin string, outside bool, cursor editor.Cursor) (*spawn.Result, error) {
	s.spawnMu.Lock()
	defer s.spawnMu.Unlock()
	res, err := s.spawner.Run(ctx, p, origin, outside, editor.NewFile(indexedFiles{s}, origin, cursor))
	return s.spawned(res, err)
}

func (s *Service) spawned(res *spawn.Result, err error) (*spawn.Result, error) {
	if err != nil {
		s.logger.Warn("spawn failed", slog.String("error", err.Error()))
		return nil, err
	}
	if s.onSpawn != nil {
		s.onSpawn(res)
	}
	return res, nil
}

// DuplicateBasename is a basename shared by several notes. Links with that
// name resolve to Resolved.
type DuplicateBasename struct {
	Basename string   `json:"basename"`
	Paths    []string `json:"paths"`
	Resolved string   `json:"resolved"`
}

// Duplicates lists basenames shared by more than one indexed note, with the
// note a link to each basename resolves to in the current tree.
func (s *Service) Duplicates(ctx context.Context) ([]DuplicateBasename, error) {
	dups, err := s.db.DuplicateBasenames()
	if err != nil {
		return nil, err
	}
	out := make([]DuplicateBasename, 0, len(dups))
	if len(dups) == 0 {
		return out, nil
	}
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range dups {
		dup := DuplicateBasename{Basename: d.Basename, Paths: d.Paths}
		if f, ok := cluster.FindNote(tree, d.Basename); ok {
			dup.Resolved = f.Path
		}
		out = append(out, dup)
	}
	return out, nil
}

// IndexFile parses data and upserts it into the index.
// Exported so that the spawn path and the editor can reuse it.
func (s *Service) IndexFile(path string, data []byte) error {
	return index.IndexFile(s.db, path, data)
}

// reindex keeps the index in step with a write the service made itself; the
// watcher would catch up later, but the next lookup may come first.
func (s *Service) reindex(path string, data []byte) {
	if err := s.IndexFile(path, data); err != nil {
		s.logger.Warn("index after write failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// vault adapts the service to spawn.TreeStorage.
type vault struct{ s *Service }

func (v vault) Tree(ctx context.Context) (*models.Folder, error) {
	return v.s.Tree(ctx)
}

func (v vault) CreateFolder(_ context.Context, path string) error {
	return v.s.store.CreateFolder(path)
}

// WriteFile creates a new note; an existing file at path is an error.
func (v vault) WriteFile(_ context.Context, path string, content []byte) error {
	if err := v.s.store.Create(path, content); err != nil {
		return err
	}
	v.s.reindex(path, content)
	return nil
}

// indexedFiles adapts the service to editor.Store.
type indexedFiles struct{ s *Service }

func (f indexedFiles) Read(path string) ([]byte, error) {
	data, err := f.s.store.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", apperr.ErrNotFound, err)
	}
	return data, err
}

func (f indexedFiles) Write(path string, content []byte) error {
	if err := f.s.store.Write(path, content); err != nil {
		return err
	}
	f.s.reindex(path, content)
	return nil
}

// liveMetadata parses frontmatter straight from the vault on every lookup.
type liveMetadata struct {
	store storage.Provider
}

func (m liveMetadata) Frontmatter(_ context.Context, path string) (map[string]any, error) {
	data, err := m.store.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return res.Frontmatter, nil
}
