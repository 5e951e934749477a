package index

import (
	"log/slog"
	"path"
	"strings"

	"github.com/starford/bignote/internal/checksum"
	"github.com/starford/bignote/internal/models"
	"github.com/starford/bignote/internal/parser"
	"github.com/starford/bignote/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
//
// Basenames shared by several notes are logged as warnings.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	dups, err := db.DuplicateBasenames()
	if err != nil {
		return err
	}
	for _, d := range dups {
		logger.Warn("sync: duplicate basename",
			slog.String("basename", d.Basename),
			slog.String("paths", strings.Join(d.Paths, ", ")))
	}
	return nil
}

// IndexFile parses data and upserts it into the DB.
func IndexFile(db *DB, p string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return db.UpsertNote(NoteRow{
		Path:        p,
		Basename:    strings.TrimSuffix(path.Base(p), models.MarkdownExt),
		Checksum:    checksum.Sum(data),
		Frontmatter: res.Frontmatter,
	})
}
