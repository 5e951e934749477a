package cluster

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/starford/bignote/internal/apperr"
	"github.com/starford/bignote/internal/models"
	"github.com/starford/bignote/internal/taxonomy"
)

// Role is a structural role a node can play.
type Role string

const (
	RoleRootFolder     Role = "cluster_root_folder"
	RoleCategoryFolder Role = "category_folder"
	RoleIndexNote      Role = "index_note"
	RolePeripheralNote Role = "peripheral_note"
)

// Report describes how one node fits the cluster structure.
type Report struct {
	Path        string                `json:"path"`
	Kind        string                `json:"kind"` // "folder" or "file"
	Roles       []Role                `json:"roles"`
	ContextType *taxonomy.ContextType `json:"context_type,omitempty"`
	IndexPath   string                `json:"index_path,omitempty"`
	Reason      string                `json:"reason,omitempty"`
}

// Has reports whether the report lists role.
func (r Report) Has(role Role) bool {
	for _, x := range r.Roles {
		if x == role {
			return true
		}
	}
	return false
}

// Classify locates p in tree and reports its roles. An unknown path yields
// apperr.ErrNotFound.
func (r *Resolver) Classify(ctx context.Context, tree *models.Folder, p string) (Report, error) {
	p = strings.Trim(path.Clean("/"+p), "/")
	if folder, ok := tree.FindFolder(p); ok {
		return r.classifyFolder(folder), nil
	}
	if file, ok := tree.FindFile(p); ok {
		return r.classifyFile(ctx, file), nil
	}
	return Report{}, fmt.Errorf("%s: %w", p, apperr.ErrNotFound)
}

func (r *Resolver) classifyFolder(folder *models.Folder) Report {
	rep := Report{Path: folder.Path, Kind: "folder", Roles: []Role{}}
	if IsRootFolder(folder) {
		rep.Roles = append(rep.Roles, RoleRootFolder)
		if index, err := IndexFromRootFolder(folder); err == nil {
			rep.IndexPath = index.Path
		}
	}
	if IsCategoryFolder(folder) {
		rep.Roles = append(rep.Roles, RoleCategoryFolder)
		ct, _ := taxonomy.ByFolder(folder.Name)
		rep.ContextType = &ct
		if index, err := IndexFromRootFolder(folder.Parent); err == nil {
			rep.IndexPath = index.Path
		}
	}
	if len(rep.Roles) == 0 {
		rep.Reason = folderReason(folder)
	}
	return rep
}

func folderReason(folder *models.Folder) string {
	if taxonomy.IsFolderName(folder.Name) {
		return "category folder name outside a cluster root"
	}
	switch n := folder.FileCount(); {
	case n == 0:
		return "no index note"
	case n > 1:
		return fmt.Sprintf("%d files directly inside, a cluster root holds exactly one", n)
	default:
		return fmt.Sprintf("the only file is not named %q", folder.Name)
	}
}

func (r *Resolver) classifyFile(ctx context.Context, file *models.File) Report {
	rep := Report{Path: file.Path, Kind: "file", Roles: []Role{}}
	if IsRootFile(file) {
		rep.Roles = append(rep.Roles, RoleIndexNote)
		rep.IndexPath = file.Path
		return rep
	}
	index, err := r.peripheralIndex(ctx, file)
	if err != nil {
		rep.Reason = err.Error()
		return rep
	}
	rep.Roles = append(rep.Roles, RolePeripheralNote)
	rep.IndexPath = index.Path
	ct, _ := taxonomy.ByFolder(file.Parent.Name)
	rep.ContextType = &ct
	return rep
}
