// Package cluster recognizes the cluster structure of a vault: cluster root
// folders, their index notes, category folders and peripheral notes.
//
// Every function here works on a tree snapshot and never panics on a
// malformed tree; rejections come back as false or as an error wrapping one
// of the apperr sentinels.
package cluster

import (
	"github.com/starford/bignote/internal/models"
	"github.com/starford/bignote/internal/taxonomy"
)

// hasFileNamed reports whether folder holds a file whose basename is name.
func hasFileNamed(folder *models.Folder, name string) bool {
	for _, f := range folder.Files {
		if f.Basename == name {
			return true
		}
	}
	return false
}

// IsRootFolder: exactly one direct file, named after the folder. The vault
// root itself never qualifies; its name is just the directory it lives in.
func IsRootFolder(folder *models.Folder) bool {
	if folder == nil || folder.Parent == nil {
		return false
	}
	return folder.FileCount() == 1 && hasFileNamed(folder, folder.Name)
}

// IsCategoryFolder: a taxonomy folder name directly under a cluster root.
func IsCategoryFolder(folder *models.Folder) bool {
	if folder == nil || !taxonomy.IsFolderName(folder.Name) {
		return false
	}
	return IsRootFolder(folder.Parent)
}

// IsRootFile reports whether file is the index note of its cluster.
func IsRootFile(file *models.File) bool {
	if file == nil || file.Parent == nil {
		return false
	}
	return IsRootFolder(file.Parent) && file.Parent.Name == file.Basename
}
