package cluster

import (
	"fmt"

	"github.com/starford/bignote/internal/apperr"
	"github.com/starford/bignote/internal/models"
	"github.com/starford/bignote/internal/taxonomy"
)

// FormatTripletID zero-pads n to three digits. Larger numbers keep all
// their digits.
func FormatTripletID(n int) string {
	return fmt.Sprintf("%03d", n)
}

// NextTripletID derives the next ID for a category folder of index's cluster
// from its current direct file count. Nothing is reserved: two callers that
// count before either writes get the same ID, and deleting notes makes IDs
// come back.
//
// The category folder must already exist.
func NextTripletID(contextFolder string, index *models.File) (string, error) {
	if !taxonomy.IsFolderName(contextFolder) {
		return "", fmt.Errorf("%q is not a context folder: %w", contextFolder, apperr.ErrInvalidSelection)
	}
	if index == nil || index.Parent == nil {
		return "", fmt.Errorf("index note has no folder: %w", apperr.ErrStructuralMismatch)
	}
	category, ok := index.Parent.ChildFolder(contextFolder)
	if !ok {
		return "", fmt.Errorf("%s has no %s folder: %w", index.Parent.Path, contextFolder, apperr.ErrStructuralMismatch)
	}
	return FormatTripletID(category.FileCount()), nil
}
