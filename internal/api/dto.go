package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/bignote/internal/cluster"
	"github.com/starford/bignote/internal/editor"
	"github.com/starford/bignote/internal/noteservice"
	"github.com/starford/bignote/internal/prompt"
	"github.com/starford/bignote/internal/spawn"
	"github.com/starford/bignote/internal/taxonomy"
)

// CursorDTO is a zero-based position in the origin note.
type CursorDTO struct {
	Line int `json:"line" example:"3"`
	Ch   int `json:"ch" example:"0"`
}

// SpawnRequest is the request body for spawning a note.
type SpawnRequest struct {
	Origin  string `json:"origin" example:"Project/Project.md" validate:"required"`
	Root    string `json:"root,omitempty" example:"Project"`
	Context string `json:"context" example:"Task" validate:"required"`
	Name    string `json:"name" example:"Fix bug" validate:"required"`
	// Cursor defaults to the end of the origin note.
	Cursor *CursorDTO `json:"cursor,omitempty"`
}

// Validate checks the request shape; cluster rules are checked by the spawner.
func (r SpawnRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Origin, validation.Required),
		validation.Field(&r.Context, validation.Required, validation.By(knownContext)),
		validation.Field(&r.Name, validation.Required, validation.By(noteName)),
	)
}

func knownContext(v any) error {
	s, _ := v.(string)
	if _, ok := taxonomy.Lookup(s); !ok {
		return validation.NewError("validation_context_unknown", "must be a context type heading")
	}
	return nil
}

func noteName(v any) error {
	s, _ := v.(string)
	if err := prompt.ValidateName(s); err != nil {
		return validation.NewError("validation_note_name", err.Error())
	}
	return nil
}

func (r SpawnRequest) toSpawn() (spawn.Request, editor.Cursor) {
	cur := editor.End
	if r.Cursor != nil {
		cur = editor.Cursor{Line: r.Cursor.Line, Ch: r.Cursor.Ch}
	}
	return spawn.Request{Origin: r.Origin, Root: r.Root, Context: r.Context, Name: r.Name}, cur
}

// SpawnResult is the created note (aliased from the domain layer).
type SpawnResult = spawn.Result

// TaxonomyResponse lists the context types in display order.
type TaxonomyResponse struct {
	ContextTypes []taxonomy.ContextType `json:"context_types" validate:"required"`
}

// ClusterListResponse wraps cluster listings.
type ClusterListResponse struct {
	Clusters []noteservice.ClusterSummary `json:"clusters" validate:"required"`
}

// ClassifyResponse is a classification report (aliased from the domain layer).
type ClassifyResponse = cluster.Report

// ResolveResponse is the cluster a note belongs to (aliased from the domain layer).
type ResolveResponse = noteservice.Resolution

// DuplicatesResponse lists basenames shared by several notes.
type DuplicatesResponse struct {
	Duplicates []noteservice.DuplicateBasename `json:"duplicates" validate:"required"`
}
