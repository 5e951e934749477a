package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/bignote/internal/noteservice"
	"github.com/starford/bignote/internal/taxonomy"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// vaultPath extracts the vault path from the wildcard part of the URL.
// Supports encoded slashes from OpenAPI clients (e.g. Project%2FProject.md).
func vaultPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Taxonomy handles GET /api/taxonomy.
//
//	@Summary		List context types in display order
//	@Tags			clusters
//	@Produce		json
//	@Success		200	{object}	TaxonomyResponse
//	@Security		BearerAuth
//	@Router			/taxonomy [get]
func (h *Handler) Taxonomy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, TaxonomyResponse{ContextTypes: taxonomy.All()})
}

// ListClusters handles GET /api/clusters.
//
//	@Summary		List cluster root folders with their category folders
//	@Tags			clusters
//	@Produce		json
//	@Success		200	{object}	ClusterListResponse
//	@Security		BearerAuth
//	@Router			/clusters [get]
func (h *Handler) ListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := h.svc.Clusters(r.Context())
	if err != nil {
		writeError(w, "list clusters", err)
		return
	}
	writeJSON(w, http.StatusOK, ClusterListResponse{Clusters: clusters})
}

// Classify handles GET /api/classify/*.
//
//	@Summary		Report the cluster roles of a folder or file
//	@Tags			clusters
//	@Produce		json
//	@Param			path	path		string	true	"Vault path"
//	@Success		200		{object}	ClassifyResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/classify/{path} [get]
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	path := vaultPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	rep, err := h.svc.Classify(r.Context(), path)
	if err != nil {
		writeError(w, "classify", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Resolve handles GET /api/resolve/*.
//
//	@Summary		Find the index note of the cluster a note belongs to
//	@Tags			clusters
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	ResolveResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve/{path} [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	path := vaultPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	res, err := h.svc.Resolve(r.Context(), path)
	if err != nil {
		writeError(w, "resolve", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Spawn handles POST /api/spawn.
//
//	@Summary		Spawn a peripheral note from an origin note
//	@Tags			clusters
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SpawnRequest	true	"Spawn selections"
//	@Success		201		{object}	SpawnResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/spawn [post]
func (h *Handler) Spawn(w http.ResponseWriter, r *http.Request) {
	var req SpawnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	sreq, cursor := req.toSpawn()
	res, err := h.svc.Spawn(r.Context(), sreq, cursor)
	if err != nil {
		writeError(w, "spawn", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Duplicates handles GET /api/diagnostics/duplicates.
//
//	@Summary		List basenames shared by several notes
//	@Tags			diagnostics
//	@Produce		json
//	@Success		200	{object}	DuplicatesResponse
//	@Security		BearerAuth
//	@Router			/diagnostics/duplicates [get]
func (h *Handler) Duplicates(w http.ResponseWriter, r *http.Request) {
	dups, err := h.svc.Duplicates(r.Context())
	if err != nil {
		writeError(w, "duplicates", err)
		return
	}
	writeJSON(w, http.StatusOK, DuplicatesResponse{Duplicates: dups})
}
