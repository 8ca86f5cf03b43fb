package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kazukitoyoda1215-max/Supporton/internal/console"
	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *console.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *console.Service) *Handler {
	return &Handler{svc: svc}
}

// Login handles POST /api/login.
//
//	@Summary		Exchange the shared password for a session token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Password"
//	@Success		200		{object}	LoginResponse
//	@Failure		401		{object}	errResponse
//	@Router			/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, expires, err := h.svc.Login(r.Context(), req.Password)
	if err != nil {
		writeError(w, "login", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expires})
}

// Logout handles POST /api/logout.
//
//	@Summary		End the current session
//	@Tags			auth
//	@Success		204	"Session ended"
//	@Security		BearerAuth
//	@Router			/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(sessionToken(r)); err != nil {
		writeError(w, "logout", err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

// GetConfig handles GET /api/config.
//
//	@Summary		Current data source settings
//	@Tags			config
//	@Produce		json
//	@Success		200	{object}	models.AppConfig
//	@Security		BearerAuth
//	@Router			/config [get]
func (h *Handler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Config())
}

// PutConfig handles PUT /api/config.
//
//	@Summary		Save data source settings; syncs immediately in spreadsheet mode
//	@Tags			config
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.AppConfig	true	"Settings"
//	@Success		200		{object}	ConfigResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/config [put]
func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.AppConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}
	report, err := h.svc.SaveConfig(r.Context(), cfg)
	if err != nil {
		writeError(w, "save config", err)
		return
	}
	writeJSON(w, http.StatusOK, ConfigResponse{Config: h.svc.Config(), Sync: report})
}

// Sync handles POST /api/sync.
//
// Per-sheet failures are reported in the body; the status is 502 only when
// every attempted sheet failed.
//
//	@Summary		Re-fetch the flow and phone sheets
//	@Tags			config
//	@Produce		json
//	@Success		200	{object}	console.SyncReport
//	@Failure		400	{object}	errResponse
//	@Failure		502	{object}	console.SyncReport
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Sync(r.Context())
	if err != nil {
		writeError(w, "sync", err)
		return
	}
	status := http.StatusOK
	if allFailed(report) {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, report)
}

func allFailed(r *console.SyncReport) bool {
	attempted, failed := 0, 0
	for _, rr := range []console.ResourceReport{r.Flow, r.Phones} {
		if rr.Attempted {
			attempted++
			if rr.Err() != nil {
				failed++
			}
		}
	}
	return attempted > 0 && failed == attempted
}

// Flow handles GET /api/flow.
//
//	@Summary		The whole installed flow tree
//	@Tags			flow
//	@Produce		json
//	@Success		200	{object}	models.FlowNode
//	@Security		BearerAuth
//	@Router			/flow [get]
func (h *Handler) Flow(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Tree())
}

// FlowNode handles GET /api/flow/node.
//
//	@Summary		Resolve a navigation path
//	@Tags			flow
//	@Produce		json
//	@Param			id	query		[]string	false	"Node ids from the root, in order"	collectionFormat(multi)
//	@Success		200	{object}	console.NodeView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/flow/node [get]
func (h *Handler) FlowNode(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Node(r.URL.Query()["id"])
	if err != nil {
		writeError(w, "resolve node", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SearchFlow handles GET /api/flow/search.
//
//	@Summary		Fuzzy search over node titles
//	@Tags			flow
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/flow/search [get]
func (h *Handler) SearchFlow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	matches := h.svc.SearchFlow(q)
	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{ID: m.Node.ID, Title: m.Node.Title, Path: m.Path}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ExportFlow handles GET /api/flow/export.
//
//	@Summary		Download the tree as CSV
//	@Tags			flow
//	@Produce		text/csv
//	@Success		200
//	@Security		BearerAuth
//	@Router			/flow/export [get]
func (h *Handler) ExportFlow(w http.ResponseWriter, _ *http.Request) {
	data, err := h.svc.ExportFlowCSV()
	if err != nil {
		writeError(w, "export flow", err)
		return
	}
	writeCSV(w, "flow.csv", data)
}

// AddChild handles POST /api/flow/children.
//
//	@Summary		Add a child node (local mode only)
//	@Tags			flow
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddChildRequest	true	"Parent path and title"
//	@Success		201		{object}	models.FlowNode
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/flow/children [post]
func (h *Handler) AddChild(w http.ResponseWriter, r *http.Request) {
	var req AddChildRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	node, err := h.svc.AddChild(req.Path, req.Title)
	if err != nil {
		writeError(w, "add child", err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

// SaveContent handles PUT /api/flow/content.
//
//	@Summary		Replace a node's body and template (local mode only)
//	@Tags			flow
//	@Accept			json
//	@Param			body	body	SaveContentRequest	true	"Node path and new text"
//	@Success		204		"Saved"
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/flow/content [put]
func (h *Handler) SaveContent(w http.ResponseWriter, r *http.Request) {
	var req SaveContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.SaveContent(req.Path, req.Content, req.Template); err != nil {
		writeError(w, "save content", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteChild handles DELETE /api/flow/nodes/{parentID}/children/{childID}.
//
//	@Summary		Remove a child node (local mode only)
//	@Tags			flow
//	@Param			parentID	path	string	true	"Parent node id"
//	@Param			childID		path	string	true	"Child node id"
//	@Success		204			"Deleted"
//	@Failure		403			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/flow/nodes/{parentID}/children/{childID} [delete]
func (h *Handler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteChild(chi.URLParam(r, "parentID"), chi.URLParam(r, "childID")); err != nil {
		writeError(w, "delete child", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Materials handles GET /api/materials.
//
//	@Summary		Document catalog
//	@Tags			materials
//	@Produce		json
//	@Success		200	{array}	models.Material
//	@Security		BearerAuth
//	@Router			/materials [get]
func (h *Handler) Materials(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Materials())
}

// MaterialText handles POST /api/materials/text.
//
//	@Summary		Compose the message for selected documents
//	@Tags			materials
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MaterialTextRequest	true	"Selected ids"
//	@Success		200		{object}	MaterialTextResponse
//	@Security		BearerAuth
//	@Router			/materials/text [post]
func (h *Handler) MaterialText(w http.ResponseWriter, r *http.Request) {
	var req MaterialTextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, MaterialTextResponse{Text: h.svc.MaterialText(req.IDs)})
}

// Snapshots handles GET /api/snapshots.
//
//	@Summary		Mirrored sheet snapshots
//	@Tags			config
//	@Produce		json
//	@Success		200	{array}	models.SnapshotMeta
//	@Security		BearerAuth
//	@Router			/snapshots [get]
func (h *Handler) Snapshots(w http.ResponseWriter, _ *http.Request) {
	snaps, err := h.svc.Snapshots()
	if err != nil {
		writeError(w, "list snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}
