package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
)

// Phones handles GET /api/phones.
//
//	@Summary		List directory entries, optionally filtered
//	@Tags			phones
//	@Produce		json
//	@Param			q	query		string	false	"Matches name or note case-insensitively, number verbatim"
//	@Success		200	{object}	PhoneListResponse
//	@Security		BearerAuth
//	@Router			/phones [get]
func (h *Handler) Phones(w http.ResponseWriter, r *http.Request) {
	phones := h.svc.Phones(r.URL.Query().Get("q"))
	if phones == nil {
		phones = []models.PhoneEntry{}
	}
	writeJSON(w, http.StatusOK, PhoneListResponse{Phones: phones, Total: len(phones)})
}

// AddPhone handles POST /api/phones.
//
//	@Summary		Add a directory entry (local mode only)
//	@Tags			phones
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddPhoneRequest	true	"Entry"
//	@Success		201		{object}	models.PhoneEntry
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/phones [post]
func (h *Handler) AddPhone(w http.ResponseWriter, r *http.Request) {
	var req AddPhoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := h.svc.AddPhone(models.PhoneEntry{
		Number: req.Number,
		Name:   req.Name,
		Note:   req.Note,
		Type:   req.Type,
	})
	if err != nil {
		writeError(w, "add phone", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// DeletePhone handles DELETE /api/phones/{id}.
//
//	@Summary		Remove a directory entry (local mode only)
//	@Tags			phones
//	@Param			id	path	string	true	"Entry id"
//	@Success		204	"Deleted"
//	@Failure		403	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/phones/{id} [delete]
func (h *Handler) DeletePhone(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePhone(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete phone", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportPhones handles GET /api/phones/export.
//
//	@Summary		Download the directory as CSV
//	@Tags			phones
//	@Produce		text/csv
//	@Success		200
//	@Security		BearerAuth
//	@Router			/phones/export [get]
func (h *Handler) ExportPhones(w http.ResponseWriter, _ *http.Request) {
	data, err := h.svc.ExportPhonesCSV()
	if err != nil {
		writeError(w, "export phones", err)
		return
	}
	writeCSV(w, "phones.csv", data)
}
