package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ghlsync/internal/model"

	"github.com/go-chi/chi/v5"
)

type CreateFormRequest struct {
	Title  string            `json:"title"`
	Fields []model.FormField `json:"fields"`
}

func (d Dependencies) createForm(w http.ResponseWriter, r *http.Request) {
	var req CreateFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if req.Title == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "A form title is required", d.Log)
		return
	}

	form, err := d.DB.Queries.CreateForm(r.Context(), req.Title, req.Fields)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "create_failed", err.Error(), d.Log)
		return
	}

	writeJSON(w, http.StatusCreated, form)
}

func (d Dependencies) getForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "formID"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid form id", d.Log)
		return
	}

	form, err := d.DB.Queries.GetFormByID(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "Form not found", d.Log)
		return
	}

	writeJSON(w, http.StatusOK, form)
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
