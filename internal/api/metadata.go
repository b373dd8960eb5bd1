package api

import (
	"net/http"

	"ghlsync/internal/ghl"

	"github.com/go-chi/chi/v5"
)

func (d Dependencies) listPipelines(w http.ResponseWriter, r *http.Request) {
	pipelines, err := d.Metadata.Pipelines(r.Context())
	if err != nil {
		WriteError(w, statusForKind(err), "upstream_failed", err.Error(), d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": pipelines})
}

func (d Dependencies) listPipelineStages(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "id")
	stages, err := d.Metadata.PipelineStages(r.Context(), pipelineID)
	if err != nil {
		WriteError(w, statusForKind(err), "upstream_failed", err.Error(), d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": stages})
}

func (d Dependencies) listCustomFields(w http.ResponseWriter, r *http.Request) {
	fields, err := d.Metadata.CustomFields(r.Context())
	if err != nil {
		WriteError(w, statusForKind(err), "upstream_failed", err.Error(), d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": fields})
}

func (d Dependencies) listContactFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": d.Metadata.ContactFields(r.Context())})
}

func (d Dependencies) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := d.Metadata.Users(r.Context())
	if err != nil {
		WriteError(w, statusForKind(err), "upstream_failed", err.Error(), d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": users})
}

func (d Dependencies) testConnection(w http.ResponseWriter, r *http.Request) {
	if err := d.Client.TestConnection(r.Context()); err != nil {
		WriteError(w, statusForKind(err), "connection_failed", err.Error(), d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

func (d Dependencies) refreshCache(w http.ResponseWriter, r *http.Request) {
	d.Metadata.Refresh()
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// statusForKind maps upstream error kinds onto the statuses this API
// reports for proxied metadata calls.
func statusForKind(err error) int {
	switch ghl.KindOf(err) {
	case ghl.KindUnauthorized:
		return http.StatusBadGateway
	case ghl.KindNotFound, ghl.KindPipelineNotFound:
		return http.StatusNotFound
	case ghl.KindRateLimited:
		return http.StatusServiceUnavailable
	case ghl.KindValidation, ghl.KindNotConfigured:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
