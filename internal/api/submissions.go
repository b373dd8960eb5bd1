package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type CreateSubmissionRequest struct {
	Values map[string]string `json:"values"`
}

// createSubmission accepts a form submission, stores it, and dispatches
// background syncs for every active feed. The submitter gets a 201 once
// the submission is stored regardless of sync outcomes.
func (d Dependencies) createSubmission(w http.ResponseWriter, r *http.Request) {
	formID, err := parseID(chi.URLParam(r, "formID"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid form id", d.Log)
		return
	}

	var req CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if len(req.Values) == 0 {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Submission values are required", d.Log)
		return
	}

	sub, err := d.Submissions.Submit(r.Context(), formID, req.Values)
	if err != nil {
		WriteError(w, http.StatusNotFound, "submit_failed", err.Error(), d.Log)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"submissionId": sub.ID,
		"createdAt":    sub.CreatedAt,
	})
}

func (d Dependencies) getSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid submission id", d.Log)
		return
	}

	sub, err := d.Submissions.GetSubmission(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "Submission not found", d.Log)
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

// resyncSubmission clears the idempotency marker and re-dispatches the
// submission to every active feed of its form.
func (d Dependencies) resyncSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid submission id", d.Log)
		return
	}

	sub, err := d.Submissions.GetSubmission(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "Submission not found", d.Log)
		return
	}

	if err := d.Submissions.ClearSyncMarker(r.Context(), sub.ID); err != nil {
		WriteError(w, http.StatusInternalServerError, "resync_failed", err.Error(), d.Log)
		return
	}

	form, err := d.DB.Queries.GetFormByID(r.Context(), sub.FormID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "Form not found", d.Log)
		return
	}

	feeds, err := d.DB.Queries.ListActiveFeedsByForm(r.Context(), sub.FormID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "resync_failed", err.Error(), d.Log)
		return
	}

	// Reload so the cleared marker is visible to the duplicate check.
	sub, err = d.Submissions.GetSubmission(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "resync_failed", err.Error(), d.Log)
		return
	}

	for _, feed := range feeds {
		d.Submissions.ProcessFeed(r.Context(), feed, sub, form)
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"submissionId": sub.ID,
		"feeds":        len(feeds),
	})
}
