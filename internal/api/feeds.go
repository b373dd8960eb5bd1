package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"ghlsync/internal/model"
	"ghlsync/internal/service"

	"github.com/go-chi/chi/v5"
)

type FeedRequest struct {
	Name     string         `json:"name"`
	IsActive *bool          `json:"isActive,omitempty"`
	Meta     model.FeedMeta `json:"meta"`
}

func (d Dependencies) createFeed(w http.ResponseWriter, r *http.Request) {
	formID, err := parseID(chi.URLParam(r, "formID"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid form id", d.Log)
		return
	}

	var req FeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	feed, err := d.Feeds.CreateFeed(r.Context(), formID, req.Name, req.Meta)
	if err != nil {
		WriteError(w, feedErrorStatus(err), "create_failed", err.Error(), d.Log)
		return
	}

	writeJSON(w, http.StatusCreated, feed)
}

func (d Dependencies) getFeed(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid feed id", d.Log)
		return
	}

	feed, err := d.Feeds.GetFeed(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "Feed not found", d.Log)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

func (d Dependencies) updateFeed(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid feed id", d.Log)
		return
	}

	var req FeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	feed, err := d.Feeds.UpdateFeed(r.Context(), id, req.Name, isActive, req.Meta)
	if err != nil {
		WriteError(w, feedErrorStatus(err), "update_failed", err.Error(), d.Log)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

func (d Dependencies) listFeeds(w http.ResponseWriter, r *http.Request) {
	formID, err := parseID(chi.URLParam(r, "formID"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid form id", d.Log)
		return
	}

	feeds, err := d.Feeds.ListFeeds(r.Context(), formID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "query_failed", err.Error(), d.Log)
		return
	}
	if feeds == nil {
		feeds = []*model.Feed{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": feeds})
}

func feedErrorStatus(err error) int {
	if errors.Is(err, service.ErrInvalidFeed) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
