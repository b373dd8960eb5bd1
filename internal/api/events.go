package api

import (
	"net/http"
	"strconv"
)

// recentEvents returns the most recent sync outcomes from the event
// stream, newest first.
func (d Dependencies) recentEvents(w http.ResponseWriter, r *http.Request) {
	count := int64(50)
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 || parsed > 500 {
			WriteError(w, http.StatusBadRequest, "invalid_request", "count must be between 1 and 500", d.Log)
			return
		}
		count = parsed
	}

	items, err := d.Bus.Recent(r.Context(), count)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "query_failed", err.Error(), d.Log)
		return
	}
	if items == nil {
		items = []map[string]interface{}{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
