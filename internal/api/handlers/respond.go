package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/markdave123-py/Botforge/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a pipeline error classification onto an HTTP status and
// returns the user-facing message, never the wrapped cause.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch core.KindOf(err) {
	case core.KindValidation:
		status = http.StatusBadRequest
	case core.KindConflict:
		status = http.StatusConflict
	case core.KindContent:
		status = http.StatusUnprocessableEntity
	}
	msg := core.MessageOf(err)
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
