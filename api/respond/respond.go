// Package respond holds the JSON helpers shared by the HTTP handlers.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/voicedispatch/core/logger"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, log logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && log != nil {
		log.Errorf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

// Error writes {"detail": msg}.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, status int, msg string) {
	JSON(w, r, log, status, map[string]string{"detail": msg})
}
