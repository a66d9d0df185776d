// Package httputil holds the JSON response helpers of the debug routes.
package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/banshee-data/persistent-clutter/internal/monitoring"
)

// ErrorBody is the JSON body of an error response.
type ErrorBody struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("[http] failed to encode json response: %v", err)
	}
}

// WriteError writes an ErrorBody with a formatted message.
func WriteError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	WriteJSON(w, status, ErrorBody{Status: status, Error: fmt.Sprintf(format, args...)})
}

// AllowMethods reports whether r uses one of methods. When it does not, a
// 405 with an Allow header has already been written.
func AllowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "method %s not allowed", r.Method)
	return false
}
