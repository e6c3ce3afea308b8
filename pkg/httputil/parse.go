package httputil

import (
	"net/http"

	"github.com/google/uuid"
)

// ParseUUID validates that raw is a UUID. On failure it writes a 400
// response and returns ok=false; the handler should simply return.
func ParseUUID(w http.ResponseWriter, raw string) (string, bool) {
	if _, err := uuid.Parse(raw); err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{Code: "INVALID_INPUT", Message: "id must be a valid UUID"},
		})
		return "", false
	}
	return raw, true
}
