package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/feitime/storefront/internal/models"
)

// fallbackErrorResponse is pre-marshaled so encoding failures can still
// produce a valid JSON body.
var fallbackErrorResponse = []byte(`{"status":"error","message":"internal server error"}`)

// writeJSONResponse marshals the envelope and writes it with the given
// status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response models.APIResponse) {
	body, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal API response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		if _, writeErr := w.Write(fallbackErrorResponse); writeErr != nil {
			slog.Error("Failed to write fallback error response", "error", writeErr)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		slog.Error("Failed to write API response", "error", err)
	}
}
