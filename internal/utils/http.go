package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WriteJSON marshals payload and writes it with the given status code and an
// application/json content type. When marshaling fails the response becomes a
// plain 500 and none of the payload is written.
//
// Returns the number of body bytes written and any marshaling error.
func WriteJSON(w http.ResponseWriter, payload any, statusCode int) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "error writing data to JSON", http.StatusInternalServerError)
		return 0, fmt.Errorf("error writing data to JSON: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return w.Write(body)
}
