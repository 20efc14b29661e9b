package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError reports message with the id withRequestID put on the response.
func writeError(w http.ResponseWriter, status int, message string) {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{
		Error:     message,
		Status:    status,
		RequestID: w.Header().Get(requestIDHeader),
	})
}
