package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// envelope is the uniform response wrapper. Every endpoint returns either a
// success envelope with data or an error envelope with a message.
type envelope struct {
	Status    string `json:"status"`
	Data      any    `json:"data,omitempty"`
	Count     *int   `json:"count,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeSuccess wraps data in a success envelope.
func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Status: "success", Data: data})
}

// writeSuccessCount wraps a list payload and reports its length.
func writeSuccessCount(w http.ResponseWriter, status int, data any, count int) {
	writeJSON(w, status, envelope{Status: "success", Data: data, Count: &count})
}

// writeSuccessStamped wraps data and adds a server-side timestamp.
func writeSuccessStamped(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{
		Status:    "success",
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError sends an error envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Status: "error", Message: msg})
}
