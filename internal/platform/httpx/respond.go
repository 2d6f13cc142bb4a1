// Package httpx provides HTTP envelope and error-mapping utilities.
package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Envelope is the wire format shared by every endpoint.
type Envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// JSON sends an arbitrary payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK sends a success envelope with data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{OK: true, Data: data})
}

// Created sends a success envelope with 201 status.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Envelope{OK: true, Data: data})
}

// Fail sends a failure envelope with the given status and message.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{OK: false, Error: message})
}

// DecodeJSON decodes the request body into target, rejecting oversized
// and syntactically broken payloads as validation errors.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: malformed request body", ErrValidation)
	}
	return nil
}
