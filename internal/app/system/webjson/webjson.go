// internal/app/system/webjson/webjson.go

// Package webjson holds the JSON response helpers shared by every feature
// handler, so status codes and error shapes stay consistent across the API.
package webjson

import (
	"encoding/json"
	"net/http"
)

// Write encodes v as the response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with a 200.
func OK(w http.ResponseWriter, v any) {
	Write(w, http.StatusOK, v)
}

// Created writes v with a 201.
func Created(w http.ResponseWriter, v any) {
	Write(w, http.StatusCreated, v)
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, map[string]string{"error": msg})
}

// Decode reads the request body into v. A false return means the caller
// should stop; the 400 has already been written.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
