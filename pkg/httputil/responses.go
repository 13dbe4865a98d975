// Package httputil provides HTTP utility functions for consistent response handling
// Copyright (C) 2025 Joshua Goldstein

package httputil

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/SergeyMarcum/crm-app/pkg/logger"
)

var log = logger.NewLogger("http")

// WriteError writes an error response and logs it
func WriteError(w http.ResponseWriter, message string, status int, err error) {
	http.Error(w, message, status)
	if err != nil {
		log.Error("HTTP Error", err, "status", status, "message", message)
	} else {
		log.Warning("HTTP Error: "+message, "status", status)
	}
}

// WriteJSON writes a JSON response with proper headers
func WriteJSON(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

// WriteJSONStatus writes a JSON response with the given status code
func WriteJSONStatus(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteJSONError writes a JSON error response
func WriteJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// DecodeJSON decodes JSON from request body into the provided interface
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// IsAjaxRequest reports whether the caller expects JSON rather than a page
func IsAjaxRequest(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// RedirectBack redirects to the Referer when it points at this host,
// otherwise to fallback. Off-site referers are ignored.
func RedirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	target := fallback
	if ref := r.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && (u.Host == "" || u.Host == r.Host) && strings.HasPrefix(u.Path, "/") {
			target = u.RequestURI()
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// MethodNotAllowed writes a method not allowed error
func MethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, "Method not allowed", http.StatusMethodNotAllowed, nil)
}

// Unauthorized writes an unauthorized error
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "User not authenticated"
	}
	WriteError(w, message, http.StatusUnauthorized, nil)
}

// Forbidden writes a forbidden error
func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Forbidden"
	}
	WriteError(w, message, http.StatusForbidden, nil)
}

// BadRequest writes a bad request error
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, message, http.StatusBadRequest, nil)
}

// NotFound writes a not found error
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Not found"
	}
	WriteError(w, message, http.StatusNotFound, nil)
}

// InternalServerError writes an internal server error
func InternalServerError(w http.ResponseWriter, message string, err error) {
	if message == "" {
		message = "Internal server error"
	}
	WriteError(w, message, http.StatusInternalServerError, err)
}
