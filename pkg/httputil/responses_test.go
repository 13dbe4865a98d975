// Package httputil tests
// Copyright (C) 2025 Joshua Goldstein

package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name         string
		write        func(w http.ResponseWriter)
		expectedCode int
		expectedBody string
	}{
		{
			name:         "WriteError with underlying error",
			write:        func(w http.ResponseWriter) { WriteError(w, "Backend failed", http.StatusBadGateway, errors.New("dial tcp")) },
			expectedCode: http.StatusBadGateway,
			expectedBody: "Backend failed\n",
		},
		{
			name:         "Unauthorized default message",
			write:        func(w http.ResponseWriter) { Unauthorized(w, "") },
			expectedCode: http.StatusUnauthorized,
			expectedBody: "User not authenticated\n",
		},
		{
			name:         "Forbidden custom message",
			write:        func(w http.ResponseWriter) { Forbidden(w, "Admins only") },
			expectedCode: http.StatusForbidden,
			expectedBody: "Admins only\n",
		},
		{
			name:         "NotFound default message",
			write:        func(w http.ResponseWriter) { NotFound(w, "") },
			expectedCode: http.StatusNotFound,
			expectedBody: "Not found\n",
		},
		{
			name:         "BadRequest",
			write:        func(w http.ResponseWriter) { BadRequest(w, "Invalid id") },
			expectedCode: http.StatusBadRequest,
			expectedBody: "Invalid id\n",
		},
		{
			name:         "MethodNotAllowed",
			write:        MethodNotAllowed,
			expectedCode: http.StatusMethodNotAllowed,
			expectedBody: "Method not allowed\n",
		},
		{
			name:         "InternalServerError default message",
			write:        func(w http.ResponseWriter) { InternalServerError(w, "", errors.New("nil map")) },
			expectedCode: http.StatusInternalServerError,
			expectedBody: "Internal server error\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.write(rr)

			if rr.Code != tt.expectedCode {
				t.Errorf("Status code = %v, expected %v", rr.Code, tt.expectedCode)
			}
			if rr.Body.String() != tt.expectedBody {
				t.Errorf("Body = %q, expected %q", rr.Body.String(), tt.expectedBody)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	if err := WriteJSON(rr, []string{"a", "b"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %v, expected application/json", ct)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != `["a","b"]` {
		t.Errorf("Body = %q", body)
	}
}

func TestWriteJSONStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONStatus(rr, http.StatusCreated, map[string]int{"id": 7})

	if rr.Code != http.StatusCreated {
		t.Errorf("Status code = %v, expected %v", rr.Code, http.StatusCreated)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != `{"id":7}` {
		t.Errorf("Body = %q", body)
	}
}

func TestWriteJSONError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONError(rr, "Session expired", http.StatusUnauthorized)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %v, expected %v", rr.Code, http.StatusUnauthorized)
	}

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["error"] != "Session expired" {
		t.Errorf("error = %q, expected %q", body["error"], "Session expired")
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		expectErr bool
	}{
		{name: "valid", body: `{"email":"ivan@test.com"}`},
		{name: "malformed", body: `{"email":`, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var v struct {
				Email string `json:"email"`
			}
			err := DecodeJSON(req, &v)
			if (err != nil) != tt.expectErr {
				t.Errorf("DecodeJSON() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

func TestIsAjaxRequest(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		headers map[string]string
		want    bool
	}{
		{name: "plain page", path: "/users", want: false},
		{name: "api prefix", path: "/api/tables/users", want: true},
		{name: "xhr header", path: "/users", headers: map[string]string{"X-Requested-With": "XMLHttpRequest"}, want: true},
		{name: "accept json", path: "/users", headers: map[string]string{"Accept": "application/json"}, want: true},
		{name: "accept html", path: "/users", headers: map[string]string{"Accept": "text/html"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := IsAjaxRequest(req); got != tt.want {
				t.Errorf("IsAjaxRequest() = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestRedirectBack(t *testing.T) {
	tests := []struct {
		name     string
		referer  string
		expected string
	}{
		{name: "same host", referer: "http://example.com/users?page=2", expected: "/users?page=2"},
		{name: "relative", referer: "/objects", expected: "/objects"},
		{name: "foreign host", referer: "http://evil.test/phish", expected: "/fallback"},
		{name: "no referer", referer: "", expected: "/fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "http://example.com/tables/users/filters", nil)
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			rr := httptest.NewRecorder()
			RedirectBack(rr, req, "/fallback")

			if rr.Code != http.StatusSeeOther {
				t.Errorf("Status code = %v, expected %v", rr.Code, http.StatusSeeOther)
			}
			if loc := rr.Header().Get("Location"); loc != tt.expected {
				t.Errorf("Location = %q, expected %q", loc, tt.expected)
			}
		})
	}
}
