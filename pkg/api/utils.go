// Copyright (C) 2025 Joshua Goldstein

package api

import (
	"net/http"

	"github.com/SergeyMarcum/crm-app/pkg/httputil"
	"github.com/SergeyMarcum/crm-app/pkg/logger"
)

// DecodeRequest decodes JSON request body into the provided data structure
// and handles common error responses
func DecodeRequest(w http.ResponseWriter, r *http.Request, data interface{}, operation string) bool {
	if err := httputil.DecodeJSON(r, data); err != nil {
		httputil.BadRequest(w, "Invalid request body")
		logger.Error("Failed to decode JSON for "+operation, err)
		return false
	}
	return true
}

// WriteSuccessResponse writes a standardized success response
func WriteSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	httputil.WriteJSON(w, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteErrorResponse writes a standardized error response
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	httputil.WriteJSONStatus(w, statusCode, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

// WriteRateLimitResponse writes a login cooldown response
func WriteRateLimitResponse(w http.ResponseWriter, isLimited bool, remainingTime int) {
	httputil.WriteJSON(w, RateLimitResponse{
		IsLimited:     isLimited,
		RemainingTime: remainingTime,
	})
}
