package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

const maxBodyBytes = 1 << 16

type apiError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

func (h *Handler) writeMappedError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	statusCode, code, message := mapError(err)
	fields := []any{
		"operation", operation,
		"status_code", statusCode,
		"error_code", code,
		"request_id", requestIDFromContext(ctx),
		"error", err.Error(),
	}
	if statusCode >= http.StatusInternalServerError {
		h.logger.Error(ctx, "http operation failed", fields...)
	} else {
		h.logger.Warn(ctx, "http operation failed", fields...)
	}
	writeError(w, statusCode, code, message)
}

// mapError turns service errors into a status and a generic message. Token
// failures of every kind share one response so callers cannot tell an
// unknown refresh token from an expired or already used one.
func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, common.ErrNoAuthorization):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Authorization not found"
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrInvalidSignature),
		errors.Is(err, common.ErrMalformedToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, common.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "RATE_LIMITED", "too many attempts"
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, "CONFLICT", "already exists"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", common.ErrorValidation)
	}
	return nil
}
