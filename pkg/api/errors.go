// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/luxfi/burnengine/pkg/metric"
	"github.com/luxfi/burnengine/pkg/settlement"
	"github.com/luxfi/burnengine/pkg/token"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrNotAvailable = errors.New("not available")
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// status maps an error onto an HTTP status and a stable code. Engine
// rejections are conflicts with the current state.
func status(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, settlement.ErrInvalidAmount), errors.Is(err, token.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrNotAvailable):
		return http.StatusNotImplemented, "not_available"
	case errors.Is(err, token.ErrSupplyOverflow):
		return http.StatusConflict, "overflow"
	}
	if code := metric.Reason(err); code != "other" {
		return http.StatusConflict, code
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, reason := status(err)
	writeJSON(w, code, ErrorResponse{
		Error:     err.Error(),
		Code:      reason,
		RequestID: RequestID(r.Context()),
	})
}
