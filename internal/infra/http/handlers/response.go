package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/xavierca1/ligue-funnels/internal/usecase"
)

// maxBodyBytes caps webhook and dashboard payloads.
const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Message: message, Code: code})
}

// writeUsecaseError maps usecase errors to HTTP. legacy keeps the 201 that
// existing webhook senders get for an unknown user or funnel.
func writeUsecaseError(w http.ResponseWriter, err error, legacy bool) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeJSON(w, domainStatus(de.Code, legacy), ErrorResponse{
			Message: de.Message,
			Error:   de.Detail,
			Code:    de.Code,
		})
		return
	}

	code := "INTERNAL_ERROR"
	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		code = te.Code
	}
	// detalhe técnico fica no log
	writeErrorResponse(w, http.StatusInternalServerError, code, "Internal server error")
}

func domainStatus(code string, legacy bool) int {
	switch code {
	case usecase.CodeValidation:
		return http.StatusBadRequest
	case usecase.CodeNotFound:
		if legacy {
			return http.StatusCreated
		}
		return http.StatusNotFound
	case usecase.CodeFunnelSuspended, usecase.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

// readBody reads at most maxBodyBytes; larger bodies are a 400.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorResponse(w, http.StatusRequestEntityTooLarge, usecase.CodeValidation, "Request body too large")
			return nil, false
		}
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "Could not read request body")
		return nil, false
	}
	return body, true
}
