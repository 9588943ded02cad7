package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/ligue-funnels/internal/logger"
	"github.com/xavierca1/ligue-funnels/internal/usecase"
)

// FunnelHandler serves the dashboard actions on a funnel: multi-shot
// enrollment and manual lead removal.
type FunnelHandler struct {
	MultiShotUC  *usecase.MultiShotUseCase
	RemoveLeadUC *usecase.RemoveLeadUseCase
	rateLimiter  *RateLimiter
}

func NewFunnelHandler(multiShot *usecase.MultiShotUseCase, removeLead *usecase.RemoveLeadUseCase) *FunnelHandler {
	return &FunnelHandler{
		MultiShotUC:  multiShot,
		RemoveLeadUC: removeLead,
		rateLimiter:  NewRateLimiter(10, time.Minute), // 10 req/min por IP
	}
}

func (h *FunnelHandler) MultiShot(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(getClientIP(r)) {
		writeErrorResponse(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
		return
	}

	var input usecase.MultiShotInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.UID = chi.URLParam(r, "uid")
	input.FID = chi.URLParam(r, "fid")

	output, err := h.MultiShotUC.Execute(r.Context(), input)
	if err != nil {
		if usecase.IsTechnicalError(err) {
			logger.From(r.Context()).Error("multishot failed", "fid", input.FID, "err", err)
		}
		writeUsecaseError(w, err, false)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (h *FunnelHandler) RemoveLead(w http.ResponseWriter, r *http.Request) {
	input := usecase.RemoveLeadInput{
		UID:   chi.URLParam(r, "uid"),
		FID:   chi.URLParam(r, "fid"),
		Phone: chi.URLParam(r, "phone"),
	}

	output, err := h.RemoveLeadUC.Execute(r.Context(), input)
	if err != nil {
		if usecase.IsTechnicalError(err) {
			logger.From(r.Context()).Error("remove lead failed", "fid", input.FID, "err", err)
		}
		writeUsecaseError(w, err, false)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
