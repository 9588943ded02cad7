package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/ligue-funnels/internal/logger"
	"github.com/xavierca1/ligue-funnels/internal/usecase"
)

// WebhookHandler receives gateway deliveries on POST /{uid}/{fid}.
type WebhookHandler struct {
	ProcessWebhookUC  *usecase.ProcessWebhookUseCase
	LegacyStatusCodes bool
}

func NewWebhookHandler(uc *usecase.ProcessWebhookUseCase, legacyStatusCodes bool) *WebhookHandler {
	return &WebhookHandler{ProcessWebhookUC: uc, LegacyStatusCodes: legacyStatusCodes}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	input := usecase.ProcessWebhookInput{
		UID:  chi.URLParam(r, "uid"),
		FID:  chi.URLParam(r, "fid"),
		Body: body,
	}

	output, err := h.ProcessWebhookUC.Execute(r.Context(), input)
	if err != nil {
		if usecase.IsTechnicalError(err) {
			logger.From(r.Context()).Error("webhook failed", "fid", input.FID, "err", err)
		}
		writeUsecaseError(w, err, h.LegacyStatusCodes)
		return
	}

	// ignorado ou processado: 2xx para o gateway não reenviar
	status := http.StatusOK
	if h.LegacyStatusCodes && output.Outcome == usecase.OutcomeSuspended {
		status = http.StatusCreated
	}
	writeJSON(w, status, output)
}
