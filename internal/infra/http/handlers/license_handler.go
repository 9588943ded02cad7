package handlers

import (
	"net/http"

	"github.com/xavierca1/ligue-funnels/internal/logger"
	"github.com/xavierca1/ligue-funnels/internal/usecase"
)

// LicenseHandler serves the legacy Hotmart POST /webhook.
type LicenseHandler struct {
	ProvisionLicenseUC *usecase.ProvisionLicenseUseCase
}

func NewLicenseHandler(uc *usecase.ProvisionLicenseUseCase) *LicenseHandler {
	return &LicenseHandler{ProvisionLicenseUC: uc}
}

func (h *LicenseHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	output, err := h.ProvisionLicenseUC.Execute(r.Context(), body)
	if err != nil {
		if usecase.IsTechnicalError(err) {
			logger.From(r.Context()).Error("license webhook failed", "err", err)
		}
		writeUsecaseError(w, err, false)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
