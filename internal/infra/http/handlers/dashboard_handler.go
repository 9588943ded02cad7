package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/ligue-funnels/internal/entity"
	"github.com/xavierca1/ligue-funnels/internal/logger"
	"github.com/xavierca1/ligue-funnels/internal/usecase"
)

// DashboardHandler serves the account and funnel management calls made by
// the dashboard under /api.
type DashboardHandler struct {
	FunnelsUC *usecase.ManageFunnelsUseCase
	UsersUC   *usecase.ManageUsersUseCase
}

func NewDashboardHandler(funnels *usecase.ManageFunnelsUseCase, users *usecase.ManageUsersUseCase) *DashboardHandler {
	return &DashboardHandler{FunnelsUC: funnels, UsersUC: users}
}

type FunnelResponse struct {
	Funnel *entity.Funnel `json:"funnel"`
}

type FunnelListResponse struct {
	Funnels []*entity.Funnel `json:"funnels"`
}

// Routes mounts the dashboard endpoints on r.
func (h *DashboardHandler) Routes(r chi.Router) {
	r.Post("/users", h.CreateUser)
	r.Get("/users", h.UserExists)
	r.Post("/funnels", h.SaveFunnel)
	r.Get("/funnels", h.ListFunnels)
	r.Get("/users/{uid}/funnels/{fid}", h.GetFunnel)
	r.Delete("/users/{uid}/funnels/{fid}", h.DeleteFunnel)
}

func (h *DashboardHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateUserInput
	if !decodeJSON(w, r, &input) {
		return
	}

	output, err := h.UsersUC.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, "create user failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, output)
}

func (h *DashboardHandler) UserExists(w http.ResponseWriter, r *http.Request) {
	output, err := h.UsersUC.Exists(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.fail(w, r, "user lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func (h *DashboardHandler) SaveFunnel(w http.ResponseWriter, r *http.Request) {
	var input usecase.SaveFunnelInput
	if !decodeJSON(w, r, &input) {
		return
	}

	output, err := h.FunnelsUC.Save(r.Context(), input)
	if err != nil {
		h.fail(w, r, "save funnel failed", err)
		return
	}
	status := http.StatusOK
	if output.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, output)
}

func (h *DashboardHandler) ListFunnels(w http.ResponseWriter, r *http.Request) {
	funnels, err := h.FunnelsUC.ListByUserEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.fail(w, r, "list funnels failed", err)
		return
	}
	writeJSON(w, http.StatusOK, FunnelListResponse{Funnels: funnels})
}

func (h *DashboardHandler) GetFunnel(w http.ResponseWriter, r *http.Request) {
	funnel, err := h.FunnelsUC.Get(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "fid"))
	if err != nil {
		h.fail(w, r, "get funnel failed", err)
		return
	}
	writeJSON(w, http.StatusOK, FunnelResponse{Funnel: funnel})
}

func (h *DashboardHandler) DeleteFunnel(w http.ResponseWriter, r *http.Request) {
	output, err := h.FunnelsUC.Delete(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "fid"))
	if err != nil {
		h.fail(w, r, "delete funnel failed", err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if usecase.IsTechnicalError(err) {
		logger.From(r.Context()).Error(msg, "path", r.URL.Path, "err", err)
	}
	writeUsecaseError(w, err, false)
}

// decodeJSON writes the 400 itself when the body is not the expected shape.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Error:   err.Error(),
			Code:    usecase.CodeValidation,
		})
		return false
	}
	return true
}
