package runshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"designreport/internal/domain/runs"
	"designreport/internal/transport/http/api"
	"designreport/internal/transport/http/middleware"
	"designreport/internal/transport/http/shared"
)

type Handler struct {
	Runs *runs.Service
}

func NewHandler(service *runs.Service) *Handler {
	return &Handler{Runs: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/runs", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 20, 100)
	list, err := h.Runs.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "server_error", "failed to list runs", requestID)
		return
	}
	if list == nil {
		list = []runs.Run{}
	}
	api.Success(w, map[string]any{"runs": list, "limit": page.Limit, "offset": page.Offset}, requestID)
}
