package ledger

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes the partner ledger endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ledger", h.partnerLedger)
}

func (h *Handler) partnerLedger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := Filter{Search: q.Get("search")}
	if raw := q.Get("partner_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, fmt.Errorf("%w: invalid partner_id", shared.ErrValidation))
			return
		}
		f.PartnerID = id
	}
	rng, err := shared.ParseDateRange(q.Get("from"), q.Get("to"), q.Get("date"), q.Get("month"), q.Get("year"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	f.Range = rng

	entries, err := h.service.PartnerLedger(r.Context(), f)
	if err != nil {
		h.logger.Error("partner ledger", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": entries})
}
