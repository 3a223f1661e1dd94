package credits

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abasto-pos/abasto-pos/internal/credit"
	"github.com/abasto-pos/abasto-pos/internal/platform/httpx"
	"github.com/abasto-pos/abasto-pos/internal/sales"
)

// Handler wires HTTP endpoints for the credit portfolio.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the credits handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers portfolio routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleListing)
}

type listingItemResponse struct {
	ListingItem
	PendingFormatted  string `json:"pending_formatted"`
	PaidFormatted     string `json:"paid_formatted"`
	InterestFormatted string `json:"interest_formatted"`
}

func (h *Handler) handleListing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := ListingFilters{
		Search:      q.Get("search"),
		OverdueOnly: q.Get("overdue") == "true",
	}
	if s := q.Get("score_label"); s != "" {
		label := credit.ScoreLabel(s)
		filters.ScoreLabel = &label
	}
	if s := q.Get("status"); s != "" {
		st := sales.Status(s)
		if st != sales.StatusPending && st != sales.StatusOverdue {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "status must be pending or overdue")
			return
		}
		filters.CreditStatus = &st
	}
	if s := q.Get("overdue_by"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "overdue_by must be a non-negative integer")
			return
		}
		filters.MinOverdueBy = n
	}

	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PerPage <= 0 || filters.PerPage > 200 {
		filters.PerPage = 50
	}

	listing, err := h.service.BuildListing(r.Context(), filters)
	if err != nil {
		if errors.Is(err, ErrUnknownScoreLabel) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
			return
		}
		h.logger.Error("portfolio listing failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	items := make([]listingItemResponse, 0, len(listing.Items))
	for _, item := range listing.Items {
		items = append(items, listingItemResponse{
			ListingItem:       item,
			PendingFormatted:  item.PendingAmount.Format(),
			PaidFormatted:     item.PaidAmount.Format(),
			InterestFormatted: item.InterestAccumulated.Format(),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": listing.Total,
		"page":  filters.Page,
	})
}
