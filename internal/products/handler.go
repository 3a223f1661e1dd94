package products

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abasto-pos/abasto-pos/internal/platform/httpx"
	"github.com/abasto-pos/abasto-pos/internal/shared"
)

// Handler wires HTTP endpoints for the catalogue.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the products handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalogue routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
}

type lotResponse struct {
	ID               int64  `json:"id"`
	BuyPrice         int64  `json:"buy_price"`
	UnitsAvailable   int    `json:"units_available"`
	UnitsSold        int    `json:"units_sold"`
	Utility          int64  `json:"utility"`
	UtilityFormatted string `json:"utility_formatted"`
}

type productResponse struct {
	ID                   int64         `json:"id"`
	Name                 string        `json:"name"`
	Code                 string        `json:"code"`
	SellPriceCash        int64         `json:"sell_price_cash"`
	SellPriceCredit      int64         `json:"sell_price_credit"`
	CashPriceFormatted   string        `json:"cash_price_formatted"`
	CreditPriceFormatted string        `json:"credit_price_formatted"`
	IsActive             bool          `json:"is_active"`
	Lots                 []lotResponse `json:"lots"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

func newProductResponse(p *Product) productResponse {
	resp := productResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		Code:                 p.Code,
		SellPriceCash:        int64(p.SellPriceCash),
		SellPriceCredit:      int64(p.SellPriceCredit),
		CashPriceFormatted:   p.SellPriceCash.Format(),
		CreditPriceFormatted: p.SellPriceCredit.Format(),
		IsActive:             p.IsActive,
		Lots:                 make([]lotResponse, 0, len(p.Lots)),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	for _, lot := range p.Lots {
		resp.Lots = append(resp.Lots, lotResponse{
			ID:               lot.ID,
			BuyPrice:         int64(lot.BuyPrice),
			UnitsAvailable:   lot.UnitsAvailable,
			UnitsSold:        lot.UnitsSold,
			Utility:          int64(lot.Utility),
			UtilityFormatted: lot.Utility.Format(),
		})
	}
	return resp
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	limit, offset := shared.PageWindow(page, perPage)

	products, total, err := h.service.List(r.Context(), ListRequest{
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.logger.Error("catalogue listing failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	pagination := shared.NewPagination(page, limit, total)
	items := make([]productResponse, 0, len(products))
	for i := range products {
		items = append(items, newProductResponse(&products[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"products":    items,
		"total":       pagination.Total,
		"page":        pagination.Page,
		"per_page":    pagination.PerPage,
		"total_pages": pagination.TotalPages,
	})
}
