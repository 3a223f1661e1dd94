package sales

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/abasto-pos/abasto-pos/internal/credit"
	"github.com/abasto-pos/abasto-pos/internal/customers"
	"github.com/abasto-pos/abasto-pos/internal/money"
	"github.com/abasto-pos/abasto-pos/internal/platform/httpx"
	"github.com/abasto-pos/abasto-pos/internal/products"
	"github.com/abasto-pos/abasto-pos/internal/shared"
)

// IdempotencyGuard reserves request keys so a duplicate sale submission is
// rejected instead of booked twice.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Handler wires HTTP endpoints for the sale ledger.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validator   *validator.Validate
	idempotency IdempotencyGuard
}

// NewHandler constructs the sales handler. idempotency may be nil.
func NewHandler(logger *slog.Logger, service *Service, idempotency IdempotencyGuard) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		validator:   validator.New(),
		idempotency: idempotency,
	}
}

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{saleID}", h.handleGet)
	r.Post("/{saleID}/payments", h.handleRecordPayment)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	input, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
		return
	}

	idemKey := r.Header.Get("X-Idempotency-Key")
	if idemKey != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), idemKey, "sales"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate Request", "this sale was already submitted")
				return
			}
			h.logger.Error("idempotency check failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
	}

	result, err := h.service.CreateSale(r.Context(), input)
	if err != nil {
		// A rejected sale never consumed its key; release it so the
		// corrected resubmission can reuse it.
		h.releaseIdempotencyKey(r.Context(), idemKey)
		h.respondError(w, err)
		return
	}
	h.logger.Info("sale created",
		slog.Int64("sale_id", result.Sale.ID),
		slog.String("payment_type", string(result.Sale.PaymentType)),
		slog.String("total", result.Sale.TotalAmount.Format()))
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"sale":    newSaleResponse(result.Sale),
		"effects": result.Effects,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "sale id must be numeric")
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newSaleResponse(sale))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListRequest{}

	if s := q.Get("customer_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "customer_id must be numeric")
			return
		}
		req.CustomerID = &id
	}
	if s := q.Get("payment_type"); s != "" {
		pt := PaymentType(s)
		if pt != PaymentTypeCash && pt != PaymentTypeCredit {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "payment_type must be cash or credit")
			return
		}
		req.PaymentType = &pt
	}
	if s := q.Get("status"); s != "" {
		st := Status(s)
		if st != StatusPaid && st != StatusPending && st != StatusOverdue {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "status must be paid, pending or overdue")
			return
		}
		req.Status = &st
	}

	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	req.Limit, req.Offset = shared.PageWindow(page, perPage)

	sales, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	pagination := shared.NewPagination(page, req.Limit, total)
	resp := listResponse{
		Sales:      make([]saleResponse, 0, len(sales)),
		Total:      pagination.Total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: pagination.TotalPages,
	}
	for i := range sales {
		resp.Sales = append(resp.Sales, newSaleResponse(&sales[i]))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "sale id must be numeric")
		return
	}

	var req recordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	amount, err := money.FromFloat(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
		return
	}
	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}

	result, err := h.service.RecordPayment(r.Context(), id, amount, PaymentMethod(req.Method), req.ReceivedBy, date)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.logger.Info("payment recorded",
		slog.Int64("sale_id", id),
		slog.String("amount", amount.Format()),
		slog.String("status", string(result.Sale.Status)))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"sale":               newSaleResponse(result.Sale),
		"customer_aggregate": result.CustomerAggregate,
	})
}

func (h *Handler) releaseIdempotencyKey(ctx context.Context, key string) {
	if key == "" || h.idempotency == nil {
		return
	}
	if err := h.idempotency.Delete(ctx, key); err != nil {
		h.logger.Error("idempotency key release failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, customers.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrVersionConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrNoItems),
		errors.Is(err, ErrInvalidPaymentType),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrOverpayment),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, credit.ErrInvalidTerms),
		errors.Is(err, products.ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	default:
		h.logger.Error("sale request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldErrs[0].Error()
	}
	return err.Error()
}
