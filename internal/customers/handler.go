package customers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/abasto-pos/abasto-pos/internal/platform/httpx"
	"github.com/abasto-pos/abasto-pos/internal/shared"
)

// SnapshotSource provides a customer's credit sale snapshots. The sale
// ledger implements it; the indirection keeps this package free of a sales
// dependency.
type SnapshotSource interface {
	CreditSnapshots(ctx context.Context, customerID int64) ([]CreditSnapshot, error)
}

// Handler wires HTTP endpoints for customers.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	snapshots SnapshotSource
	validator *validator.Validate
}

// NewHandler constructs the customers handler.
func NewHandler(logger *slog.Logger, service *Service, snapshots SnapshotSource) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		snapshots: snapshots,
		validator: validator.New(),
	}
}

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{customerID}", h.handleGet)
	r.Put("/{customerID}", h.handleUpdate)
	r.Delete("/{customerID}", h.handleDelete)
	r.Get("/{customerID}/payment-info", h.handlePaymentInfo)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	customer, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.logger.Info("customer created", slog.Int64("customer_id", customer.ID))
	httpx.JSON(w, http.StatusCreated, newCustomerResponse(customer))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.customerID(w, r)
	if !ok {
		return
	}
	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newCustomerResponse(customer))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	limit, offset := shared.PageWindow(page, perPage)

	req := ListRequest{
		Search:            q.Get("search"),
		ActiveCreditsOnly: q.Get("active_credits") == "true",
		Limit:             limit,
		Offset:            offset,
	}
	customers, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	pagination := shared.NewPagination(page, limit, total)
	resp := listResponse{
		Customers:  make([]customerResponse, 0, len(customers)),
		Total:      pagination.Total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: pagination.TotalPages,
	}
	for i := range customers {
		resp.Customers = append(resp.Customers, newCustomerResponse(&customers[i]))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.customerID(w, r)
	if !ok {
		return
	}
	var req createCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}

	customer, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newCustomerResponse(customer))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.customerID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePaymentInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.customerID(w, r)
	if !ok {
		return
	}
	snaps, err := h.snapshots.CreditSnapshots(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	info, err := h.service.PaymentInfo(r.Context(), id, snaps)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newPaymentInfoResponse(info))
}

func (h *Handler) customerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "customer id must be numeric")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicatePhone):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		h.logger.Error("customer request failed", slog.Any("error", err))
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
