package sales

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/abasto-pos/abasto-pos/internal/shared"
)

type memGuard struct {
	keys map[string]bool
}

func newMemGuard() *memGuard {
	return &memGuard{keys: map[string]bool{}}
}

func (g *memGuard) CheckAndInsert(_ context.Context, key, _ string) error {
	if g.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	g.keys[key] = true
	return nil
}

func (g *memGuard) Delete(_ context.Context, key string) error {
	delete(g.keys, key)
	return nil
}

func newTestRouter(guard IdempotencyGuard) (chi.Router, *memRepo) {
	repo := newMemRepo()
	svc := newTestService(repo, catalogWithWidget(), newFakeBook(testCustomer()), nil)
	handler := NewHandler(testLogger(), svc, guard)
	r := chi.NewRouter()
	r.Route("/sales", handler.MountRoutes)
	return r, repo
}

func postSale(t *testing.T, router chi.Router, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-Idempotency-Key", key)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

const cashSaleBody = `{
	"items": [{"product_id": 7, "stock_lot_id": 1, "quantity": 1}],
	"payment_type": "cash",
	"payment_method": "cash",
	"seller_id": 1
}`

const unknownProductBody = `{
	"items": [{"product_id": 99, "stock_lot_id": 1, "quantity": 1}],
	"payment_type": "cash",
	"payment_method": "cash",
	"seller_id": 1
}`

func TestCreateSaleIdempotencyKeyRejectsReplay(t *testing.T) {
	guard := newMemGuard()
	router, _ := newTestRouter(guard)

	rr := postSale(t, router, "counter-42", cashSaleBody)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postSale(t, router, "counter-42", cashSaleBody)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestCreateSaleRejectionReleasesIdempotencyKey(t *testing.T) {
	guard := newMemGuard()
	router, _ := newTestRouter(guard)

	rr := postSale(t, router, "counter-43", unknownProductBody)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, guard.keys)

	// The corrected resubmission reuses the same key and goes through.
	rr = postSale(t, router, "counter-43", cashSaleBody)
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestRecordPaymentOverHTTP(t *testing.T) {
	router, repo := newTestRouter(nil)

	rr := postSale(t, router, "", `{
		"items": [{"product_id": 7, "stock_lot_id": 1, "quantity": 1}],
		"customer_id": 3,
		"payment_type": "credit",
		"deposit": 1000,
		"payment_method": "cash",
		"seller_id": 1
	}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, repo.sales, 1)

	req := httptest.NewRequest(http.MethodPost, "/sales/1/payments", strings.NewReader(`{
		"amount": 833.33,
		"method": "transfer",
		"received_by": 1
	}`))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	stored := repo.sales[1]
	require.Len(t, stored.Payments, 2)
	require.Equal(t, stored.TotalAmount, stored.PaidAmount+stored.PendingAmount)
}
