package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"

	"github.com/abasto-pos/abasto-pos/internal/sales"
)

func testNotifier(t *testing.T, handler http.HandlerFunc) *WhatsAppNotifier {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewWhatsAppNotifier(Config{
		BaseURL:       server.URL,
		Token:         "test-token",
		TemplateName:  "purchase_notice",
		CountryPrefix: "595",
		Timeout:       time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testSale() *sales.Sale {
	next := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	return &sales.Sale{
		ID:          1,
		PaymentType: sales.PaymentTypeCredit,
		Items: []sales.SaleItem{
			{ProductName: "Heladera", Quantity: 1, SalePrice: 600000},
			{ProductName: "Ventilador", Quantity: 2, SalePrice: 45000},
		},
		TotalAmount:     690000,
		Deposit:         90000,
		PendingAmount:   600000,
		Installment:     100000,
		NextPaymentDate: &next,
	}
}

func TestSendPurchaseNoticeBuildsTemplate(t *testing.T) {
	var captured messageRequest
	var auth string
	notifier := testNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/messages", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	})

	err := notifier.SendPurchaseNotice(context.Background(), "981555111", testSale())
	require.NoError(t, err)

	require.Equal(t, "Bearer test-token", auth)
	require.Equal(t, "whatsapp", captured.MessagingProduct)
	require.Equal(t, "595981555111", captured.To)
	require.Equal(t, "template", captured.Type)
	require.NotNil(t, captured.Template)
	require.Equal(t, "purchase_notice", captured.Template.Name)
	require.Equal(t, "es", captured.Template.Language.Code)

	require.Len(t, captured.Template.Components, 1)
	params := captured.Template.Components[0].Parameters
	require.Len(t, params, 7)
	require.Equal(t, "2", params[0].Text)
	require.Equal(t, "6,900.00", params[1].Text)
	require.Equal(t, "Heladera: 6,000.00 * 1; Ventilador: 450.00 * 2", params[2].Text)
	require.Equal(t, "900.00", params[3].Text)
	require.Equal(t, "6,000.00", params[4].Text)
	require.Equal(t, "1,000.00", params[5].Text)
	require.Equal(t, "15 de enero de 2024", params[6].Text)
}

func TestSendPurchaseNoticeSurfacesAPIError(t *testing.T) {
	notifier := testNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"template not found"}`, http.StatusBadRequest)
	})

	err := notifier.SendPurchaseNotice(context.Background(), "981555111", testSale())
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 400")
}

func TestSendTextMessage(t *testing.T) {
	var captured messageRequest
	notifier := testNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	})

	err := notifier.SendText(context.Background(), "981555111", "Su pago fue recibido")
	require.NoError(t, err)
	require.Equal(t, "text", captured.Type)
	require.NotNil(t, captured.Text)
	require.Equal(t, "Su pago fue recibido", captured.Text.Body)
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	notifier := testNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 6; i++ {
		_ = notifier.SendText(context.Background(), "981555111", "hola")
	}
	err := notifier.SendText(context.Background(), "981555111", "hola")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}
