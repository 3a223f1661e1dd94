// Package notify dispatches customer-facing messages through the WhatsApp
// Cloud API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/abasto-pos/abasto-pos/internal/sales"
)

// Config carries the Cloud API settings.
type Config struct {
	// BaseURL is the phone-number endpoint, e.g.
	// https://graph.facebook.com/v17.0/<phone_number_id>.
	BaseURL string
	Token   string
	// TemplateName is the approved purchase-notice template.
	TemplateName string
	// CountryPrefix is prepended to stored phone numbers, which are kept
	// without country code.
	CountryPrefix string
	Timeout       time.Duration
}

// WhatsAppNotifier implements the sale ledger's Notifier contract against the
// WhatsApp Cloud API. A circuit breaker keeps a flapping gateway from eating
// the notification time budget of every sale.
type WhatsAppNotifier struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewWhatsAppNotifier constructs the notifier with a bounded HTTP client.
func NewWhatsAppNotifier(cfg Config, logger *slog.Logger) *WhatsAppNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "whatsapp",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	})
	return &WhatsAppNotifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templatePayload struct {
	Name       string              `json:"name"`
	Components []templateComponent `json:"components"`
	Language   struct {
		Code string `json:"code"`
	} `json:"language"`
}

type messageRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *textPayload     `json:"text,omitempty"`
	Template         *templatePayload `json:"template,omitempty"`
}

type textPayload struct {
	Body string `json:"body"`
}

// SendPurchaseNotice sends the purchase-notice template filled with the
// sale's amounts and first due date.
func (n *WhatsAppNotifier) SendPurchaseNotice(ctx context.Context, phone string, sale *sales.Sale) error {
	productList := ""
	for i, item := range sale.Items {
		if i > 0 {
			productList += "; "
		}
		productList += fmt.Sprintf("%s: %s * %d", item.ProductName, item.SalePrice.Format(), item.Quantity)
	}
	firstPayment := ""
	if sale.NextPaymentDate != nil {
		firstPayment = LongDate(*sale.NextPaymentDate)
	}

	template := &templatePayload{
		Name: n.cfg.TemplateName,
		Components: []templateComponent{{
			Type: "body",
			Parameters: []templateParameter{
				{Type: "text", Text: fmt.Sprintf("%d", len(sale.Items))},
				{Type: "text", Text: sale.TotalAmount.Format()},
				{Type: "text", Text: productList},
				{Type: "text", Text: sale.Deposit.Format()},
				{Type: "text", Text: sale.PendingAmount.Format()},
				{Type: "text", Text: sale.Installment.Format()},
				{Type: "text", Text: firstPayment},
			},
		}},
	}
	template.Language.Code = "es"

	req := messageRequest{
		MessagingProduct: "whatsapp",
		To:               n.cfg.CountryPrefix + phone,
		Type:             "template",
		Template:         template,
	}
	return n.post(ctx, req)
}

// SendText sends a free-form text message.
func (n *WhatsAppNotifier) SendText(ctx context.Context, phone, message string) error {
	req := messageRequest{
		MessagingProduct: "whatsapp",
		To:               n.cfg.CountryPrefix + phone,
		Type:             "text",
		Text:             &textPayload{Body: message},
	}
	return n.post(ctx, req)
}

func (n *WhatsAppNotifier) post(ctx context.Context, payload messageRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: encode message: %w", err)
	}

	_, err = n.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.BaseURL+"/messages", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+n.cfg.Token)

		resp, err := n.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return nil, fmt.Errorf("notify: cloud api status %d: %s", resp.StatusCode, detail)
		}
		return nil, nil
	})
	if err != nil {
		n.logger.Warn("whatsapp send failed", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	return nil
}
