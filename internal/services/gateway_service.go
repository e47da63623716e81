package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/draftsign/draftsign-api/internal/config"
	"github.com/draftsign/draftsign-api/internal/models"
)

// PaymentIntent carries the client-side credentials the gateway hands back
// for its hosted payment UI.
type PaymentIntent struct {
	IntentID     string  `json:"intent_id"`
	ClientSecret string  `json:"client_secret"`
	Amount       float64 `json:"amount"`
}

// PaymentGateway creates payment intents with the external gateway. The
// gateway reports results back through the signed webhook, never through
// this interface.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, doc *models.Document) (*PaymentIntent, error)
}

// GatewayService is the HTTP client for the payment gateway's intent API
type GatewayService struct {
	config     *config.Config
	httpClient *http.Client
}

// NewGatewayService creates a new gateway client
func NewGatewayService(cfg *config.Config) *GatewayService {
	return &GatewayService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateIntent registers the invoice's outstanding balance with the gateway
// and returns the credentials for its hosted payment page
func (s *GatewayService) CreateIntent(ctx context.Context, doc *models.Document) (*PaymentIntent, error) {
	if !doc.MayApplyPayment() {
		return nil, fmt.Errorf("%w: current status is %s", ErrInvalidState, doc.Status)
	}
	if doc.AmountDue <= 0 {
		return nil, fmt.Errorf("%w: nothing left to pay", ErrInvalidState)
	}
	if s.config.GatewayURL == "" || s.config.GatewayAPIKey == "" {
		return nil, fmt.Errorf("payment gateway is not configured")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"reference": fmt.Sprintf("doc_%d", doc.ID),
		"amount":    doc.AmountDue,
		"currency":  "usd",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.GatewayURL+"/v1/payment_intents", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.GatewayAPIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment gateway unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("payment gateway returned %d: %s", resp.StatusCode, body)
	}

	var intent PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	intent.Amount = doc.AmountDue

	return &intent, nil
}
