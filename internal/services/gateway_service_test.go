package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftsign/draftsign-api/internal/config"
	"github.com/draftsign/draftsign-api/internal/models"
)

func payableInvoice(id uint, due float64) *models.Document {
	return &models.Document{
		ID:        id,
		Type:      models.DocTypeInvoice,
		Status:    models.StatusSent,
		Total:     due,
		AmountDue: due,
	}
}

func TestGatewayService_CreateIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the outstanding balance and returns credentials", func(t *testing.T) {
		var gotAuth string
		var gotBody map[string]interface{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{
				"intent_id":     "pi_123",
				"client_secret": "pi_123_secret",
			})
		}))
		defer srv.Close()

		service := NewGatewayService(&config.Config{GatewayURL: srv.URL, GatewayAPIKey: "sk_test"})
		intent, err := service.CreateIntent(ctx, payableInvoice(7, 300))

		require.NoError(t, err)
		assert.Equal(t, "pi_123", intent.IntentID)
		assert.Equal(t, "pi_123_secret", intent.ClientSecret)
		assert.Equal(t, 300.0, intent.Amount)
		assert.Equal(t, "Bearer sk_test", gotAuth)
		assert.Equal(t, "doc_7", gotBody["reference"])
		assert.Equal(t, 300.0, gotBody["amount"])
	})

	t.Run("rejects contracts", func(t *testing.T) {
		service := NewGatewayService(&config.Config{GatewayURL: "http://gateway", GatewayAPIKey: "sk"})
		doc := payableInvoice(7, 300)
		doc.Type = models.DocTypeContract

		_, err := service.CreateIntent(ctx, doc)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("rejects settled invoices", func(t *testing.T) {
		service := NewGatewayService(&config.Config{GatewayURL: "http://gateway", GatewayAPIKey: "sk"})
		doc := payableInvoice(7, 0)

		_, err := service.CreateIntent(ctx, doc)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("rejects cancelled invoices", func(t *testing.T) {
		service := NewGatewayService(&config.Config{GatewayURL: "http://gateway", GatewayAPIKey: "sk"})
		doc := payableInvoice(7, 300)
		doc.Status = models.StatusCancelled

		_, err := service.CreateIntent(ctx, doc)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("fails when the gateway is not configured", func(t *testing.T) {
		service := NewGatewayService(&config.Config{})
		_, err := service.CreateIntent(ctx, payableInvoice(7, 300))
		assert.Error(t, err)
	})

	t.Run("surfaces gateway errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		service := NewGatewayService(&config.Config{GatewayURL: srv.URL, GatewayAPIKey: "sk"})
		_, err := service.CreateIntent(ctx, payableInvoice(7, 300))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})
}
