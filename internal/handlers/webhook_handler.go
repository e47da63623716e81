package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/draftsign/draftsign-api/internal/config"
	"github.com/draftsign/draftsign-api/internal/metrics"
	"github.com/draftsign/draftsign-api/internal/services"
	"github.com/draftsign/draftsign-api/internal/webhooks"
	"github.com/draftsign/draftsign-api/pkg/logger"
)

// WebhookHandler receives payment gateway callbacks
type WebhookHandler struct {
	settleService *services.SettleService
	cfg           *config.Config
}

func NewWebhookHandler(settleService *services.SettleService, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{settleService: settleService, cfg: cfg}
}

// @Summary Payment Gateway Webhook
// @Description Receive a signed payment result from the gateway
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /webhooks/gateway [post]
func (h *WebhookHandler) Gateway(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}

	// The secret config is comma-separated so a retiring secret stays
	// accepted during rotation.
	sig := c.GetHeader(webhooks.SignatureHeader)
	secrets := strings.Split(h.cfg.GatewayWebhookSecret, ",")
	if err := webhooks.VerifyAny(secrets, sig, body, time.Now(), webhooks.DefaultTolerance); err != nil {
		logger.Warn(fmt.Sprintf("Rejected gateway webhook: %v", err))
		metrics.WebhooksTotal.WithLabelValues("bad_signature").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var evt services.GatewayEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}
	if evt.TransactionID == "" || evt.DocumentID == 0 || evt.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	if err := h.settleService.HandleGatewayEvent(c.Request.Context(), evt); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
