package handler

import (
	"github.com/fezola/global-pay-connect-sub002/internal/adapter/http/dto"
	"github.com/fezola/global-pay-connect-sub002/internal/adapter/http/middleware"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"
	"github.com/fezola/global-pay-connect-sub002/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MerchantHandler handles merchant self-service endpoints.
type MerchantHandler struct {
	webhooks ports.WebhookSettingsService
}

// NewMerchantHandler creates a new merchant handler.
func NewMerchantHandler(webhooks ports.WebhookSettingsService) *MerchantHandler {
	return &MerchantHandler{webhooks: webhooks}
}

// GetWebhook handles GET /api/v1/merchant/webhook.
func (h *MerchantHandler) GetWebhook(c *gin.Context) {
	merchantID := middleware.MerchantID(c)
	if merchantID == uuid.Nil {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	settings, err := h.webhooks.GetWebhook(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWebhookResponse(settings))
}

// UpdateWebhook handles PUT /api/v1/merchant/webhook. The signing secret is
// returned once and cannot be read back.
func (h *MerchantHandler) UpdateWebhook(c *gin.Context) {
	merchantID := middleware.MerchantID(c)
	if merchantID == uuid.Nil {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.UpdateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	settings, err := h.webhooks.UpdateWebhook(c.Request.Context(), merchantID, req.WebhookURL)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWebhookResponse(settings))
}

func toWebhookResponse(s *ports.WebhookSettings) dto.WebhookSettingsResponse {
	return dto.WebhookSettingsResponse{
		WebhookURL: s.URL,
		Configured: s.Configured,
		Secret:     s.Secret,
	}
}
