package handler

import (
	"github.com/fezola/global-pay-connect-sub002/internal/adapter/http/dto"
	"github.com/fezola/global-pay-connect-sub002/internal/adapter/http/middleware"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"
	"github.com/fezola/global-pay-connect-sub002/pkg/response"

	"github.com/gin-gonic/gin"
)

// SecurityHandler proxies account security functions.
type SecurityHandler struct {
	twoFactor ports.TwoFactorFunction
}

// NewSecurityHandler creates a new SecurityHandler.
func NewSecurityHandler(twoFactor ports.TwoFactorFunction) *SecurityHandler {
	return &SecurityHandler{twoFactor: twoFactor}
}

// Setup2FA handles POST /api/v1/security/2fa/setup.
func (h *SecurityHandler) Setup2FA(c *gin.Context) {
	bearer := middleware.BearerToken(c)
	if bearer == "" {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	setup, err := h.twoFactor.Setup(c.Request.Context(), bearer)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TwoFactorSetupResponse{
		Success:     setup.Success,
		Secret:      setup.Secret,
		QRCodeURL:   setup.QRCodeURL,
		BackupCodes: setup.BackupCodes,
	})
}
