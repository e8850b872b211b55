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

// BalanceHandler serves the merchant's balances.
type BalanceHandler struct {
	svc ports.DashboardService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(svc ports.DashboardService) *BalanceHandler {
	return &BalanceHandler{svc: svc}
}

// List handles GET /api/v1/balances. A failed load still answers 200 with
// whatever the store holds and a warning.
func (h *BalanceHandler) List(c *gin.Context) {
	merchantID := middleware.MerchantID(c)
	if merchantID == uuid.Nil {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	balances, err := h.svc.LoadBalances(c.Request.Context(), merchantID)
	if err != nil && apperror.Is(err, apperror.CodeUnauth) {
		response.Error(c, err)
		return
	}

	response.Partial(c, dto.BalancesResponse{Balances: dto.NewBalanceViews(balances)}, err)
}
