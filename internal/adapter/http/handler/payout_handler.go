package handler

import (
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/adapter/http/dto"
	"github.com/fezola/global-pay-connect-sub002/internal/adapter/http/middleware"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"
	"github.com/fezola/global-pay-connect-sub002/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PayoutHandler handles payout list and creation.
type PayoutHandler struct {
	svc ports.DashboardService
	now func() time.Time
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(svc ports.DashboardService) *PayoutHandler {
	return &PayoutHandler{svc: svc, now: time.Now}
}

// List handles GET /api/v1/payouts.
func (h *PayoutHandler) List(c *gin.Context) {
	merchantID := middleware.MerchantID(c)
	if merchantID == uuid.Nil {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	payouts, err := h.svc.LoadPayouts(c.Request.Context(), merchantID)
	if err != nil && apperror.Is(err, apperror.CodeUnauth) {
		response.Error(c, err)
		return
	}

	response.Partial(c, dto.PayoutsResponse{Payouts: dto.NewPayoutViews(payouts, h.now())}, err)
}

// Create handles POST /api/v1/payouts. The caller's bearer token is forwarded
// to the payout function.
func (h *PayoutHandler) Create(c *gin.Context) {
	merchantID := middleware.MerchantID(c)
	if merchantID == uuid.Nil {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.svc.CreatePayout(c.Request.Context(), merchantID, middleware.BearerToken(c), req.ToDomain())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewCreatePayoutResponse(result, h.now()))
}
