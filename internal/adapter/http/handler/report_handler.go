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

// ReportHandler serves aggregated payout reports.
type ReportHandler struct {
	reports ports.ReportingService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports ports.ReportingService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// PayoutSummary handles GET /api/v1/payouts/summary?period=day|week|month|all.
func (h *ReportHandler) PayoutSummary(c *gin.Context) {
	merchantID := middleware.MerchantID(c)
	if merchantID == uuid.Nil {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	report, err := h.reports.PayoutSummary(c.Request.Context(), merchantID, c.DefaultQuery("period", "all"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewPayoutSummaryResponse(report))
}
