package handler

import (
	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"
	"github.com/fezola/global-pay-connect-sub002/pkg/response"

	"github.com/gin-gonic/gin"
)

// HookHandler receives row changes pushed by the platform.
type HookHandler struct {
	ingest ports.ChangeIngestService
}

// NewHookHandler creates a new HookHandler.
func NewHookHandler(ingest ports.ChangeIngestService) *HookHandler {
	return &HookHandler{ingest: ingest}
}

// IngestChange handles POST /api/v1/hooks/changes.
func (h *HookHandler) IngestChange(c *gin.Context) {
	var event domain.RawChangeEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.ingest.Ingest(c.Request.Context(), event); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"accepted": true})
}
