package handler

import (
	"context"
	"io"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/adapter/http/dto"
	"github.com/fezola/global-pay-connect-sub002/internal/adapter/http/middleware"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"
	"github.com/fezola/global-pay-connect-sub002/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultHeartbeat = 25 * time.Second

// StreamHandler pushes live session snapshots as server-sent events.
type StreamHandler struct {
	svc       ports.DashboardService
	heartbeat time.Duration
	log       zerolog.Logger
}

// NewStreamHandler creates a new StreamHandler. A zero heartbeat uses the
// default interval.
func NewStreamHandler(svc ports.DashboardService, heartbeat time.Duration, log zerolog.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &StreamHandler{svc: svc, heartbeat: heartbeat, log: log}
}

// Stream handles GET /api/v1/stream. The session lives as long as the
// connection; a disconnect cancels it.
func (h *StreamHandler) Stream(c *gin.Context) {
	merchantID := middleware.MerchantID(c)
	if merchantID == uuid.Nil {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates, err := h.svc.OpenStream(ctx, merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	log := h.log.With().Str("merchant_id", merchantID.String()).Logger()
	log.Debug().Msg("stream opened")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case u, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent(string(u.Kind), dto.NewStreamEvent(u, time.Now()))
			return true
		case <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"ts": time.Now().Unix()})
			return true
		}
	})

	log.Debug().Msg("stream closed")
}
