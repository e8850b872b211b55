package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// It maps HTTP methods and paths to audit actions.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		action, resourceType := mapPathToAction(c.Request.URL.Path, c.Request.Method)
		if action == "" {
			return
		}

		var merchantID *uuid.UUID
		if id := MerchantID(c); id != uuid.Nil {
			merchantID = &id
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": c.GetString("request_id"),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			MerchantID:   merchantID,
			Action:       action,
			ResourceType: resourceType,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func mapPathToAction(path, method string) (domain.AuditAction, string) {
	switch {
	case path == "/api/v1/payouts" && method == http.MethodPost:
		return domain.AuditActionCreatePayout, "payout"
	case path == "/api/v1/security/2fa/setup" && method == http.MethodPost:
		return domain.AuditActionSetup2FA, "merchant"
	case path == "/api/v1/merchant/webhook" && method == http.MethodPut:
		return domain.AuditActionUpdateWebhook, "merchant"
	case path == "/api/v1/hooks/changes" && method == http.MethodPost:
		return domain.AuditActionIngestChange, "change_event"
	}
	return "", ""
}
