package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuditLog_PayoutCreated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	merchantID := uuid.New()

	done := make(chan struct{})
	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) {
			assert.Equal(t, domain.AuditActionCreatePayout, log.Action)
			assert.Equal(t, "payout", log.ResourceType)
			if assert.NotNil(t, log.MerchantID) {
				assert.Equal(t, merchantID, *log.MerchantID)
			}
			close(done)
		},
	)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/payouts", func(c *gin.Context) {
		c.Set(CtxMerchantID, merchantID)
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/payouts", nil))

	assert.Equal(t, http.StatusCreated, w.Code)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("audit not called")
	}
}

func TestAuditLog_SkipsReadsAndFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No expectations: Log must not be called.
	mockAudit := mocks.NewMockAuditService(ctrl)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.GET("/api/v1/payouts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})
	r.POST("/api/v1/payouts", func(c *gin.Context) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error_code": "PAYOUT_001"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payouts", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/payouts", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMapPathToAction(t *testing.T) {
	tests := []struct {
		path     string
		method   string
		action   domain.AuditAction
		resource string
	}{
		{"/api/v1/payouts", "POST", domain.AuditActionCreatePayout, "payout"},
		{"/api/v1/security/2fa/setup", "POST", domain.AuditActionSetup2FA, "merchant"},
		{"/api/v1/hooks/changes", "POST", domain.AuditActionIngestChange, "change_event"},
		{"/api/v1/merchant/webhook", "PUT", domain.AuditActionUpdateWebhook, "merchant"},
		{"/api/v1/merchant/webhook", "GET", "", ""},
		{"/api/v1/payouts", "GET", "", ""},
		{"/unknown", "POST", "", ""},
	}

	for _, tc := range tests {
		action, resource := mapPathToAction(tc.path, tc.method)
		assert.Equal(t, tc.action, action, "path=%s method=%s", tc.path, tc.method)
		assert.Equal(t, tc.resource, resource, "path=%s method=%s", tc.path, tc.method)
	}
}
