package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestWorkerRouter(t *testing.T) {
	startedAt := time.Now().Add(-2 * time.Minute)
	r := newWorkerRouter(startedAt, zerolog.Nop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "running", status["status"])
	assert.GreaterOrEqual(t, status["uptime_seconds"].(float64), float64(120))
	assert.Equal(t, startedAt.UTC().Format(time.RFC3339), status["started_at"])
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("GPC_JWT_SECRET", "dev-secret")
	merchantID := uuid.New()

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"token", merchantID.String()})

	require.NoError(t, root.Execute())

	token := strings.TrimSpace(out.String())
	claims, err := service.NewJWTTokenService("dev-secret", time.Hour, "").Validate(token)
	require.NoError(t, err)
	assert.Equal(t, merchantID, claims.MerchantID)
	assert.Contains(t, errOut.String(), "expires")
}

func TestTokenCmd_Errors(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		args   []string
	}{
		{"bad merchant id", "dev-secret", []string{"token", "not-a-uuid"}},
		{"no secret", "", []string{"token", uuid.NewString()}},
		{"missing arg", "dev-secret", []string{"token"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GPC_JWT_SECRET", tt.secret)

			root := newRootCmd()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(tt.args)

			assert.Error(t, root.Execute())
		})
	}
}
