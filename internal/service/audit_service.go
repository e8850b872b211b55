package service

import (
	"context"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/logger"

	"github.com/rs/zerolog"
)

const auditWriteTimeout = 5 * time.Second

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, audit logs are only written to the logger.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: logger.Component(log, "audit")}
}

// Log records an audit entry asynchronously. The write outlives the request,
// so it runs on a detached context with its own deadline.
func (s *auditService) Log(ctx context.Context, entry *domain.AuditLog) {
	bg := context.WithoutCancel(ctx)
	go func() {
		ev := s.log.Info().
			Str("action", string(entry.Action)).
			Str("resource_type", entry.ResourceType).
			Str("resource_id", entry.ResourceID).
			Str("ip", entry.IPAddress)
		if entry.MerchantID != nil {
			ev = ev.Str("merchant_id", entry.MerchantID.String())
		}
		ev.Msg("audit")

		if s.repo == nil {
			return
		}
		wctx, cancel := context.WithTimeout(bg, auditWriteTimeout)
		defer cancel()
		if err := s.repo.Create(wctx, entry); err != nil {
			s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to persist audit log")
		}
	}()
}
