package service

import (
	"context"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"

	"github.com/google/uuid"
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	payoutRepo ports.PayoutRepository
	now        func() time.Time
}

// NewReportingService creates a new reporting service.
func NewReportingService(payoutRepo ports.PayoutRepository) ports.ReportingService {
	return &reportingService{
		payoutRepo: payoutRepo,
		now:        time.Now,
	}
}

// PayoutSummary returns aggregated payout stats for the merchant.
func (s *reportingService) PayoutSummary(ctx context.Context, merchantID uuid.UUID, period string) (*ports.PayoutReport, error) {
	var since *time.Time

	switch period {
	case "day":
		t := s.now().AddDate(0, 0, -1)
		since = &t
	case "week":
		t := s.now().AddDate(0, 0, -7)
		since = &t
	case "month":
		t := s.now().AddDate(0, -1, 0)
		since = &t
	case "all", "":
		period = "all"
	default:
		return nil, apperror.Validation("invalid period: must be day, week, month, or all")
	}

	summaries, err := s.payoutRepo.Summarize(ctx, merchantID, since)
	if err != nil {
		return nil, apperror.ErrFetch("payout summary", err)
	}

	return &ports.PayoutReport{
		Period:     period,
		Since:      since,
		Currencies: summaries,
	}, nil
}
