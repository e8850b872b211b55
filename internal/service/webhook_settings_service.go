package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type webhookSettingsService struct {
	merchantRepo ports.MerchantRepository
	encSvc       ports.EncryptionService
	log          zerolog.Logger
}

// NewWebhookSettingsService creates a new webhook settings service.
func NewWebhookSettingsService(
	merchantRepo ports.MerchantRepository,
	encSvc ports.EncryptionService,
	log zerolog.Logger,
) ports.WebhookSettingsService {
	return &webhookSettingsService{
		merchantRepo: merchantRepo,
		encSvc:       encSvc,
		log:          log,
	}
}

func (s *webhookSettingsService) GetWebhook(ctx context.Context, merchantID uuid.UUID) (*ports.WebhookSettings, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.ErrFetch("merchant", err)
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}

	return &ports.WebhookSettings{
		URL:        merchant.WebhookURL,
		Configured: merchant.HasWebhook(),
	}, nil
}

func (s *webhookSettingsService) UpdateWebhook(ctx context.Context, merchantID uuid.UUID, url *string) (*ports.WebhookSettings, error) {
	if url == nil || *url == "" {
		if err := s.merchantRepo.UpdateWebhook(ctx, merchantID, nil, ""); err != nil {
			return nil, s.updateErr(err)
		}
		s.log.Info().Str("merchant_id", merchantID.String()).Msg("webhook disabled")
		return &ports.WebhookSettings{}, nil
	}

	secret, err := generateKey("whsec_", 24)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate webhook secret: %w", err))
	}
	secretEnc, err := s.encSvc.Encrypt(secret)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(err)
	}

	if err := s.merchantRepo.UpdateWebhook(ctx, merchantID, url, secretEnc); err != nil {
		return nil, s.updateErr(err)
	}
	s.log.Info().Str("merchant_id", merchantID.String()).Msg("webhook secret rotated")

	return &ports.WebhookSettings{
		URL:        url,
		Configured: true,
		Secret:     secret,
	}, nil
}

func (s *webhookSettingsService) updateErr(err error) error {
	if errors.Is(err, domain.ErrMerchantNotFound) {
		return apperror.ErrNotFound("merchant")
	}
	return apperror.InternalError(err)
}

func generateKey(prefix string, length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(b), nil
}
