package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTTokenService implements ports.TokenService using HS256 JWT.
// Platform session tokens carry the merchant in a merchant_id claim; tokens
// without one fall back to the subject.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
	}
}

// Generate creates a signed JWT for the given merchant.
func (s *JWTTokenService) Generate(merchantID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := jwt.MapClaims{
		"sub":         merchantID.String(),
		"merchant_id": merchantID.String(),
		"iat":         now.Unix(),
		"exp":         expiresAt.Unix(),
	}
	if s.issuer != "" {
		claims["iss"] = s.issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Validate parses and validates a JWT token, returning the claims.
func (s *JWTTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	raw, _ := claims["merchant_id"].(string)
	if raw == "" {
		raw, _ = claims["sub"].(string)
	}
	if raw == "" {
		return nil, errors.New("missing merchant claim")
	}

	merchantID, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid merchant ID in token: %w", err)
	}
	if merchantID == uuid.Nil {
		return nil, errors.New("nil merchant ID in token")
	}

	return &ports.TokenClaims{MerchantID: merchantID}, nil
}
