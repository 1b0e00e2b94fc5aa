package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/itdesk/internal/auth"
	"github.com/spec-kit/itdesk/internal/config"
	"github.com/spec-kit/itdesk/internal/domain"
	"github.com/spec-kit/itdesk/internal/observability"
	"github.com/spec-kit/itdesk/internal/repository"
	apperrors "github.com/spec-kit/itdesk/pkg/util"
)

// OTPService generates, stores and verifies one-time passcodes.
type OTPService struct {
	passcodes repository.PasscodeRepository
	cfg       config.OTPConfig
	metrics   *observability.Metrics
}

// NewOTPService builds the service.
func NewOTPService(passcodes repository.PasscodeRepository, cfg config.OTPConfig, metrics *observability.Metrics) *OTPService {
	return &OTPService{passcodes: passcodes, cfg: cfg, metrics: metrics}
}

// Issue generates a fresh passcode for the (email, purpose) pair,
// invalidates any outstanding codes for the same pair and persists only
// the bcrypt hash. The plaintext code is returned for delivery and never
// stored. Last-issued-wins: concurrent issuance leaves exactly the newest
// code verifiable.
func (s *OTPService) Issue(ctx context.Context, email string, purpose domain.PasscodePurpose) (string, error) {
	if !domain.ValidPurpose(purpose) {
		return "", apperrors.NewValidationError("unknown passcode purpose", map[string]any{"purpose": purpose})
	}

	code, err := auth.GeneratePasscode(s.cfg.CodeLength)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	hash, err := auth.HashPasscode(code, s.cfg.BcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	if err := s.passcodes.InvalidateOutstanding(ctx, email, purpose); err != nil {
		return "", apperrors.MapError(err)
	}

	record := &domain.Passcode{
		Email:     email,
		CodeHash:  hash,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(s.cfg.CodeTTL()),
	}
	if err := s.passcodes.Create(ctx, record); err != nil {
		return "", apperrors.MapError(err)
	}
	s.metrics.RecordPasscodeIssued()
	return code, nil
}

// Verify checks code against the latest record for the pair. Failure modes:
// CODE_MISMATCH when no record exists or the code does not match the latest
// one, CODE_CONSUMED on reuse, CODE_EXPIRED past the validity window.
// Success consumes the record; the consume is an atomic single-row update,
// so a concurrent duplicate verification loses and reports CODE_CONSUMED.
func (s *OTPService) Verify(ctx context.Context, email string, purpose domain.PasscodePurpose, code string) error {
	record, err := s.passcodes.Latest(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.RecordPasscodeCheck("mismatch")
			return apperrors.NewCodeMismatch()
		}
		return apperrors.MapError(err)
	}

	if err := auth.ComparePasscode(record.CodeHash, code); err != nil {
		s.metrics.RecordPasscodeCheck("mismatch")
		return apperrors.NewCodeMismatch()
	}
	if record.Consumed() {
		s.metrics.RecordPasscodeCheck("consumed")
		return apperrors.NewCodeConsumed()
	}
	if record.Expired(time.Now()) {
		s.metrics.RecordPasscodeCheck("expired")
		return apperrors.NewCodeExpired()
	}

	if err := s.passcodes.MarkConsumed(ctx, record.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.RecordPasscodeCheck("consumed")
			return apperrors.NewCodeConsumed()
		}
		return apperrors.MapError(err)
	}
	s.metrics.RecordPasscodeCheck("ok")
	return nil
}
