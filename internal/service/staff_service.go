package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/itdesk/internal/auth"
	"github.com/spec-kit/itdesk/internal/config"
	"github.com/spec-kit/itdesk/internal/domain"
	"github.com/spec-kit/itdesk/internal/mailer"
	"github.com/spec-kit/itdesk/internal/repository"
	apperrors "github.com/spec-kit/itdesk/pkg/util"
)

// StaffService coordinates registration, passcode login and account
// administration for the staff directory.
type StaffService struct {
	staff    repository.StaffRepository
	otp      *OTPService
	mail     mailer.Mailer
	tokens   *auth.TokenManager
	denylist auth.TokenDenylist
	cfg      config.Config
	logger   *zap.Logger
}

// StaffDependencies bundles collaborators for the staff service.
type StaffDependencies struct {
	StaffRepo repository.StaffRepository
	OTP       *OTPService
	Mailer    mailer.Mailer
	Tokens    *auth.TokenManager
	Denylist  auth.TokenDenylist
	Logger    *zap.Logger
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Branch    domain.Branch
}

// ProfileUpdateInput describes a self-service profile update.
type ProfileUpdateInput struct {
	FirstName *string
	LastName  *string
	Branch    *domain.Branch
	Email     *string
}

// NewStaffService builds the service.
func NewStaffService(cfg config.Config, deps StaffDependencies) *StaffService {
	return &StaffService{
		staff:    deps.StaffRepo,
		otp:      deps.OTP,
		mail:     deps.Mailer,
		tokens:   deps.Tokens,
		denylist: deps.Denylist,
		cfg:      cfg,
		logger:   deps.Logger,
	}
}

// Register creates (or refreshes) an unverified account and issues a
// REGISTRATION passcode. Re-registering an unverified account is allowed
// and simply re-sends a fresh code.
func (s *StaffService) Register(ctx context.Context, input RegisterInput) (*domain.StaffAccount, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.FirstName == "" || input.LastName == "" {
		return nil, apperrors.NewValidationError("email, first_name and last_name required", nil)
	}
	if !domain.EmailInDomain(email, s.cfg.Staff.EmailDomain) {
		return nil, apperrors.NewDomainNotAllowed(s.cfg.Staff.EmailDomain)
	}
	branch := input.Branch
	if branch == "" {
		branch = domain.BranchHeadquarters
	}
	if !domain.ValidBranch(branch) {
		return nil, apperrors.NewValidationError("unknown branch", map[string]any{"branch": branch})
	}

	account, err := s.staff.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if account.Verified {
			return nil, apperrors.NewAlreadyRegistered(email)
		}
		account.FirstName = input.FirstName
		account.LastName = input.LastName
		account.Branch = branch
		if err := s.staff.Update(ctx, account); err != nil {
			return nil, apperrors.MapError(err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		account = &domain.StaffAccount{
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     email,
			Role:      domain.StaffRoleUser,
			Branch:    branch,
			Verified:  false,
			Active:    true,
		}
		if err := s.staff.Create(ctx, account); err != nil {
			// Two concurrent registrations can both miss the lookup and
			// race on the unique email index.
			if apperrors.IsUniqueViolation(err) {
				return nil, apperrors.NewAlreadyRegistered(email)
			}
			return nil, apperrors.MapError(err)
		}
	default:
		return nil, apperrors.MapError(err)
	}

	if err := s.issueAndDeliver(ctx, email, domain.PurposeRegistration); err != nil {
		return nil, err
	}
	return account, nil
}

// RequestLogin issues a LOGIN passcode for a verified account.
func (s *StaffService) RequestLogin(ctx context.Context, email string) error {
	account, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if !account.Verified || !account.Active {
		return apperrors.NewUnknownAccount()
	}
	return s.issueAndDeliver(ctx, account.Email, domain.PurposeLogin)
}

// ResendCode re-issues a passcode for the given purpose, subject to the
// same account checks as the original issuance.
func (s *StaffService) ResendCode(ctx context.Context, email string, purpose domain.PasscodePurpose) error {
	account, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if purpose == domain.PurposeLogin && !account.Verified {
		return apperrors.NewUnknownAccount()
	}
	return s.issueAndDeliver(ctx, account.Email, purpose)
}

// VerifyRegistration checks a REGISTRATION passcode and flips the account
// verified. The verifier's error is surfaced unchanged on failure.
func (s *StaffService) VerifyRegistration(ctx context.Context, email, code string) (*domain.StaffAccount, error) {
	account, err := s.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.otp.Verify(ctx, account.Email, domain.PurposeRegistration, code); err != nil {
		return nil, err
	}
	if err := s.staff.MarkVerified(ctx, account.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	account.Verified = true

	go func(to, name string) {
		if err := s.mail.SendWelcome(to, name); err != nil {
			s.logger.Error("welcome email failed", zap.String("email", to), zap.Error(err))
		}
	}(account.Email, account.FullName())

	return account, nil
}

// VerifyLogin checks a LOGIN passcode and issues the session credential
// pair for the account.
func (s *StaffService) VerifyLogin(ctx context.Context, email, code string) (*domain.StaffAccount, *auth.TokenPair, error) {
	account, err := s.lookup(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if !account.Verified || !account.Active {
		return nil, nil, apperrors.NewUnknownAccount()
	}
	if err := s.otp.Verify(ctx, account.Email, domain.PurposeLogin, code); err != nil {
		return nil, nil, err
	}
	pair, err := s.tokens.GeneratePair(account.ID, account.Role)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return account, pair, nil
}

// Refresh rotates a refresh token: the old token is denylisted and a new
// pair is issued.
func (s *StaffService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid refresh token")
	}
	denied, err := s.denylist.Denied(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if denied {
		return nil, apperrors.NewUnauthorized("refresh token revoked")
	}

	account, err := s.staff.GetByID(ctx, claims.StaffID)
	if err != nil {
		return nil, apperrors.NewUnauthorized("account not found")
	}
	if !account.Active {
		return nil, apperrors.NewForbidden("account deactivated")
	}

	if err := s.denylist.Deny(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, apperrors.MapError(err)
	}
	pair, err := s.tokens.GeneratePair(account.ID, account.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return pair, nil
}

// Logout revokes a refresh token until its natural expiry.
func (s *StaffService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return apperrors.NewUnauthorized("invalid refresh token")
	}
	if err := s.denylist.Deny(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// UpdateProfile applies a self-service update. Changing the email re-runs
// the domain check, unverifies the account and triggers a fresh
// REGISTRATION passcode to the new address.
func (s *StaffService) UpdateProfile(ctx context.Context, accountID string, input ProfileUpdateInput) (*domain.StaffAccount, error) {
	account, err := s.staff.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if input.FirstName != nil {
		account.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		account.LastName = *input.LastName
	}
	if input.Branch != nil {
		if !domain.ValidBranch(*input.Branch) {
			return nil, apperrors.NewValidationError("unknown branch", map[string]any{"branch": *input.Branch})
		}
		account.Branch = *input.Branch
	}

	emailChanged := false
	if input.Email != nil {
		newEmail := strings.ToLower(strings.TrimSpace(*input.Email))
		if newEmail != account.Email {
			if !domain.EmailInDomain(newEmail, s.cfg.Staff.EmailDomain) {
				return nil, apperrors.NewDomainNotAllowed(s.cfg.Staff.EmailDomain)
			}
			account.Email = newEmail
			account.Verified = false
			emailChanged = true
		}
	}

	if err := s.staff.Update(ctx, account); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewAlreadyRegistered(account.Email)
		}
		return nil, apperrors.MapError(err)
	}
	if emailChanged {
		if err := s.issueAndDeliver(ctx, account.Email, domain.PurposeRegistration); err != nil {
			return nil, err
		}
	}
	return account, nil
}

// GetAccount returns an account by id.
func (s *StaffService) GetAccount(ctx context.Context, id string) (*domain.StaffAccount, error) {
	account, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return account, nil
}

// ListAccounts returns accounts matching the filter. Admin surface.
func (s *StaffService) ListAccounts(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffAccount, error) {
	list, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// AdminUpdateAccount changes role and active flag. Admin surface.
func (s *StaffService) AdminUpdateAccount(ctx context.Context, id string, role *domain.StaffRole, active *bool) (*domain.StaffAccount, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != nil {
		if !domain.ValidStaffRole(*role) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *role})
		}
		account.Role = *role
	}
	if active != nil {
		account.Active = *active
	}
	if err := s.staff.Update(ctx, account); err != nil {
		return nil, apperrors.MapError(err)
	}
	return account, nil
}

func (s *StaffService) lookup(ctx context.Context, email string) (*domain.StaffAccount, error) {
	account, err := s.staff.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnknownAccount()
		}
		return nil, apperrors.MapError(err)
	}
	return account, nil
}

// issueAndDeliver generates a passcode and emails it. Delivery is
// best-effort: a failed send is logged and does not fail the request.
func (s *StaffService) issueAndDeliver(ctx context.Context, email string, purpose domain.PasscodePurpose) error {
	code, err := s.otp.Issue(ctx, email, purpose)
	if err != nil {
		return err
	}
	ttlMinutes := int(s.cfg.OTP.CodeTTL().Minutes())
	go func() {
		if err := s.mail.SendPasscode(email, code, purpose, ttlMinutes); err != nil {
			s.logger.Error("passcode email failed",
				zap.String("email", email),
				zap.String("purpose", string(purpose)),
				zap.Error(err))
		}
	}()
	return nil
}
