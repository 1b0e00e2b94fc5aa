package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/itdesk/internal/api/dto"
	"github.com/spec-kit/itdesk/internal/auth"
	"github.com/spec-kit/itdesk/internal/domain"
	"github.com/spec-kit/itdesk/internal/repository"
	"github.com/spec-kit/itdesk/internal/service"
	apperrors "github.com/spec-kit/itdesk/pkg/util"
)

// StaffHandler exposes registration, passcode auth and account endpoints.
type StaffHandler struct {
	staff *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{staff: staffService}
}

// Register handles POST /staff/register.
func (h *StaffHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.FirstName == "" || req.LastName == "" {
		return apperrors.NewValidationError("email, first_name, last_name required", nil)
	}

	account, err := h.staff.Register(c.Context(), service.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Branch:    req.Branch,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": fiber.Map{
			"account": staffResponse(account),
			"status":  "otp_sent",
		},
	})
}

// VerifyOTP handles POST /staff/verify-otp. Purpose defaults to
// REGISTRATION; LOGIN verification additionally returns a credential pair.
func (h *StaffHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Code == "" {
		return apperrors.NewValidationError("email and code required", nil)
	}

	purpose := req.Purpose
	if purpose == "" {
		purpose = domain.PurposeRegistration
	}

	if purpose == domain.PurposeLogin {
		account, pair, err := h.staff.VerifyLogin(c.Context(), req.Email, req.Code)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"data": fiber.Map{
				"account": staffResponse(account),
				"auth":    authResponse(pair),
			},
		})
	}

	account, err := h.staff.VerifyRegistration(c.Context(), req.Email, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"account": staffResponse(account)}})
}

// RequestLogin handles POST /staff/login/request.
func (h *StaffHandler) RequestLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	if err := h.staff.RequestLogin(c.Context(), req.Email); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"status": "otp_sent"}})
}

// VerifyLogin handles POST /staff/login/verify.
func (h *StaffHandler) VerifyLogin(c *fiber.Ctx) error {
	var req dto.LoginVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Code == "" {
		return apperrors.NewValidationError("email and code required", nil)
	}
	account, pair, err := h.staff.VerifyLogin(c.Context(), req.Email, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"account": staffResponse(account),
			"auth":    authResponse(pair),
		},
	})
}

// ResendOTP handles POST /staff/resend-otp.
func (h *StaffHandler) ResendOTP(c *fiber.Ctx) error {
	var req dto.ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	purpose := req.Purpose
	if purpose == "" {
		purpose = domain.PurposeRegistration
	}
	if err := h.staff.ResendCode(c.Context(), req.Email, purpose); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"status": "otp_sent"}})
}

// Refresh handles POST /auth/refresh.
func (h *StaffHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RefreshToken == "" {
		return apperrors.NewValidationError("refresh_token required", nil)
	}
	pair, err := h.staff.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"auth": authResponse(pair)}})
}

// Logout handles POST /auth/logout.
func (h *StaffHandler) Logout(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RefreshToken == "" {
		return apperrors.NewValidationError("refresh_token required", nil)
	}
	if err := h.staff.Logout(c.Context(), req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "logged_out"}})
}

// Me handles GET /staff/me.
func (h *StaffHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": staffResponse(principal.Account)})
}

// UpdateMe handles PUT /staff/me.
func (h *StaffHandler) UpdateMe(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	account, err := h.staff.UpdateProfile(c.Context(), principal.Account.ID, service.ProfileUpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Branch:    req.Branch,
		Email:     req.Email,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(account)})
}

// ListAccounts handles GET /staff/accounts (admin).
func (h *StaffHandler) ListAccounts(c *fiber.Ctx) error {
	filter := parseStaffFilter(c)
	list, err := h.staff.ListAccounts(c.Context(), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, 0, len(list))
	for i := range list {
		resp = append(resp, staffResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetAccount handles GET /staff/accounts/:id (admin).
func (h *StaffHandler) GetAccount(c *fiber.Ctx) error {
	account, err := h.staff.GetAccount(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(account)})
}

// UpdateAccount handles PUT /staff/accounts/:id (admin).
func (h *StaffHandler) UpdateAccount(c *fiber.Ctx) error {
	var req dto.AccountAdminUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	account, err := h.staff.AdminUpdateAccount(c.Context(), c.Params("id"), req.Role, req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(account)})
}

func parseStaffFilter(c *fiber.Ctx) repository.StaffFilter {
	var filter repository.StaffFilter
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.StaffRole(roleStr)
		filter.Role = &role
	}
	if branchStr := c.Query("branch"); branchStr != "" {
		branch := domain.Branch(branchStr)
		filter.Branch = &branch
	}
	if verified := c.Query("verified"); verified != "" {
		if val, err := strconv.ParseBool(verified); err == nil {
			filter.Verified = &val
		}
	}
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filter.Active = &val
		}
	}
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

func staffResponse(account *domain.StaffAccount) dto.StaffResponse {
	return dto.StaffResponse{
		ID:        account.ID,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
		Role:      account.Role,
		Branch:    account.Branch,
		Verified:  account.Verified,
		Active:    account.Active,
		CreatedAt: account.CreatedAt,
	}
}

func authResponse(pair *auth.TokenPair) dto.AuthResponse {
	return dto.AuthResponse{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
