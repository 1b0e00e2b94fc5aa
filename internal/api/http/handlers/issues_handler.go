package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/itdesk/internal/api/dto"
	"github.com/spec-kit/itdesk/internal/auth"
	"github.com/spec-kit/itdesk/internal/domain"
	"github.com/spec-kit/itdesk/internal/service"
	apperrors "github.com/spec-kit/itdesk/pkg/util"
)

// IssuesHandler exposes the issue lifecycle endpoints.
type IssuesHandler struct {
	issues *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issueService}
}

// Create handles POST /issues.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.issues.Create(c.Context(), principal.Account, service.IssueCreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Priority:      req.Priority,
		Method:        req.Method,
		AttachmentKey: req.AttachmentKey,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issueResponse(issue)})
}

// List handles GET /issues. Reporters see their own issues; support staff
// may pass ?all=true plus filters to list across accounts.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 50)
	limit := pageSize
	offset := (page - 1) * pageSize

	var (
		list []domain.Issue
		err  error
	)
	if c.QueryBool("all") {
		filter := parseIssueFilter(c)
		filter.Limit = limit
		filter.Offset = offset
		list, err = h.issues.ListAll(c.Context(), principal.Account, filter)
	} else {
		list, err = h.issues.ListOwn(c.Context(), principal.Account, limit, offset)
	}
	if err != nil {
		return err
	}

	resp := make([]dto.IssueResponse, 0, len(list))
	for i := range list {
		resp = append(resp, issueResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	issue, err := h.issues.Get(c.Context(), principal.Account, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue)})
}

// Update handles PUT /issues/:id, the reporter content edit.
func (h *IssuesHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.issues.UpdateContent(c.Context(), principal.Account, c.Params("id"), service.IssueContentInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Priority:      req.Priority,
		AttachmentKey: req.AttachmentKey,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue)})
}

// UpdateStatus handles PATCH /issues/:id, the support-staff status move.
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	issue, err := h.issues.UpdateStatus(c.Context(), principal.Account, c.Params("id"), req.Status, req.WorkDone, req.Recommendation)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue)})
}

// Delete handles DELETE /issues/:id.
func (h *IssuesHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.issues.Delete(c.Context(), principal.Account, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Categories handles GET /issues/categories, the public enum listing the
// frontend uses to populate its forms.
func (h *IssuesHandler) Categories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"categories": domain.Categories(),
			"priorities": domain.Priorities(),
			"methods":    domain.LoggingMethods(),
		},
	})
}

func parseIssueFilter(c *fiber.Ctx) service.IssueListFilter {
	var filter service.IssueListFilter
	if reporter := c.Query("reporter_id"); reporter != "" {
		filter.ReporterID = &reporter
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = append(filter.Statuses, domain.IssueStatus(status))
	}
	if priority := c.Query("priority"); priority != "" {
		filter.Priorities = append(filter.Priorities, domain.IssuePriority(priority))
	}
	if category := c.Query("category"); category != "" {
		filter.Categories = append(filter.Categories, domain.IssueCategory(category))
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := c.Query("created_from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.CreatedFrom = &parsed
		}
	}
	if to := c.Query("created_to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.CreatedTo = &parsed
		}
	}
	return filter
}

func issueResponse(issue *domain.Issue) dto.IssueResponse {
	return dto.IssueResponse{
		ID:             issue.ID,
		ReporterID:     issue.ReporterID,
		Title:          issue.Title,
		Description:    issue.Description,
		Category:       issue.Category,
		Priority:       issue.Priority,
		Method:         issue.Method,
		AttachmentKey:  issue.AttachmentKey,
		Status:         issue.Status,
		WorkDone:       issue.WorkDone,
		Recommendation: issue.Recommendation,
		ResolvedAt:     issue.ResolvedAt,
		CreatedAt:      issue.CreatedAt,
		UpdatedAt:      issue.UpdatedAt,
	}
}
