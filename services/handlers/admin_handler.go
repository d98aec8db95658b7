package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/shared"
)

// AdminHandler serves the elevated-role surface: catalog mutations, audit
// retrieval and user administration.
type AdminHandler struct {
	catalogSvc CatalogServiceInterface
	userSvc    UserServiceInterface
	mediaSvc   MediaServiceInterface
	auditSvc   AuditServiceInterface
}

func NewAdminHandler(catalogSvc CatalogServiceInterface, userSvc UserServiceInterface,
	mediaSvc MediaServiceInterface, auditSvc AuditServiceInterface) *AdminHandler {
	return &AdminHandler{
		catalogSvc: catalogSvc,
		userSvc:    userSvc,
		mediaSvc:   mediaSvc,
		auditSvc:   auditSvc,
	}
}

// ==================== BRANDS ====================

// @Summary Create brand
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param brandRequest body dto.CreateBrandRequest true "Brand details"
// @Success 201 {object} shared.Response{data=dto.BrandResponse}
// @Router /api/v1/admin/brands [post]
func (h *AdminHandler) CreateBrand(c *fiber.Ctx) error {
	var req dto.CreateBrandRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewValidationError(err, "Invalid request body")
	}

	resp, err := h.catalogSvc.CreateBrand(req, identityFromLocals(c), requestContext(c))
	if err != nil {
		return err
	}
	return shared.ResponseJSON(c, http.StatusCreated, "Brand created", resp)
}

// @Summary Update brand
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "Brand ID"
// @Param brandRequest body dto.UpdateBrandRequest true "Fields to update"
// @Success 200 {object} shared.Response{data=dto.BrandResponse}
// @Router /api/v1/admin/brands/{id} [put]
func (h *AdminHandler) UpdateBrand(c *fiber.Ctx) error {
	var req dto.UpdateBrandRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewValidationError(err, "Invalid request body")
	}

	resp, err := h.catalogSvc.UpdateBrand(c.Params("id"), req, identityFromLocals(c), requestContext(c))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, resp)
}

// @Summary Delete brand
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "Brand ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/admin/brands/{id} [delete]
func (h *AdminHandler) DeleteBrand(c *fiber.Ctx) error {
	if err := h.catalogSvc.DeleteBrand(c.Params("id"), identityFromLocals(c), requestContext(c)); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// @Summary Upload brand logo
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "Brand ID"
// @Param logo formData file true "Logo image"
// @Success 200 {object} shared.Response{data=dto.MediaUploadResponse}
// @Router /api/v1/admin/brands/{id}/logo [post]
func (h *AdminHandler) UploadBrandLogo(c *fiber.Ctx) error {
	file, err := c.FormFile("logo")
	if err != nil {
		return shared.NewValidationError(err, "Logo file is required")
	}

	resp, err := h.mediaSvc.UploadBrandLogo(c.Params("id"), file, identityFromLocals(c), requestContext(c))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, resp)
}

// ==================== CATEGORIES ====================

// @Summary Create category
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param categoryRequest body dto.CreateCategoryRequest true "Category details"
// @Success 201 {object} shared.Response{data=dto.CategoryResponse}
// @Router /api/v1/admin/categories [post]
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewValidationError(err, "Invalid request body")
	}

	resp, err := h.catalogSvc.CreateCategory(req, identityFromLocals(c), requestContext(c))
	if err != nil {
		return err
	}
	return shared.ResponseJSON(c, http.StatusCreated, "Category created", resp)
}

// @Summary Delete category
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "Category ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/admin/categories/{id} [delete]
func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	if err := h.catalogSvc.DeleteCategory(c.Params("id"), identityFromLocals(c), requestContext(c)); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// ==================== COUPONS ====================

// @Summary Create coupon
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param couponRequest body dto.CreateCouponRequest true "Coupon details"
// @Success 201 {object} shared.Response{data=dto.CouponResponse}
// @Router /api/v1/admin/coupons [post]
func (h *AdminHandler) CreateCoupon(c *fiber.Ctx) error {
	var req dto.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewValidationError(err, "Invalid request body")
	}

	resp, err := h.catalogSvc.CreateCoupon(req, identityFromLocals(c), requestContext(c))
	if err != nil {
		return err
	}
	return shared.ResponseJSON(c, http.StatusCreated, "Coupon created", resp)
}

// @Summary Update coupon
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "Coupon ID"
// @Param couponRequest body dto.UpdateCouponRequest true "Fields to update"
// @Success 200 {object} shared.Response{data=dto.CouponResponse}
// @Router /api/v1/admin/coupons/{id} [put]
func (h *AdminHandler) UpdateCoupon(c *fiber.Ctx) error {
	var req dto.UpdateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewValidationError(err, "Invalid request body")
	}

	resp, err := h.catalogSvc.UpdateCoupon(c.Params("id"), req, identityFromLocals(c), requestContext(c))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, resp)
}

// @Summary Delete coupon
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "Coupon ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/admin/coupons/{id} [delete]
func (h *AdminHandler) DeleteCoupon(c *fiber.Ctx) error {
	if err := h.catalogSvc.DeleteCoupon(c.Params("id"), identityFromLocals(c), requestContext(c)); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// ==================== USERS ====================

// @Summary Force logout a user
// @Description Drop every tracked session of the target user
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "User ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/admin/users/{id}/force-logout [post]
func (h *AdminHandler) ForceLogoutUser(c *fiber.Ctx) error {
	removed, err := h.userSvc.ForceLogout(identityFromLocals(c), c.Params("id"), requestContext(c))
	if err != nil {
		return err
	}
	return shared.ResponseJSON(c, http.StatusOK, "User logged out", fiber.Map{
		"sessions_removed": removed,
	})
}

// @Summary Deactivate a user
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "User ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/admin/users/{id}/deactivate [post]
func (h *AdminHandler) DeactivateUser(c *fiber.Ctx) error {
	if err := h.userSvc.DeactivateUser(identityFromLocals(c), c.Params("id"), requestContext(c)); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// ==================== AUDIT LOGS ====================

// @Summary Query audit logs
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param action query string false "Action filter"
// @Param actor_id query string false "Actor filter"
// @Param resource_type query string false "Resource type filter"
// @Param resource_id query string false "Resource ID filter"
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} shared.Response{data=dto.AuditLogListResponse}
// @Router /api/v1/admin/audit-logs [get]
func (h *AdminHandler) GetAuditLogs(c *fiber.Ctx) error {
	filter := dto.AuditLogFilter{
		Action:       c.Query("action"),
		ActorID:      c.Query("actor_id"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		Page:         c.QueryInt("page", 1),
		Limit:        c.QueryInt("limit", 20),
	}

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return shared.NewValidationError(err, "Invalid 'from' timestamp")
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return shared.NewValidationError(err, "Invalid 'to' timestamp")
		}
		filter.To = &t
	}

	resp, err := h.auditSvc.GetAuditLogs(filter)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, resp)
}
