package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/shared"
)

type CatalogHandler struct {
	catalogSvc CatalogServiceInterface
}

func NewCatalogHandler(catalogSvc CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ==================== PUBLIC CATALOG ====================

// @Summary List brands
// @Tags catalog
// @Produce json
// @Success 200 {object} shared.Response{data=[]dto.BrandResponse}
// @Router /api/v1/brands [get]
func (h *CatalogHandler) GetBrands(c *fiber.Ctx) error {
	brands, err := h.catalogSvc.GetBrands()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, brands)
}

// @Summary Get brand by slug
// @Tags catalog
// @Produce json
// @Param slug path string true "Brand slug"
// @Success 200 {object} shared.Response{data=dto.BrandResponse}
// @Router /api/v1/brands/{slug} [get]
func (h *CatalogHandler) GetBrand(c *fiber.Ctx) error {
	brand, err := h.catalogSvc.GetBrandBySlug(c.Params("slug"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, brand)
}

// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {object} shared.Response{data=[]dto.CategoryResponse}
// @Router /api/v1/categories [get]
func (h *CatalogHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.catalogSvc.GetCategories()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, categories)
}

// @Summary Search coupons
// @Description List active coupons, optionally filtered by brand, category or free-text search
// @Tags catalog
// @Produce json
// @Param brand query string false "Brand slug"
// @Param category query string false "Category slug"
// @Param q query string false "Search term"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} shared.Response{data=dto.CouponListResponse}
// @Router /api/v1/coupons [get]
func (h *CatalogHandler) SearchCoupons(c *fiber.Ctx) error {
	filter := dto.CouponFilter{
		BrandSlug:    c.Query("brand"),
		CategorySlug: c.Query("category"),
		Search:       c.Query("q"),
		Page:         c.QueryInt("page", 1),
		Limit:        c.QueryInt("limit", 20),
	}

	resp, err := h.catalogSvc.SearchCoupons(filter)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, resp)
}

// @Summary Get coupon
// @Tags catalog
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} shared.Response{data=dto.CouponResponse}
// @Router /api/v1/coupons/{id} [get]
func (h *CatalogHandler) GetCoupon(c *fiber.Ctx) error {
	coupon, err := h.catalogSvc.GetCoupon(c.Params("id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, coupon)
}

// @Summary Record coupon click
// @Description Count a click-through on a coupon
// @Tags catalog
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/coupons/{id}/click [post]
func (h *CatalogHandler) RecordClick(c *fiber.Ctx) error {
	if err := h.catalogSvc.RecordCouponClick(c.Params("id")); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// ==================== FAVORITES ====================

// @Summary List favorite coupons
// @Tags favorites
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.FavoriteListResponse}
// @Router /api/v1/favorites [get]
func (h *CatalogHandler) GetFavorites(c *fiber.Ctx) error {
	resp, err := h.catalogSvc.GetFavorites(identityFromLocals(c).UserID)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, resp)
}

// @Summary Add favorite
// @Tags favorites
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param favoriteRequest body dto.FavoriteRequest true "Coupon to favorite"
// @Success 201 {object} shared.Response{data=nil}
// @Router /api/v1/favorites [post]
func (h *CatalogHandler) AddFavorite(c *fiber.Ctx) error {
	var req dto.FavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewValidationError(err, "Invalid request body")
	}

	if err := h.catalogSvc.AddFavorite(identityFromLocals(c).UserID, req.CouponID); err != nil {
		return err
	}
	return shared.ResponseJSON(c, http.StatusCreated, "Favorite added", nil)
}

// @Summary Remove favorite
// @Tags favorites
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param couponId path string true "Coupon ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/favorites/{couponId} [delete]
func (h *CatalogHandler) RemoveFavorite(c *fiber.Ctx) error {
	if err := h.catalogSvc.RemoveFavorite(identityFromLocals(c).UserID, c.Params("couponId")); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}
