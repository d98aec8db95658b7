package services

import (
	appContext "github.com/alphabatem/common/context"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/model"
	"github.com/couponhub/coupon_api/shared"
)

// CatalogService owns the coupon catalog: brands, categories, coupons and
// per-user favorites. Admin mutations record before/after snapshots in the
// audit trail.
type CatalogService struct {
	appContext.DefaultService

	sqlSvc   *PostgresService
	auditSvc *AuditService
}

const CATALOG_SVC = "catalog_svc"

func (svc CatalogService) Id() string {
	return CATALOG_SVC
}

func (svc *CatalogService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *CatalogService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.auditSvc = svc.Service(AUDIT_SVC).(*AuditService)
	return nil
}

// ==================== BRANDS ====================

func (svc *CatalogService) CreateBrand(req dto.CreateBrandRequest, actor dto.Identity, reqCtx dto.RequestContext) (*dto.BrandResponse, error) {
	brand, err := svc.sqlSvc.CreateBrand(&model.Brand{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		WebsiteURL:  req.WebsiteURL,
		IsActive:    true,
	})
	if err != nil {
		return nil, err
	}

	svc.auditSvc.LogBrandAction(shared.ActionCreate, actor, brand.ID, brand.Name, nil, brandSnapshot(brand), reqCtx)

	return brandToResponse(brand), nil
}

func (svc *CatalogService) GetBrands() ([]dto.BrandResponse, error) {
	brands, err := svc.sqlSvc.GetBrands(true)
	if err != nil {
		return nil, err
	}

	out := make([]dto.BrandResponse, len(brands))
	for i := range brands {
		out[i] = *brandToResponse(&brands[i])
	}
	return out, nil
}

func (svc *CatalogService) GetBrandBySlug(slug string) (*dto.BrandResponse, error) {
	brand, err := svc.sqlSvc.GetBrandBySlug(slug)
	if err != nil {
		return nil, err
	}
	return brandToResponse(brand), nil
}

func (svc *CatalogService) UpdateBrand(id string, req dto.UpdateBrandRequest, actor dto.Identity, reqCtx dto.RequestContext) (*dto.BrandResponse, error) {
	brand, err := svc.sqlSvc.GetBrand(id)
	if err != nil {
		return nil, err
	}

	oldValues := brandSnapshot(brand)

	if req.Name != nil {
		brand.Name = *req.Name
	}
	if req.Description != nil {
		brand.Description = *req.Description
	}
	if req.WebsiteURL != nil {
		brand.WebsiteURL = *req.WebsiteURL
	}
	if req.IsActive != nil {
		brand.IsActive = *req.IsActive
	}

	if err := svc.sqlSvc.UpdateBrand(brand); err != nil {
		return nil, err
	}

	svc.auditSvc.LogBrandAction(shared.ActionUpdate, actor, brand.ID, brand.Name, oldValues, brandSnapshot(brand), reqCtx)

	return brandToResponse(brand), nil
}

func (svc *CatalogService) DeleteBrand(id string, actor dto.Identity, reqCtx dto.RequestContext) error {
	brand, err := svc.sqlSvc.GetBrand(id)
	if err != nil {
		return err
	}

	if err := svc.sqlSvc.DeleteBrand(id); err != nil {
		return err
	}

	svc.auditSvc.LogBrandAction(shared.ActionDelete, actor, brand.ID, brand.Name, brandSnapshot(brand), nil, reqCtx)
	return nil
}

func (svc *CatalogService) SetBrandLogo(id, logoURL string) error {
	brand, err := svc.sqlSvc.GetBrand(id)
	if err != nil {
		return err
	}
	brand.LogoURL = logoURL
	return svc.sqlSvc.UpdateBrand(brand)
}

// ==================== CATEGORIES ====================

func (svc *CatalogService) CreateCategory(req dto.CreateCategoryRequest, actor dto.Identity, reqCtx dto.RequestContext) (*dto.CategoryResponse, error) {
	category, err := svc.sqlSvc.CreateCategory(&model.Category{
		Name:     req.Name,
		Slug:     req.Slug,
		IsActive: true,
	})
	if err != nil {
		return nil, err
	}

	svc.auditSvc.LogCategoryAction(shared.ActionCreate, actor, category.ID, category.Name, nil, map[string]interface{}{
		"name": category.Name,
		"slug": category.Slug,
	}, reqCtx)

	return categoryToResponse(category), nil
}

func (svc *CatalogService) GetCategories() ([]dto.CategoryResponse, error) {
	categories, err := svc.sqlSvc.GetCategories(true)
	if err != nil {
		return nil, err
	}

	out := make([]dto.CategoryResponse, len(categories))
	for i := range categories {
		out[i] = *categoryToResponse(&categories[i])
	}
	return out, nil
}

func (svc *CatalogService) DeleteCategory(id string, actor dto.Identity, reqCtx dto.RequestContext) error {
	if err := svc.sqlSvc.DeleteCategory(id); err != nil {
		return err
	}
	svc.auditSvc.LogCategoryAction(shared.ActionDelete, actor, id, "", nil, nil, reqCtx)
	return nil
}

// ==================== COUPONS ====================

func (svc *CatalogService) CreateCoupon(req dto.CreateCouponRequest, actor dto.Identity, reqCtx dto.RequestContext) (*dto.CouponResponse, error) {
	if _, err := svc.sqlSvc.GetBrand(req.BrandID); err != nil {
		return nil, shared.NewValidationError(nil, "Unknown brand")
	}

	coupon, err := svc.sqlSvc.CreateCoupon(&model.Coupon{
		BrandID:     req.BrandID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		DiscountPct: req.DiscountPct,
		TermsURL:    req.TermsURL,
		StartsAt:    req.StartsAt,
		ExpiresAt:   req.ExpiresAt,
		IsActive:    true,
	})
	if err != nil {
		return nil, err
	}

	svc.auditSvc.LogCouponAction(shared.ActionCreate, actor, coupon.ID, coupon.Title, nil, couponSnapshot(coupon), reqCtx)

	return couponToResponse(coupon), nil
}

func (svc *CatalogService) GetCoupon(id string) (*dto.CouponResponse, error) {
	coupon, err := svc.sqlSvc.GetCoupon(id)
	if err != nil {
		return nil, err
	}
	return couponToResponse(coupon), nil
}

func (svc *CatalogService) SearchCoupons(filter dto.CouponFilter) (*dto.CouponListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	coupons, total, err := svc.sqlSvc.SearchCoupons(filter)
	if err != nil {
		return nil, err
	}

	return &dto.CouponListResponse{
		Coupons: couponsToResponses(coupons),
		Total:   total,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}, nil
}

func (svc *CatalogService) UpdateCoupon(id string, req dto.UpdateCouponRequest, actor dto.Identity, reqCtx dto.RequestContext) (*dto.CouponResponse, error) {
	coupon, err := svc.sqlSvc.GetCoupon(id)
	if err != nil {
		return nil, err
	}

	oldValues := couponSnapshot(coupon)

	if req.Title != nil {
		coupon.Title = *req.Title
	}
	if req.Description != nil {
		coupon.Description = *req.Description
	}
	if req.Code != nil {
		coupon.Code = *req.Code
	}
	if req.DiscountPct != nil {
		coupon.DiscountPct = *req.DiscountPct
	}
	if req.ExpiresAt != nil {
		coupon.ExpiresAt = req.ExpiresAt
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := svc.sqlSvc.UpdateCoupon(coupon); err != nil {
		return nil, err
	}

	svc.auditSvc.LogCouponAction(shared.ActionUpdate, actor, coupon.ID, coupon.Title, oldValues, couponSnapshot(coupon), reqCtx)

	return couponToResponse(coupon), nil
}

func (svc *CatalogService) DeleteCoupon(id string, actor dto.Identity, reqCtx dto.RequestContext) error {
	coupon, err := svc.sqlSvc.GetCoupon(id)
	if err != nil {
		return err
	}

	if err := svc.sqlSvc.DeleteCoupon(id); err != nil {
		return err
	}

	svc.auditSvc.LogCouponAction(shared.ActionDelete, actor, coupon.ID, coupon.Title, couponSnapshot(coupon), nil, reqCtx)
	return nil
}

// RecordCouponClick bumps the click counter. Fire-and-forget from the
// caller's perspective; a lost click is not worth a failed redirect.
func (svc *CatalogService) RecordCouponClick(id string) error {
	return svc.sqlSvc.IncrementCouponClicks(id)
}

// ==================== FAVORITES ====================

func (svc *CatalogService) AddFavorite(userID, couponID string) error {
	if _, err := svc.sqlSvc.GetCoupon(couponID); err != nil {
		return err
	}
	return svc.sqlSvc.AddFavorite(userID, couponID)
}

func (svc *CatalogService) RemoveFavorite(userID, couponID string) error {
	return svc.sqlSvc.RemoveFavorite(userID, couponID)
}

func (svc *CatalogService) GetFavorites(userID string) (*dto.FavoriteListResponse, error) {
	coupons, err := svc.sqlSvc.GetFavoriteCoupons(userID)
	if err != nil {
		return nil, err
	}

	return &dto.FavoriteListResponse{
		Coupons: couponsToResponses(coupons),
		Total:   len(coupons),
	}, nil
}

// ==================== MAPPERS ====================

func brandToResponse(b *model.Brand) *dto.BrandResponse {
	return &dto.BrandResponse{
		ID:          b.ID,
		Name:        b.Name,
		Slug:        b.Slug,
		Description: b.Description,
		WebsiteURL:  b.WebsiteURL,
		LogoURL:     b.LogoURL,
		IsActive:    b.IsActive,
		CreatedAt:   b.CreatedAt,
	}
}

func brandSnapshot(b *model.Brand) map[string]interface{} {
	return map[string]interface{}{
		"name":        b.Name,
		"slug":        b.Slug,
		"description": b.Description,
		"website_url": b.WebsiteURL,
		"is_active":   b.IsActive,
	}
}

func categoryToResponse(c *model.Category) *dto.CategoryResponse {
	return &dto.CategoryResponse{
		ID:       c.ID,
		Name:     c.Name,
		Slug:     c.Slug,
		IsActive: c.IsActive,
	}
}

func couponToResponse(c *model.Coupon) *dto.CouponResponse {
	return &dto.CouponResponse{
		ID:          c.ID,
		BrandID:     c.BrandID,
		CategoryID:  c.CategoryID,
		Title:       c.Title,
		Description: c.Description,
		Code:        c.Code,
		DiscountPct: c.DiscountPct,
		TermsURL:    c.TermsURL,
		StartsAt:    c.StartsAt,
		ExpiresAt:   c.ExpiresAt,
		IsActive:    c.IsActive,
		ClickCount:  c.ClickCount,
	}
}

func couponsToResponses(coupons []model.Coupon) []dto.CouponResponse {
	out := make([]dto.CouponResponse, len(coupons))
	for i := range coupons {
		out[i] = *couponToResponse(&coupons[i])
	}
	return out
}

func couponSnapshot(c *model.Coupon) map[string]interface{} {
	return map[string]interface{}{
		"brand_id":     c.BrandID,
		"category_id":  c.CategoryID,
		"title":        c.Title,
		"code":         c.Code,
		"discount_pct": c.DiscountPct,
		"is_active":    c.IsActive,
	}
}
