package dto

import "time"

// ==================== BRAND DTOs ====================

type CreateBrandRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120" example:"Acme Store"`
	Slug        string `json:"slug" validate:"required,slug,max=140" example:"acme-store"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
	WebsiteURL  string `json:"website_url,omitempty" validate:"omitempty,url" example:"https://acme.example.com"`
}

func (r CreateBrandRequest) Validate() error {
	return GetValidator().Struct(r)
}

type UpdateBrandRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	WebsiteURL  *string `json:"website_url,omitempty" validate:"omitempty,url"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (r UpdateBrandRequest) Validate() error {
	return GetValidator().Struct(r)
}

type BrandResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	WebsiteURL  string    `json:"website_url,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ==================== CATEGORY DTOs ====================

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120" example:"Electronics"`
	Slug string `json:"slug" validate:"required,slug,max=140" example:"electronics"`
}

func (r CreateCategoryRequest) Validate() error {
	return GetValidator().Struct(r)
}

type CategoryResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	IsActive bool   `json:"is_active"`
}

// ==================== COUPON DTOs ====================

type CreateCouponRequest struct {
	BrandID     string     `json:"brand_id" validate:"required"`
	CategoryID  string     `json:"category_id" validate:"required"`
	Title       string     `json:"title" validate:"required,min=3,max=200" example:"20% off sitewide"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	Code        string     `json:"code,omitempty" validate:"omitempty,max=64" example:"SAVE20"`
	DiscountPct int        `json:"discount_pct" validate:"gte=0,lte=100" example:"20"`
	TermsURL    string     `json:"terms_url,omitempty" validate:"omitempty,url"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (r CreateCouponRequest) Validate() error {
	return GetValidator().Struct(r)
}

type UpdateCouponRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Code        *string    `json:"code,omitempty" validate:"omitempty,max=64"`
	DiscountPct *int       `json:"discount_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

func (r UpdateCouponRequest) Validate() error {
	return GetValidator().Struct(r)
}

type CouponResponse struct {
	ID          string     `json:"id"`
	BrandID     string     `json:"brand_id"`
	CategoryID  string     `json:"category_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Code        string     `json:"code,omitempty"`
	DiscountPct int        `json:"discount_pct"`
	TermsURL    string     `json:"terms_url,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	ClickCount  int64      `json:"click_count"`
}

type CouponListResponse struct {
	Coupons []CouponResponse `json:"coupons"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}

type CouponFilter struct {
	BrandSlug    string
	CategorySlug string
	Search       string
	Page         int
	Limit        int
}

// ==================== FAVORITES DTOs ====================

type FavoriteRequest struct {
	CouponID string `json:"coupon_id" validate:"required"`
}

func (r FavoriteRequest) Validate() error {
	return GetValidator().Struct(r)
}

type FavoriteListResponse struct {
	Coupons []CouponResponse `json:"coupons"`
	Total   int              `json:"total"`
}

// ==================== MEDIA DTOs ====================

type MediaUploadResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}
