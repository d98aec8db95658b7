package handlers

import (
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/shared"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest, reqCtx dto.RequestContext) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest, reqCtx dto.RequestContext) (*dto.LoginResponse, error)
	Logout(identity dto.Identity, reqCtx dto.RequestContext)
	LogoutAllDevices(identity dto.Identity, reqCtx dto.RequestContext) int
}

type CatalogServiceInterface interface {
	CreateBrand(req dto.CreateBrandRequest, actor dto.Identity, reqCtx dto.RequestContext) (*dto.BrandResponse, error)
	GetBrands() ([]dto.BrandResponse, error)
	GetBrandBySlug(slug string) (*dto.BrandResponse, error)
	UpdateBrand(id string, req dto.UpdateBrandRequest, actor dto.Identity, reqCtx dto.RequestContext) (*dto.BrandResponse, error)
	DeleteBrand(id string, actor dto.Identity, reqCtx dto.RequestContext) error

	CreateCategory(req dto.CreateCategoryRequest, actor dto.Identity, reqCtx dto.RequestContext) (*dto.CategoryResponse, error)
	GetCategories() ([]dto.CategoryResponse, error)
	DeleteCategory(id string, actor dto.Identity, reqCtx dto.RequestContext) error

	CreateCoupon(req dto.CreateCouponRequest, actor dto.Identity, reqCtx dto.RequestContext) (*dto.CouponResponse, error)
	GetCoupon(id string) (*dto.CouponResponse, error)
	SearchCoupons(filter dto.CouponFilter) (*dto.CouponListResponse, error)
	UpdateCoupon(id string, req dto.UpdateCouponRequest, actor dto.Identity, reqCtx dto.RequestContext) (*dto.CouponResponse, error)
	DeleteCoupon(id string, actor dto.Identity, reqCtx dto.RequestContext) error
	RecordCouponClick(id string) error

	AddFavorite(userID, couponID string) error
	RemoveFavorite(userID, couponID string) error
	GetFavorites(userID string) (*dto.FavoriteListResponse, error)
}

type UserServiceInterface interface {
	GetProfile(userID string) (*dto.UserInfo, error)
	ListSessions(identity dto.Identity, reqCtx dto.RequestContext) *dto.SessionListResponse
	RevokeSession(identity dto.Identity, keyPrefix string, reqCtx dto.RequestContext) error
	ForceLogout(actor dto.Identity, targetUserID string, reqCtx dto.RequestContext) (int, error)
	DeactivateUser(actor dto.Identity, targetUserID string, reqCtx dto.RequestContext) error
}

type MediaServiceInterface interface {
	UploadBrandLogo(brandID string, file *multipart.FileHeader, actor dto.Identity, reqCtx dto.RequestContext) (*dto.MediaUploadResponse, error)
}

type AuditServiceInterface interface {
	GetAuditLogs(filter dto.AuditLogFilter) (*dto.AuditLogListResponse, error)
}

type CSRFServiceInterface interface {
	IssueToken() (string, error)
	TokenTTL() time.Duration
}

// identityFromLocals rebuilds the identity the security pipeline resolved.
func identityFromLocals(c *fiber.Ctx) dto.Identity {
	identity := dto.Identity{}
	if v, ok := c.Locals(shared.UserID).(string); ok {
		identity.UserID = v
	}
	if v, ok := c.Locals(shared.UserEmail).(string); ok {
		identity.Email = v
	}
	if v, ok := c.Locals(shared.UserRole).(string); ok {
		identity.Role = v
	}
	return identity
}

// requestContext reads the origin info the request-context middleware
// captured, falling back to the raw connection values.
func requestContext(c *fiber.Ctx) dto.RequestContext {
	if v, ok := c.Locals(shared.RequestCtx).(dto.RequestContext); ok {
		return v
	}
	return dto.RequestContext{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Endpoint:  c.Path(),
		Method:    c.Method(),
	}
}
