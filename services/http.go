package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/services/handlers"
	"github.com/couponhub/coupon_api/shared"
)

// HttpService owns the public fiber app: middleware order, the route table
// with its per-endpoint security requirements, and the error mapper that
// turns AppErrors into uniform response envelopes.
type HttpService struct {
	appContext.DefaultService

	securitySvc *SecurityService
	authSvc     *AuthService
	catalogSvc  *CatalogService
	userSvc     *UserService
	mediaSvc    *MediaService
	auditSvc    *AuditService
	csrfSvc     *CSRFService

	port       int
	production bool
	app        *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *appContext.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	svc.production = os.Getenv("APP_ENV") == "production"

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.securitySvc = svc.Service(SECURITY_SVC).(*SecurityService)
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.catalogSvc = svc.Service(CATALOG_SVC).(*CatalogService)
	svc.userSvc = svc.Service(USER_SVC).(*UserService)
	svc.mediaSvc = svc.Service(MEDIA_SVC).(*MediaService)
	svc.auditSvc = svc.Service(AUDIT_SVC).(*AuditService)
	svc.csrfSvc = svc.Service(CSRF_SVC).(*CSRFService)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          svc.handleError,
		JSONEncoder:           shared.JSONAPI().Marshal,
		JSONDecoder:           shared.JSONAPI().Unmarshal,
		BodyLimit:             5 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(svc.requestContextMiddleware())
	app.Use(svc.securitySvc.SecurityHeaders())
	app.Use(MonitoringMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool { return true },
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + shared.CSRFHeader,
	}))

	svc.registerRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return shared.NewNotFoundError(nil, "Page not found")
	})

	svc.app = app
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

// requestContextMiddleware tags each request with an ID and captures the
// origin info every later stage reads.
func (svc *HttpService) requestContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := uuid.NewString()
		c.Locals(shared.RequestID, id)
		c.Set("X-Request-ID", id)
		c.Locals(shared.RequestCtx, RequestContextFrom(c))
		return c.Next()
	}
}

func (svc *HttpService) registerRoutes(app *fiber.App) {
	sec := svc.securitySvc

	authHandler := handlers.NewAuthHandler(svc.authSvc, svc.csrfSvc)
	catalogHandler := handlers.NewCatalogHandler(svc.catalogSvc)
	userHandler := handlers.NewUserHandler(svc.userSvc)
	adminHandler := handlers.NewAdminHandler(svc.catalogSvc, svc.userSvc, svc.mediaSvc, svc.auditSvc)

	app.Get("/ping", svc.ping)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	// Unauthenticated auth surface. Aggressive limits; the login window is
	// the main brute-force chokepoint next to the account lockout.
	v1.Post("/register", sec.Secure(authHandler.Register, SecureOptions{
		RateLimit: &RateLimitOptions{MaxRequests: 5, Window: time.Hour},
		Validate:  func() dto.Validator { return &dto.RegisterRequest{} },
	}))
	v1.Post("/login", sec.Secure(authHandler.Login, SecureOptions{
		RateLimit: &RateLimitOptions{MaxRequests: 10, Window: 15 * time.Minute},
		Validate:  func() dto.Validator { return &dto.LoginRequest{} },
	}))
	v1.Get("/csrf-token", sec.Secure(authHandler.GetCSRFToken, SecureOptions{
		RateLimit: &RateLimitOptions{MaxRequests: 60, Window: time.Minute},
	}))

	// Authenticated auth surface.
	v1.Post("/logout", sec.Secure(authHandler.Logout, SecureOptions{
		RequireAuth: true,
		RequireCSRF: true,
	}))
	v1.Post("/logout-all", sec.Secure(authHandler.LogoutAll, SecureOptions{
		RequireAuth: true,
		RequireCSRF: true,
	}))

	// Public catalog.
	v1.Get("/brands", sec.Secure(catalogHandler.GetBrands, SecureOptions{
		RateLimit: &RateLimitOptions{MaxRequests: 120, Window: time.Minute},
	}))
	v1.Get("/brands/:slug", sec.Secure(catalogHandler.GetBrand, SecureOptions{
		RateLimit: &RateLimitOptions{MaxRequests: 120, Window: time.Minute},
	}))
	v1.Get("/categories", sec.Secure(catalogHandler.GetCategories, SecureOptions{
		RateLimit: &RateLimitOptions{MaxRequests: 120, Window: time.Minute},
	}))
	v1.Get("/coupons", sec.Secure(catalogHandler.SearchCoupons, SecureOptions{
		RateLimit: &RateLimitOptions{MaxRequests: 120, Window: time.Minute},
	}))
	v1.Get("/coupons/:id", sec.Secure(catalogHandler.GetCoupon, SecureOptions{
		RateLimit: &RateLimitOptions{MaxRequests: 120, Window: time.Minute},
	}))
	v1.Post("/coupons/:id/click", sec.Secure(catalogHandler.RecordClick, SecureOptions{
		RateLimit: &RateLimitOptions{MaxRequests: 60, Window: time.Minute},
	}))

	// Authenticated user surface.
	v1.Get("/profile", sec.Secure(userHandler.GetProfile, SecureOptions{
		RequireAuth: true,
	}))
	v1.Get("/sessions", sec.Secure(userHandler.GetSessions, SecureOptions{
		RequireAuth: true,
	}))
	v1.Delete("/sessions/:key", sec.Secure(userHandler.RevokeSession, SecureOptions{
		RequireAuth: true,
		RequireCSRF: true,
	}))
	v1.Get("/favorites", sec.Secure(catalogHandler.GetFavorites, SecureOptions{
		RequireAuth: true,
	}))
	v1.Post("/favorites", sec.Secure(catalogHandler.AddFavorite, SecureOptions{
		RequireAuth: true,
		RequireCSRF: true,
		Validate:    func() dto.Validator { return &dto.FavoriteRequest{} },
	}))
	v1.Delete("/favorites/:couponId", sec.Secure(catalogHandler.RemoveFavorite, SecureOptions{
		RequireAuth: true,
		RequireCSRF: true,
	}))

	// Admin surface. Everything here requires the elevated role and CSRF on
	// state changes.
	admin := v1.Group("/admin")
	admin.Post("/brands", sec.Secure(adminHandler.CreateBrand, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
		RequireCSRF:         true,
		Validate:            func() dto.Validator { return &dto.CreateBrandRequest{} },
	}))
	admin.Put("/brands/:id", sec.Secure(adminHandler.UpdateBrand, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
		RequireCSRF:         true,
		Validate:            func() dto.Validator { return &dto.UpdateBrandRequest{} },
	}))
	admin.Delete("/brands/:id", sec.Secure(adminHandler.DeleteBrand, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
		RequireCSRF:         true,
	}))
	admin.Post("/brands/:id/logo", sec.Secure(adminHandler.UploadBrandLogo, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
		RequireCSRF:         true,
	}))
	admin.Post("/categories", sec.Secure(adminHandler.CreateCategory, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
		RequireCSRF:         true,
		Validate:            func() dto.Validator { return &dto.CreateCategoryRequest{} },
	}))
	admin.Delete("/categories/:id", sec.Secure(adminHandler.DeleteCategory, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
		RequireCSRF:         true,
	}))
	admin.Post("/coupons", sec.Secure(adminHandler.CreateCoupon, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
		RequireCSRF:         true,
		Validate:            func() dto.Validator { return &dto.CreateCouponRequest{} },
	}))
	admin.Put("/coupons/:id", sec.Secure(adminHandler.UpdateCoupon, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
		RequireCSRF:         true,
		Validate:            func() dto.Validator { return &dto.UpdateCouponRequest{} },
	}))
	admin.Delete("/coupons/:id", sec.Secure(adminHandler.DeleteCoupon, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
		RequireCSRF:         true,
	}))
	admin.Post("/users/:id/force-logout", sec.Secure(adminHandler.ForceLogoutUser, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
		RequireCSRF:         true,
	}))
	admin.Post("/users/:id/deactivate", sec.Secure(adminHandler.DeactivateUser, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
		RequireCSRF:         true,
	}))
	admin.Get("/audit-logs", sec.Secure(adminHandler.GetAuditLogs, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
	}))
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")
	return shared.ResponseOK(c, "pong")
}

// handleError is the single choke point turning errors into response
// envelopes. Operational errors pass their message through; everything else
// collapses to a generic message in production so internals never leak.
func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		message := appErr.Message
		if !appErr.Operational && svc.production {
			message = "Internal server error"
		}

		svc.logError(c, appErr)
		return shared.ResponseError(c, appErr.StatusCode(), message, appErr.Details)
	}

	// fiber's own errors (method not allowed, body too large, ...) keep
	// their status.
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseError(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithFields(log.Fields{
		"category":   shared.CategoryAPI,
		"request_id": c.Locals(shared.RequestID),
		"endpoint":   c.Path(),
		"method":     c.Method(),
		"error":      err.Error(),
	}).Error("Unhandled error")

	message := err.Error()
	if svc.production {
		message = "Internal server error"
	}
	return shared.ResponseError(c, fiber.StatusInternalServerError, message, nil)
}

func (svc *HttpService) logError(c *fiber.Ctx, appErr *shared.AppError) {
	entry := log.WithFields(log.Fields{
		"category":   shared.CategoryAPI,
		"request_id": c.Locals(shared.RequestID),
		"endpoint":   c.Path(),
		"method":     c.Method(),
		"error_kind": string(appErr.Kind),
		"error":      appErr.Error(),
	})

	if appErr.StatusCode() >= 500 {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}
}
