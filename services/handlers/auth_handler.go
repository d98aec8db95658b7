package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/shared"
)

type AuthHandler struct {
	authSvc AuthServiceInterface
	csrfSvc CSRFServiceInterface
}

func NewAuthHandler(authSvc AuthServiceInterface, csrfSvc CSRFServiceInterface) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
		csrfSvc: csrfSvc,
	}
}

// @Summary Register a new user
// @Description Create a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body dto.RegisterRequest true "Registration details"
// @Success 201 {object} shared.Response{data=dto.RegisterResponse}
// @Router /api/v1/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewValidationError(err, "Invalid request body")
	}

	resp, err := h.authSvc.Register(req, requestContext(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "User registered successfully", resp)
}

// @Summary Login user
// @Description Authenticate user and return access token
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body dto.LoginRequest true "Login credentials"
// @Success 200 {object} shared.Response{data=dto.LoginResponse}
// @Router /api/v1/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewValidationError(err, "Invalid request body")
	}

	resp, err := h.authSvc.Login(req, requestContext(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Login successful", resp)
}

// @Summary Logout user
// @Description Invalidate the current tracked session
// @Tags auth
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.authSvc.Logout(identityFromLocals(c), requestContext(c))
	return shared.ResponseJSON(c, http.StatusOK, "Logged out successfully", nil)
}

// @Summary Logout from all devices
// @Description Invalidate every tracked session for the caller
// @Tags auth
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	removed := h.authSvc.LogoutAllDevices(identityFromLocals(c), requestContext(c))
	return shared.ResponseJSON(c, http.StatusOK, "Logged out from all devices", fiber.Map{
		"sessions_removed": removed,
	})
}

// @Summary Get CSRF token
// @Description Issue a token to send back in the X-CSRF-Token header on state-changing requests
// @Tags auth
// @Produce json
// @Success 200 {object} shared.Response{data=dto.CSRFTokenResponse}
// @Router /api/v1/csrf-token [get]
func (h *AuthHandler) GetCSRFToken(c *fiber.Ctx) error {
	token, err := h.csrfSvc.IssueToken()
	if err != nil {
		return shared.NewInternalError(err, "Failed to issue CSRF token")
	}

	return shared.ResponseOK(c, dto.CSRFTokenResponse{
		CSRFToken: token,
		ExpiresIn: int64(h.csrfSvc.TokenTTL().Seconds()),
	})
}
