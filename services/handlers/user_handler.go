package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/couponhub/coupon_api/shared"
)

type UserHandler struct {
	userSvc UserServiceInterface
}

func NewUserHandler(userSvc UserServiceInterface) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// @Summary Get own profile
// @Tags user
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.UserInfo}
// @Router /api/v1/profile [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	resp, err := h.userSvc.GetProfile(identityFromLocals(c).UserID)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, resp)
}

// @Summary List own sessions
// @Description Show the caller's live sessions, marking the current one
// @Tags user
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.SessionListResponse}
// @Router /api/v1/sessions [get]
func (h *UserHandler) GetSessions(c *fiber.Ctx) error {
	resp := h.userSvc.ListSessions(identityFromLocals(c), requestContext(c))
	return shared.ResponseOK(c, resp)
}

// @Summary Revoke a session
// @Description Invalidate one of the caller's sessions by its shortened key
// @Tags user
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param key path string true "Session key prefix"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/sessions/{key} [delete]
func (h *UserHandler) RevokeSession(c *fiber.Ctx) error {
	if err := h.userSvc.RevokeSession(identityFromLocals(c), c.Params("key"), requestContext(c)); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}
