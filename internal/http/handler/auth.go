package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docauth/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login handles login/.
//
// @Summary Exchange credentials for tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200 {object} auth.TokenPair
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /login/ [post]
func Login(svc service.AuthService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		pair, err := svc.Login(c.UserContext(), req.Username, req.Password)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(pair)
	}
}

// RefreshToken handles token/refresh/.
//
// @Summary Renew a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param body body refreshRequest true "Refresh token"
// @Success 200 {object} auth.TokenPair
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /token/refresh/ [post]
func RefreshToken(svc service.AuthService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req refreshRequest
		if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "refresh_token is required")
		}
		pair, err := svc.Refresh(c.UserContext(), req.RefreshToken)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(pair)
	}
}
