package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docauth/internal/http/middleware"
	"docauth/internal/service"
)

// CreateUser handles create_user/.
//
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateUserRequest true "User"
// @Success 201 {object} model.User
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /create_user/ [post]
func CreateUser(svc service.UserService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.CreateUserRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		u, err := svc.Create(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// ListUsers handles users/?limit=&offset=.
//
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max items (default 10, max 100)"
// @Param offset query int false "Items to skip"
// @Success 200 {object} service.UserListResult
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Router /users/ [get]
func ListUsers(svc service.UserService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil || limit <= 0 || limit > 100 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 100")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil || offset < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "offset must be >= 0")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(res)
	}
}

// UpdateUser handles users/{id}/.
//
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body service.UpdateUserRequest true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /users/{id}/ [put]
func UpdateUser(svc service.UserService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := middleware.PrincipalFrom(c)
		if p == nil {
			return unauthorized(c)
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req service.UpdateUserRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		u, err := svc.Update(c.UserContext(), *p, id, req)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(u)
	}
}
