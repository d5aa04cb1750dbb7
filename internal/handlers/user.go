package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-tracker/internal/constants"
	"github.com/yukikurage/team-task-tracker/internal/dto"
	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
	"github.com/yukikurage/team-task-tracker/internal/middleware"
	"github.com/yukikurage/team-task-tracker/internal/models"
	"github.com/yukikurage/team-task-tracker/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers returns the user directory
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}

// SetUserRole changes the role of the user in the path
func (h *UserHandler) SetUserRole(c *gin.Context) {
	type SetRoleRequest struct {
		Role models.Role `json:"role" binding:"required"`
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	userID, ok := middleware.GetIDParam(c, constants.ContextKeyTargetID)
	if !ok {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid role")
		return
	}

	user, err := h.userService.SetUserRole(c.Request.Context(), actor, userID, req.Role)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
