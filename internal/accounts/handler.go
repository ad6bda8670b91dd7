package accounts

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/pkg/response"
)

// Handler handles admin account-management endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an accounts handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /admin/users.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// SetRoleRequest is the body for PATCH /admin/users/:id/role.
type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetRole handles PATCH /admin/users/:id/role.
func (h *Handler) SetRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "role required")
		return
	}
	role := models.Role(req.Role)
	if !role.Valid() {
		response.BadRequest(c, "invalid role")
		return
	}
	if err := h.repo.SetRole(c.Request.Context(), id, role); err != nil {
		response.FromError(c, err)
		return
	}
	h.logger.Info("role assigned", zap.String("user_id", id.String()), zap.String("role", string(role)))
	user, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, user.ToPublic())
}
