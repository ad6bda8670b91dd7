package plans

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhub/backend/internal/middleware"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/pkg/response"
)

// Handler handles plan HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a plans handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// CreateRequest is the body for POST /plans.
type CreateRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	StartsAt    time.Time  `json:"starts_at" binding:"required"`
	EndsAt      *time.Time `json:"ends_at"`
}

// Create handles POST /plans. Creation is quota-gated.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := &models.Plan{
		CreatorID:   userID,
		Title:       body.Title,
		Description: body.Description,
		StartsAt:    body.StartsAt,
		EndsAt:      body.EndsAt,
	}
	if err := h.repo.CreateWithQuota(c.Request.Context(), p); err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, p)
}

// List handles GET /plans?status=active.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListByStatus(c.Request.Context(), c.DefaultQuery("status", models.PlanActive))
	if err != nil {
		response.Internal(c, "failed to list plans")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /plans/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid plan id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, p)
}

// Complete handles POST /plans/:id/complete (creator or admin).
func (h *Handler) Complete(c *gin.Context) {
	h.setStatus(c, models.PlanCompleted)
}

// Cancel handles POST /plans/:id/cancel (creator or admin).
func (h *Handler) Cancel(c *gin.Context) {
	h.setStatus(c, models.PlanCancelled)
}

func (h *Handler) setStatus(c *gin.Context, status string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid plan id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := c.MustGet(middleware.ContextUserRole).(string)
	if p.CreatorID != userID && !models.Role(role).IsAdmin() {
		response.Forbidden(c, "only the creator or an admin can update a plan")
		return
	}
	if err := h.repo.SetStatus(c.Request.Context(), id, status); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}
