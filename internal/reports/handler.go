package reports

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatherhub/backend/internal/middleware"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/internal/notifications"
	"github.com/gatherhub/backend/internal/workflow"
	"github.com/gatherhub/backend/pkg/response"
)

// Handler handles report HTTP endpoints.
type Handler struct {
	repo   *Repository
	engine *workflow.Engine
	fanout *notifications.Fanout
}

// NewHandler creates a reports handler.
func NewHandler(repo *Repository, engine *workflow.Engine, fanout *notifications.Fanout) *Handler {
	return &Handler{repo: repo, engine: engine, fanout: fanout}
}

// CreateRequest is the body for POST /reports.
type CreateRequest struct {
	TargetType string    `json:"target_type" binding:"required"`
	TargetID   uuid.UUID `json:"target_id" binding:"required"`
	Reason     string    `json:"reason" binding:"required"`
}

// Create handles POST /reports.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	rep := &models.Report{
		ReporterID: userID,
		TargetType: body.TargetType,
		TargetID:   body.TargetID,
		Reason:     body.Reason,
	}
	if err := h.repo.Create(c.Request.Context(), rep); err != nil {
		response.FromError(c, err)
		return
	}
	h.fanout.BroadcastToAdmins(c.Request.Context(), models.NotificationWarning,
		"New content report",
		"A "+rep.TargetType+" was reported and awaits review.",
		"/reports")
	response.Created(c, rep)
}

// List handles GET /reports (admin). An optional status query filters the
// queue.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListByStatus(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Internal(c, "failed to list reports")
		return
	}
	response.OK(c, list)
}

// DecideRequest is the body for PUT /reports/:id/status (admin).
type DecideRequest struct {
	Status       string `json:"status" binding:"required"`
	AdminComment string `json:"admin_comment"`
}

// Decide handles PUT /reports/:id/status (admin).
func (h *Handler) Decide(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid report id")
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body DecideRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	_, err = h.engine.Decide(c.Request.Context(), workflow.KindReport, id,
		workflow.State(body.Status), actorID, body.AdminComment)
	if err != nil {
		response.FromError(c, err)
		return
	}
	rep, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, rep)
}
