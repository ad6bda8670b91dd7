package attendance

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatherhub/backend/internal/middleware"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/pkg/response"
)

// Handler handles attendance HTTP endpoints. The same handler serves both
// the /events/:id/... and /plans/:id/... application routes; the route
// wiring fixes the target kind.
type Handler struct {
	manager *Manager
	kind    models.TargetKind
}

// NewHandler creates an attendance handler bound to one target kind.
func NewHandler(manager *Manager, kind models.TargetKind) *Handler {
	return &Handler{manager: manager, kind: kind}
}

// ApplyRequest is the body for POST /{events,plans}/:id/apply.
type ApplyRequest struct {
	Message string `json:"message"`
}

// Apply handles POST /{events,plans}/:id/apply.
func (h *Handler) Apply(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+string(h.kind)+" id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body ApplyRequest
	if err := c.ShouldBindJSON(&body); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	a, err := h.manager.Apply(c.Request.Context(), userID, h.kind, targetID, body.Message)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, a)
}

// Cancel handles DELETE /{events,plans}/:id/apply.
func (h *Handler) Cancel(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+string(h.kind)+" id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.manager.Cancel(c.Request.Context(), userID, h.kind, targetID); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// List handles GET /{events,plans}/:id/applications.
func (h *Handler) List(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+string(h.kind)+" id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.manager.List(c.Request.Context(), h.kind, targetID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// DecideRequest is the body for PUT /{events,plans}/:id/applications/:appId.
type DecideRequest struct {
	Status string `json:"status" binding:"required"`
}

// Decide handles PUT /{events,plans}/:id/applications/:appId (target owner
// or admin).
func (h *Handler) Decide(c *gin.Context) {
	attendanceID, err := uuid.Parse(c.Param("appId"))
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body DecideRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	a, err := h.manager.SetStatus(c.Request.Context(), attendanceID, body.Status, actorID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, a)
}
