package events

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhub/backend/internal/middleware"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/internal/notifications"
	"github.com/gatherhub/backend/internal/workflow"
	"github.com/gatherhub/backend/pkg/response"
)

// Handler handles event HTTP endpoints.
type Handler struct {
	repo             *Repository
	engine           *workflow.Engine
	fanout           *notifications.Fanout
	approvalRequired bool
	logger           *zap.Logger
}

// NewHandler creates an events handler. approvalRequired selects whether new
// events enter the admin review queue or publish immediately.
func NewHandler(repo *Repository, engine *workflow.Engine, fanout *notifications.Fanout, approvalRequired bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		repo:             repo,
		engine:           engine,
		fanout:           fanout,
		approvalRequired: approvalRequired,
		logger:           logger,
	}
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at" binding:"required"`
	EndsAt      *time.Time `json:"ends_at"`
}

// Create handles POST /events (organizer role). Creation is quota-gated; the
// initial status follows the approval policy.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ev := &models.Event{
		OrganizerID: userID,
		Title:       body.Title,
		Description: body.Description,
		Location:    body.Location,
		StartsAt:    body.StartsAt,
		EndsAt:      body.EndsAt,
	}
	initialStatus := string(workflow.StateApproved)
	if h.approvalRequired {
		initialStatus = string(workflow.StatePending)
	}
	if err := h.repo.CreateWithQuota(c.Request.Context(), ev, initialStatus); err != nil {
		response.FromError(c, err)
		return
	}

	if h.approvalRequired {
		h.fanout.BroadcastToAdmins(c.Request.Context(), models.NotificationInfo,
			"Event awaiting approval",
			"A new event \""+ev.Title+"\" is waiting for review.",
			"/admin/events/pending")
	}
	response.Created(c, ev)
}

// List handles GET /events. Non-admin callers see approved events only;
// admins may filter by any status.
func (h *Handler) List(c *gin.Context) {
	status := "approved"
	role, _ := c.MustGet(middleware.ContextUserRole).(string)
	if models.Role(role).IsAdmin() {
		status = c.DefaultQuery("status", "")
	}
	list, err := h.repo.ListByStatus(c.Request.Context(), status)
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /events/:id. Unpublished events are visible only to
// their organizer and admins.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ev, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := c.MustGet(middleware.ContextUserRole).(string)
	if ev.Status != string(workflow.StateApproved) &&
		ev.OrganizerID != userID && !models.Role(role).IsAdmin() {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, ev)
}

// Cancel handles POST /events/:id/cancel (owner or admin).
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ev, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := c.MustGet(middleware.ContextUserRole).(string)
	if ev.OrganizerID != userID && !models.Role(role).IsAdmin() {
		response.Forbidden(c, "only the organizer or an admin can cancel an event")
		return
	}
	if err := h.repo.Cancel(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// ListPending handles GET /admin/events/pending.
func (h *Handler) ListPending(c *gin.Context) {
	list, err := h.repo.ListByStatus(c.Request.Context(), string(workflow.StatePending))
	if err != nil {
		response.Internal(c, "failed to list pending events")
		return
	}
	response.OK(c, list)
}

// HandleRequest is the body for POST /admin/events/:id/handle.
type HandleRequest struct {
	Status       string `json:"status" binding:"required"`
	AdminComment string `json:"admin_comment"`
}

// Handle handles POST /admin/events/:id/handle.
func (h *Handler) Handle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body HandleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	_, err = h.engine.Decide(c.Request.Context(), workflow.KindEvent, id,
		workflow.State(body.Status), actorID, body.AdminComment)
	if err != nil {
		response.FromError(c, err)
		return
	}
	ev, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, ev)
}
