package quotas

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhub/backend/internal/middleware"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/internal/notifications"
	"github.com/gatherhub/backend/internal/workflow"
	"github.com/gatherhub/backend/pkg/response"
)

// Handler handles quota HTTP endpoints.
type Handler struct {
	ledger *Ledger
	repo   *Repository
	engine *workflow.Engine
	fanout *notifications.Fanout
	logger *zap.Logger
}

// NewHandler creates a quotas handler.
func NewHandler(ledger *Ledger, repo *Repository, engine *workflow.Engine, fanout *notifications.Fanout, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{ledger: ledger, repo: repo, engine: engine, fanout: fanout, logger: logger}
}

// Usage handles GET /quotas. Returns the caller's current window usage for
// both resource kinds plus their request history.
func (h *Handler) Usage(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	events, err := h.ledger.CanCreate(ctx, userID, models.ResourceEvent)
	if err != nil {
		response.FromError(c, err)
		return
	}
	plans, err := h.ledger.CanCreate(ctx, userID, models.ResourcePlan)
	if err != nil {
		response.FromError(c, err)
		return
	}
	requests, err := h.repo.ListByRequester(ctx, userID)
	if err != nil {
		response.Internal(c, "failed to load quota requests")
		return
	}
	response.OK(c, gin.H{
		"event":    events,
		"plan":     plans,
		"requests": requests,
	})
}

// RequestIncreaseRequest is the body for POST /quotas/request.
type RequestIncreaseRequest struct {
	ResourceKind   string `json:"resource_kind" binding:"required"`
	RequestedLimit int    `json:"requested_limit" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
}

// RequestIncrease handles POST /quotas/request.
func (h *Handler) RequestIncrease(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body RequestIncreaseRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	req, err := h.ledger.RequestIncrease(c.Request.Context(), userID,
		models.ResourceKind(body.ResourceKind), body.RequestedLimit, body.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.fanout.BroadcastToAdmins(c.Request.Context(), models.NotificationInfo,
		"New quota request",
		fmt.Sprintf("A user requested a weekly %s quota of %d.", req.ResourceKind, req.RequestedLimit),
		"/admin/quotas/requests")
	response.Created(c, req)
}

// ListRequests handles GET /admin/quotas/requests?status=pending.
func (h *Handler) ListRequests(c *gin.Context) {
	list, err := h.repo.ListByStatus(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Internal(c, "failed to list quota requests")
		return
	}
	response.OK(c, list)
}

// DecideRequest is the body for PATCH /quotas/:id/status (admin).
type DecideRequest struct {
	Status       string `json:"status" binding:"required"`
	AdminComment string `json:"admin_comment"`
}

// Decide handles PATCH /quotas/:id/status (admin).
func (h *Handler) Decide(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body DecideRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	_, err = h.engine.Decide(c.Request.Context(), workflow.KindQuotaRequest, id,
		workflow.State(body.Status), actorID, body.AdminComment)
	if err != nil {
		response.FromError(c, err)
		return
	}
	req, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, req)
}
