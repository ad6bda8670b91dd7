package organizers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhub/backend/internal/middleware"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/internal/notifications"
	"github.com/gatherhub/backend/internal/workflow"
	"github.com/gatherhub/backend/pkg/response"
)

// Handler handles organizer application HTTP endpoints.
type Handler struct {
	repo   *Repository
	engine *workflow.Engine
	fanout *notifications.Fanout
	logger *zap.Logger
}

// NewHandler creates an organizers handler.
func NewHandler(repo *Repository, engine *workflow.Engine, fanout *notifications.Fanout, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, engine: engine, fanout: fanout, logger: logger}
}

// ApplyRequest is the body for POST /organizers/apply.
type ApplyRequest struct {
	Reason           string `json:"reason" binding:"required"`
	OrganizationName string `json:"organization_name"`
}

// Apply handles POST /organizers/apply.
func (h *Handler) Apply(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body ApplyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "reason required")
		return
	}
	req := &models.OrganizerRequest{
		ApplicantID:      userID,
		Reason:           body.Reason,
		OrganizationName: body.OrganizationName,
	}
	if err := h.repo.Create(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}
	h.fanout.BroadcastToAdmins(c.Request.Context(), models.NotificationInfo,
		"New organizer application",
		"A member applied to become an organizer.",
		"/admin/organizers/applications")
	response.Created(c, req)
}

// MyApplication handles GET /organizers/application. Returns the caller's
// most recent application.
func (h *Handler) MyApplication(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	req, err := h.repo.GetLatestByApplicant(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, req)
}

// List handles GET /admin/organizers/applications?status=pending.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListByStatus(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Internal(c, "failed to list applications")
		return
	}
	response.OK(c, list)
}

// HandleRequest is the body for POST /admin/organizers/applications/:id/handle.
type HandleRequest struct {
	Status       string `json:"status" binding:"required"`
	AdminComment string `json:"admin_comment"`
}

// Handle handles POST /admin/organizers/applications/:id/handle.
func (h *Handler) Handle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body HandleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	_, err = h.engine.Decide(c.Request.Context(), workflow.KindOrganizerRequest, id,
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
