// Package notifications implements in-app notification storage and the
// best-effort fan-out invoked by workflow transitions.
package notifications

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/pkg/queue"
)

// Sink persists a notification record.
type Sink interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Enqueuer hands a notification to the delivery worker.
type Enqueuer interface {
	EnqueueNotification(ctx context.Context, payload queue.NotificationPayload) error
}

// Publisher pushes a stored notification to connected clients.
type Publisher interface {
	PublishNotification(n *models.Notification) error
}

// AdminLister resolves broadcast recipients.
type AdminLister interface {
	ListAdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Fanout delivers workflow notifications. Delivery is fire-and-forget: every
// failure is logged and swallowed so a notification problem can never roll
// back the workflow transition that triggered it.
type Fanout struct {
	sink   Sink
	queue  Enqueuer  // nil: deliver directly through sink
	pub    Publisher // nil: no realtime push on the direct path
	admins AdminLister
	logger *zap.Logger
}

// NewFanout creates a notification fan-out. queue and pub may be nil.
func NewFanout(sink Sink, q Enqueuer, pub Publisher, admins AdminLister, logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{sink: sink, queue: q, pub: pub, admins: admins, logger: logger}
}

// Notify delivers one notification, best-effort. With a queue configured the
// job is handed to the worker; otherwise (or when enqueueing fails) the
// record is written directly.
func (f *Fanout) Notify(ctx context.Context, recipientID uuid.UUID, kind models.NotificationKind, title, message, link string) {
	if f.queue != nil {
		err := f.queue.EnqueueNotification(ctx, queue.NotificationPayload{
			RecipientID: recipientID,
			Kind:        string(kind),
			Title:       title,
			Message:     message,
			Link:        link,
		})
		if err == nil {
			return
		}
		f.logger.Warn("notification enqueue failed, writing directly",
			zap.Error(err), zap.String("recipient_id", recipientID.String()))
	}

	n := &models.Notification{
		RecipientID: recipientID,
		Kind:        kind,
		Title:       title,
		Message:     message,
		Link:        link,
	}
	if err := f.sink.Create(ctx, n); err != nil {
		f.logger.Error("notification delivery failed",
			zap.Error(err),
			zap.String("recipient_id", recipientID.String()),
			zap.String("title", title))
		return
	}
	if f.pub != nil {
		if err := f.pub.PublishNotification(n); err != nil {
			f.logger.Warn("notification push failed", zap.Error(err))
		}
	}
}

// BroadcastToAdmins notifies every admin account. Partial failures do not
// abort the remaining deliveries.
func (f *Fanout) BroadcastToAdmins(ctx context.Context, kind models.NotificationKind, title, message, link string) {
	ids, err := f.admins.ListAdminIDs(ctx)
	if err != nil {
		f.logger.Error("admin broadcast: resolve recipients failed", zap.Error(err))
		return
	}
	for _, id := range ids {
		f.Notify(ctx, id, kind, title, message, link)
	}
}
