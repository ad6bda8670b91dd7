// Package worker runs the notification delivery loop: dequeue, persist,
// push.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/internal/notifications"
	"github.com/gatherhub/backend/pkg/queue"
)

// NotificationProcessor processes notification jobs: write the record, then
// push it to connected clients.
type NotificationProcessor struct {
	repo   *notifications.Repository
	pub    notifications.Publisher // nil: store only
	queue  *queue.Queue
	logger *zap.Logger
}

// NewNotificationProcessor creates a notification delivery processor.
func NewNotificationProcessor(repo *notifications.Repository, pub notifications.Publisher, q *queue.Queue, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{repo: repo, pub: pub, queue: q, logger: logger}
}

// Process executes one notification delivery job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	n := &models.Notification{
		RecipientID: payload.RecipientID,
		Kind:        models.NotificationKind(payload.Kind),
		Title:       payload.Title,
		Message:     payload.Message,
		Link:        payload.Link,
	}
	if err := p.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	if p.pub != nil {
		// Push failures are not retried; the record is already stored and
		// the client catches up on its next list fetch.
		if err := p.pub.PublishNotification(n); err != nil {
			p.logger.Warn("notification push failed",
				zap.Error(err), zap.String("recipient_id", n.RecipientID.String()))
		}
	}

	p.logger.Debug("notification delivered",
		zap.String("notification_id", n.ID.String()),
		zap.String("recipient_id", n.RecipientID.String()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
