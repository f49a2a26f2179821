package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"capturemoments/models"
	"capturemoments/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the part of *asynq.Client the publisher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueuePublisher hands lifecycle events and reminders to the background
// worker instead of pushing inline.
type QueuePublisher struct {
	queue  Enqueuer
	logger *zap.Logger
}

func NewQueuePublisher(queue Enqueuer, logger *zap.Logger) *QueuePublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueuePublisher{queue: queue, logger: logger}
}

func (p *QueuePublisher) Publish(ctx context.Context, ev models.BookingEvent) error {
	task, opts, err := tasks.NewEventTask(ev)
	if err != nil {
		return fmt.Errorf("encode event for booking %s: %w", ev.BookingID, err)
	}
	if _, err := p.queue.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue event for booking %s: %w", ev.BookingID, err)
	}
	p.logger.Debug("notification: event queued",
		zap.String("bookingID", ev.BookingID), zap.String("status", string(ev.Status)))
	return nil
}

func (p *QueuePublisher) ScheduleReminder(ctx context.Context, b models.Booking, at time.Time) error {
	task, opts, err := tasks.NewReminderTask(b, at)
	if err != nil {
		return fmt.Errorf("encode reminder for booking %s: %w", b.ID, err)
	}
	_, err = p.queue.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue reminder for booking %s: %w", b.ID, err)
	}
	p.logger.Info("notification: reminder scheduled",
		zap.String("bookingID", b.ID), zap.Time("fireAt", at))
	return nil
}

// LogPublisher only logs. Used when no queue is configured.
type LogPublisher struct {
	Logger *zap.Logger
}

func (p LogPublisher) Publish(_ context.Context, ev models.BookingEvent) error {
	p.logger().Info("booking event",
		zap.String("bookingID", ev.BookingID),
		zap.String("providerID", ev.ProviderID),
		zap.String("status", string(ev.Status)))
	return nil
}

func (p LogPublisher) ScheduleReminder(_ context.Context, b models.Booking, at time.Time) error {
	p.logger().Info("booking reminder (not scheduled)",
		zap.String("bookingID", b.ID), zap.Time("fireAt", at))
	return nil
}

func (p LogPublisher) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
