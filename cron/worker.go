package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"capturemoments/config"
	"capturemoments/models"
	"capturemoments/services/errs"
	"capturemoments/services/notification"
	"capturemoments/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// BookingReader lets the reminder handler check a booking is still on.
type BookingReader interface {
	GetBooking(ctx context.Context, bookingID, clientID string) (*models.Booking, error)
}

// Sweeper runs the periodic lifecycle sweeps.
type Sweeper interface {
	ExpirePending(ctx context.Context) (int, error)
	CompleteElapsed(ctx context.Context) (int, error)
}

type Handlers struct {
	Bookings BookingReader
	Sweeper  Sweeper
	Pusher   notification.Pusher
	Logger   *zap.Logger
}

func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

func NewMux(h Handlers) *asynq.ServeMux {
	if h.Logger == nil {
		h.Logger = zap.NewNop()
	}
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingEvent, h.handleEvent)
	mux.HandleFunc(tasks.TypeBookingReminder, h.handleReminder)
	mux.HandleFunc(tasks.TypeExpirePending, h.handleSweep("expire pending", h.Sweeper.ExpirePending))
	mux.HandleFunc(tasks.TypeCompleteElapsed, h.handleSweep("complete elapsed", h.Sweeper.CompleteElapsed))
	return mux
}

// StartWorker starts the queue server in the background, retrying startup
// with a growing delay.
func StartWorker(redisOpt asynq.RedisClientOpt, mux *asynq.ServeMux, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	go monitorRedisConnection(redisOpt, logger)

	go func() {
		logger.Info("worker: starting")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("worker: failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("worker: giving up; background delivery and sweeps are disabled")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

// StartScheduler enqueues the sweeps periodically.
func StartScheduler(redisOpt asynq.RedisClientOpt, logger *zap.Logger) (*asynq.Scheduler, error) {
	s := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC})
	for spec, typename := range map[string]string{
		"@every 1m": tasks.TypeExpirePending,
		"@every 5m": tasks.TypeCompleteElapsed,
	} {
		if _, err := s.Register(spec, tasks.NewSweepTask(typename), asynq.MaxRetry(0)); err != nil {
			return nil, fmt.Errorf("register %s: %w", typename, err)
		}
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	logger.Info("scheduler: sweeps registered")
	return s, nil
}

func (h Handlers) handleEvent(ctx context.Context, task *asynq.Task) error {
	ev, err := tasks.ParseEvent(task)
	if err != nil {
		h.Logger.Error("worker: invalid event payload", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if h.Pusher == nil {
		return nil
	}
	if err := notification.Deliver(ctx, h.Pusher, ev); err != nil {
		h.Logger.Warn("worker: event delivery failed",
			zap.String("bookingID", ev.BookingID), zap.Error(err))
		return err
	}
	return nil
}

func (h Handlers) handleReminder(ctx context.Context, task *asynq.Task) error {
	p, err := tasks.ParseReminder(task)
	if err != nil {
		h.Logger.Error("worker: invalid reminder payload", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	b, err := h.Bookings.GetBooking(ctx, p.BookingID, "")
	if errs.Is(err, errs.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if b.Status != models.StatusConfirmed || !b.Interval.Start.Equal(p.Start) {
		h.Logger.Debug("worker: dropping stale reminder",
			zap.String("bookingID", b.ID), zap.String("status", string(b.Status)))
		return nil
	}
	if h.Pusher == nil {
		return nil
	}
	return notification.Remind(ctx, h.Pusher, *b)
}

func (h Handlers) handleSweep(name string, sweep func(context.Context) (int, error)) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := sweep(ctx)
		if err != nil {
			h.Logger.Error("worker: sweep failed", zap.String("sweep", name), zap.Int("processed", n), zap.Error(err))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if n > 0 {
			h.Logger.Info("worker: sweep done", zap.String("sweep", name), zap.Int("processed", n))
		}
		return nil
	}
}

// monitorRedisConnection pings the queue database so a lost connection
// shows up in the logs.
func monitorRedisConnection(opt asynq.RedisClientOpt, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
	defer client.Close()

	ctx := context.Background()
	for {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("worker: redis connection lost", zap.Error(err))
		}
		time.Sleep(10 * time.Second)
	}
}
