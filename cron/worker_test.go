package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"capturemoments/models"
	"capturemoments/services/errs"
	"capturemoments/services/tasks"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
)

type stubBookings map[string]models.Booking

func (s stubBookings) GetBooking(_ context.Context, id, _ string) (*models.Booking, error) {
	b, ok := s[id]
	if !ok {
		return nil, errs.NotFound("booking %s", id)
	}
	return &b, nil
}

type stubSweeper struct {
	expired, completed int
	err                error
}

func (s *stubSweeper) ExpirePending(context.Context) (int, error) {
	s.expired++
	return 1, s.err
}

func (s *stubSweeper) CompleteElapsed(context.Context) (int, error) {
	s.completed++
	return 0, s.err
}

type countingPusher struct{ topics []string }

func (p *countingPusher) Send(_ context.Context, m *messaging.Message) (string, error) {
	p.topics = append(p.topics, m.Topic)
	return "ok", nil
}

func reminderFor(t *testing.T, b models.Booking) *asynq.Task {
	t.Helper()
	task, _, err := tasks.NewReminderTask(b, b.Interval.Start.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	return task
}

func TestReminderOnlyForConfirmedBookings(t *testing.T) {
	start := time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)
	iv := models.Interval{Start: start, End: start.Add(time.Hour)}
	confirmed := models.Booking{ID: "b1", ProviderID: "p1", ClientID: "c1", Status: models.StatusConfirmed, Interval: iv}
	cancelled := models.Booking{ID: "b2", ProviderID: "p1", ClientID: "c2", Status: models.StatusCancelled, Interval: iv}

	pusher := &countingPusher{}
	h := Handlers{Bookings: stubBookings{"b1": confirmed, "b2": cancelled}, Sweeper: &stubSweeper{}, Pusher: pusher}
	mux := NewMux(h)
	ctx := context.Background()

	for _, b := range []models.Booking{confirmed, cancelled, {ID: "gone", Interval: iv}} {
		if err := mux.ProcessTask(ctx, reminderFor(t, b)); err != nil {
			t.Fatalf("%s: %v", b.ID, err)
		}
	}
	if len(pusher.topics) != 2 || pusher.topics[0] != "provider_p1" || pusher.topics[1] != "client_c1" {
		t.Fatalf("pushed %v", pusher.topics)
	}
}

func TestEventTaskIsDelivered(t *testing.T) {
	pusher := &countingPusher{}
	mux := NewMux(Handlers{Bookings: stubBookings{}, Sweeper: &stubSweeper{}, Pusher: pusher})
	task, _, err := tasks.NewEventTask(models.BookingEvent{BookingID: "b1", ProviderID: "p1", ClientID: "c1", Status: models.StatusConfirmed})
	if err != nil {
		t.Fatal(err)
	}
	if err := mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	if len(pusher.topics) != 2 {
		t.Fatalf("pushed %v", pusher.topics)
	}

	bad := asynq.NewTask(tasks.TypeBookingEvent, []byte("not json"))
	if err := mux.ProcessTask(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry, got %v", err)
	}
}

func TestSweepTasksRunSweeper(t *testing.T) {
	sw := &stubSweeper{}
	mux := NewMux(Handlers{Bookings: stubBookings{}, Sweeper: sw})
	ctx := context.Background()
	if err := mux.ProcessTask(ctx, tasks.NewSweepTask(tasks.TypeExpirePending)); err != nil {
		t.Fatal(err)
	}
	if err := mux.ProcessTask(ctx, tasks.NewSweepTask(tasks.TypeCompleteElapsed)); err != nil {
		t.Fatal(err)
	}
	if sw.expired != 1 || sw.completed != 1 {
		t.Fatalf("expired=%d completed=%d", sw.expired, sw.completed)
	}

	sw.err = errors.New("mongo down")
	if err := mux.ProcessTask(ctx, tasks.NewSweepTask(tasks.TypeExpirePending)); err == nil {
		t.Fatal("sweep failure should be retried")
	}
}

func TestRunLocalSweepsStopsWithContext(t *testing.T) {
	sw := &stubSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunLocalSweeps(ctx, sw, 5*time.Millisecond, time.Hour, nil)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeps did not stop")
	}
	if sw.expired == 0 {
		t.Fatal("expire sweep never ran")
	}
}
