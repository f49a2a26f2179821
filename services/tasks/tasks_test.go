package tasks

import (
	"testing"
	"time"

	"capturemoments/models"

	"github.com/hibiken/asynq"
)

func TestReminderTaskIsScheduledAndDeduplicated(t *testing.T) {
	start := time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)
	fireAt := start.Add(-24 * time.Hour)
	b := models.Booking{ID: "b1", Interval: models.Interval{Start: start, End: start.Add(time.Hour)}}

	task, opts, err := NewReminderTask(b, fireAt)
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TypeBookingReminder {
		t.Fatalf("type %q", task.Type())
	}

	var sawProcessAt, sawID bool
	for _, o := range opts {
		switch o.Type() {
		case asynq.ProcessAtOpt:
			sawProcessAt = o.Value().(time.Time).Equal(fireAt)
		case asynq.TaskIDOpt:
			sawID = o.Value().(string) == "reminder-b1"
		}
	}
	if !sawProcessAt || !sawID {
		t.Fatalf("missing options: processAt=%v taskID=%v", sawProcessAt, sawID)
	}

	p, err := ParseReminder(task)
	if err != nil {
		t.Fatal(err)
	}
	if p.BookingID != "b1" || !p.Start.Equal(start) {
		t.Fatalf("payload %+v", p)
	}
}

func TestParseEventRejectsGarbage(t *testing.T) {
	if _, err := ParseEvent(asynq.NewTask(TypeBookingEvent, []byte("{"))); err == nil {
		t.Fatal("expected error")
	}
}
