package tasks

import (
	"encoding/json"
	"time"

	"capturemoments/models"

	"github.com/hibiken/asynq"
)

const (
	TypeBookingEvent    = "booking:event"
	TypeBookingReminder = "booking:reminder"
	TypeExpirePending   = "booking:expire-pending"
	TypeCompleteElapsed = "booking:complete-elapsed"
)

// NewEventTask wraps a lifecycle event for delivery by the worker.
func NewEventTask(ev models.BookingEvent) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingEvent, b)
	opts := []asynq.Option{asynq.MaxRetry(5)}
	return task, opts, nil
}

// NewReminderTask schedules a reminder for fireAt. The task id is derived
// from the booking so confirming twice never schedules two reminders.
func NewReminderTask(b models.Booking, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	payload := models.ReminderPayload{
		BookingID: b.ID,
		Start:     b.Interval.Start,
		FireAt:    fireAt,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingReminder, raw)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(ReminderTaskID(b.ID)),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}

func ReminderTaskID(bookingID string) string {
	return "reminder-" + bookingID
}

// NewSweepTask builds a payload-less periodic task.
func NewSweepTask(typename string) *asynq.Task {
	return asynq.NewTask(typename, nil)
}

func ParseEvent(t *asynq.Task) (models.BookingEvent, error) {
	var ev models.BookingEvent
	err := json.Unmarshal(t.Payload(), &ev)
	return ev, err
}

func ParseReminder(t *asynq.Task) (models.ReminderPayload, error) {
	var p models.ReminderPayload
	err := json.Unmarshal(t.Payload(), &p)
	return p, err
}
