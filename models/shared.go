package models

import "time"

// ReminderPayload tells the worker which booking to remind about. The worker
// re-reads the booking, so a reminder for a cancelled booking is dropped.
type ReminderPayload struct {
	BookingID string    `json:"bookingId"`
	Start     time.Time `json:"start"`
	FireAt    time.Time `json:"fireAt"`
}
