package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus]map[BookingStatus]struct{}{
	StatusPending:   {StatusConfirmed: {}, StatusCancelled: {}},
	StatusConfirmed: {StatusCancelled: {}, StatusCompleted: {}},
	StatusCancelled: {},
	StatusCompleted: {},
}

// ParseBookingStatus reports whether s names a booking status.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	st := BookingStatus(s)
	_, ok := bookingTransitions[st]
	return st, ok
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	allowed, ok := bookingTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Holds reports whether a booking in this status blocks its interval.
func (s BookingStatus) Holds() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking is a client's reservation of a provider interval.
type Booking struct {
	ID               string        `bson:"id" json:"id"`
	ProviderID       string        `bson:"providerId" json:"providerId"`
	ClientID         string        `bson:"clientId" json:"clientId"`
	Interval         Interval      `bson:"interval" json:"interval"`
	Status           BookingStatus `bson:"status" json:"status"`
	Price            float64       `bson:"price" json:"price"`
	Currency         string        `bson:"currency" json:"currency"`
	Location         Location      `bson:"location" json:"location"`
	QuoteID          string        `bson:"quoteId,omitempty" json:"quoteId,omitempty"`
	ReservationToken string        `bson:"reservationToken" json:"-"`
	PaymentRef       string        `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`
	RefundRef        string        `bson:"refundRef,omitempty" json:"refundRef,omitempty"`
	CancelReason     string        `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CreatedAt        time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt" json:"updatedAt"`
	Version          int           `bson:"version" json:"version"`
}

// BookingEvent is the lifecycle fact emitted to the notification collaborator.
type BookingEvent struct {
	BookingID  string        `json:"bookingId"`
	ProviderID string        `json:"providerId"`
	ClientID   string        `json:"clientId"`
	Status     BookingStatus `json:"status"`
	Timestamp  time.Time     `json:"timestamp"`
}

// EventFor builds the lifecycle event for the booking's current status.
func EventFor(b Booking, at time.Time) BookingEvent {
	return BookingEvent{
		BookingID:  b.ID,
		ProviderID: b.ProviderID,
		ClientID:   b.ClientID,
		Status:     b.Status,
		Timestamp:  at,
	}
}
