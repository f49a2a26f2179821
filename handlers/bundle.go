package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Provider calendar endpoints
	GetOpenSlots    gin.HandlerFunc
	GetQuote        gin.HandlerFunc
	SetAvailability gin.HandlerFunc
	GetInsights     gin.HandlerFunc
	GetOptimalSlots gin.HandlerFunc
	GetBookings     gin.HandlerFunc

	Recommend gin.HandlerFunc

	// Booking endpoints
	RequestBooking gin.HandlerFunc
	ListMyBookings gin.HandlerFunc
	GetBooking     gin.HandlerFunc
	ConfirmBooking gin.HandlerFunc
	CancelBooking  gin.HandlerFunc
	PayBooking     gin.HandlerFunc
	SubmitFeedback gin.HandlerFunc
}

func NewHandlerBundle(h *BookingHandler) *HandlerBundle {
	return &HandlerBundle{
		GetOpenSlots:    h.GetOpenSlots,
		GetQuote:        h.GetQuote,
		SetAvailability: h.SetAvailability,
		GetInsights:     h.GetInsights,
		GetOptimalSlots: h.GetOptimalSlots,
		GetBookings:     h.GetProviderBookings,
		Recommend:       h.Recommend,
		RequestBooking:  h.RequestBooking,
		ListMyBookings:  h.ListMyBookings,
		GetBooking:      h.GetBooking,
		ConfirmBooking:  h.ConfirmBooking,
		CancelBooking:   h.CancelBooking,
		PayBooking:      h.PayBooking,
		SubmitFeedback:  h.SubmitFeedback,
	}
}
