package handlers

import (
	"context"
	"net/http"
	"time"

	"capturemoments/middleware"
	"capturemoments/models"
	"capturemoments/services/booking"
	"capturemoments/services/errs"
	"capturemoments/services/feedback"
	"capturemoments/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Engine is the booking core as seen by the HTTP adapter.
type Engine interface {
	ListOpenSlots(ctx context.Context, providerID string, r models.Interval) ([]models.Interval, error)
	Quote(ctx context.Context, providerID string, iv models.Interval, loc models.Location) (*models.Quote, error)
	SetAvailability(ctx context.Context, providerID string, windows []models.AvailabilityWindow) ([]models.AvailabilityWindow, error)
	Rank(ctx context.Context, q models.ClientQuery) ([]models.RankedProvider, error)
	RequestBooking(ctx context.Context, req booking.Request) (*models.Booking, error)
	ListClientBookings(ctx context.Context, clientID string) ([]models.Booking, error)
	ListProviderBookings(ctx context.Context, providerID string, statuses ...models.BookingStatus) ([]models.Booking, error)
	SuggestSlots(ctx context.Context, providerID string, r models.Interval, d time.Duration) ([]models.SuggestedSlot, error)
	GetBooking(ctx context.Context, bookingID, clientID string) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, reason string) (*models.Booking, error)
	PayBooking(ctx context.Context, bookingID, clientID, paymentMethodID string) (*models.Booking, error)
}

type FeedbackService interface {
	SubmitFeedback(ctx context.Context, bookingID, clientID string, rating float64, text string) (*models.FeedbackRecord, error)
	Insights(ctx context.Context, providerID string) (*feedback.Insights, error)
}

type BookingHandler struct {
	engine   Engine
	feedback FeedbackService
	logger   *zap.Logger
}

func NewBookingHandler(engine Engine, fb FeedbackService, logger *zap.Logger) *BookingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingHandler{engine: engine, feedback: fb, logger: logger}
}

// RequestBooking holds a slot for the calling client.
func (h *BookingHandler) RequestBooking(c *gin.Context) {
	var req booking.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid booking request", err.Error())
		return
	}
	req.ClientID = middleware.Subject(c)

	b, err := h.engine.RequestBooking(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	list, err := h.engine.ListClientBookings(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, ok := h.visibleBooking(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, b)
}

// ConfirmBooking is for the booked provider or an admin; clients confirm by
// paying.
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	if middleware.Role(c) == utils.RoleClient {
		utils.JSONError(c, http.StatusForbidden, "clients confirm bookings by paying", "")
		return
	}
	if _, ok := h.visibleBooking(c); !ok {
		return
	}
	b, err := h.engine.ConfirmBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	if _, ok := h.visibleBooking(c); !ok {
		return
	}
	reason := booking.ReasonProvider
	if middleware.Role(c) == utils.RoleClient {
		reason = booking.ReasonClient
	}
	b, err := h.engine.CancelBooking(c.Request.Context(), c.Param("id"), reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) PayBooking(c *gin.Context) {
	var body struct {
		PaymentMethodID string `json:"paymentMethodId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payment request", err.Error())
		return
	}
	b, err := h.engine.PayBooking(c.Request.Context(), c.Param("id"), middleware.Subject(c), body.PaymentMethodID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	status := http.StatusOK
	if b.Status == models.StatusCancelled {
		status = http.StatusPaymentRequired
	}
	c.JSON(status, b)
}

func (h *BookingHandler) SubmitFeedback(c *gin.Context) {
	var body struct {
		Rating float64 `json:"rating" binding:"required"`
		Text   string  `json:"text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid feedback", err.Error())
		return
	}
	rec, err := h.feedback.SubmitFeedback(c.Request.Context(), c.Param("id"), middleware.Subject(c), body.Rating, body.Text)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Recommend ranks providers for the calling client.
func (h *BookingHandler) Recommend(c *gin.Context) {
	var body struct {
		Tags            []string        `json:"tags" binding:"required,min=1"`
		Location        models.Location `json:"location"`
		Window          models.Interval `json:"window"`
		DurationMinutes int             `json:"durationMinutes" binding:"min=0"`
		Limit           int             `json:"limit" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid recommendation request", err.Error())
		return
	}
	ranked, err := h.engine.Rank(c.Request.Context(), models.ClientQuery{
		ClientID: middleware.Subject(c),
		Tags:     body.Tags,
		Location: body.Location,
		Window:   body.Window,
		Duration: time.Duration(body.DurationMinutes) * time.Minute,
		Limit:    body.Limit,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Debug("recommendations served",
		zap.Strings("tags", body.Tags), zap.Int("results", len(ranked)))
	c.JSON(http.StatusOK, gin.H{"providers": ranked})
}

// visibleBooking loads the :id booking if the caller is its client, its
// provider, or an admin. Anyone else gets 404.
func (h *BookingHandler) visibleBooking(c *gin.Context) (*models.Booking, bool) {
	id := c.Param("id")
	ctx := c.Request.Context()
	subject := middleware.Subject(c)

	var (
		b   *models.Booking
		err error
	)
	switch middleware.Role(c) {
	case utils.RoleClient:
		b, err = h.engine.GetBooking(ctx, id, subject)
	case utils.RoleProvider:
		b, err = h.engine.GetBooking(ctx, id, "")
		if err == nil && b.ProviderID != subject {
			err = errs.NotFound("booking %s", id)
		}
	case utils.RoleAdmin:
		b, err = h.engine.GetBooking(ctx, id, "")
	default:
		err = errs.NotFound("booking %s", id)
	}
	if err != nil {
		utils.RespondError(c, err)
		return nil, false
	}
	return b, true
}
