package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"capturemoments/middleware"
	"capturemoments/models"
	"capturemoments/utils"

	"github.com/gin-gonic/gin"
)

// GetOpenSlots lists open slots of provider :id between ?from and ?to
// (RFC 3339).
func (h *BookingHandler) GetOpenSlots(c *gin.Context) {
	r, ok := intervalQuery(c, "from", "to")
	if !ok {
		return
	}
	open, err := h.engine.ListOpenSlots(c.Request.Context(), c.Param("id"), r)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providerId": c.Param("id"), "slots": open})
}

// GetQuote prices ?start..?end for provider :id. The shoot location comes
// from ?region and optionally ?lat/?lng.
func (h *BookingHandler) GetQuote(c *gin.Context) {
	iv, ok := intervalQuery(c, "start", "end")
	if !ok {
		return
	}
	loc := models.Location{Region: c.Query("region")}
	if c.Query("lat") != "" || c.Query("lng") != "" {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			utils.JSONError(c, http.StatusBadRequest, "lat and lng must both be numbers", "")
			return
		}
		loc.Lat, loc.Lng = &lat, &lng
	}
	q, err := h.engine.Quote(c.Request.Context(), c.Param("id"), iv, loc)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// SetAvailability replaces provider :id's windows. Providers may only edit
// their own calendar.
func (h *BookingHandler) SetAvailability(c *gin.Context) {
	providerID := c.Param("id")
	if middleware.Role(c) == utils.RoleProvider && middleware.Subject(c) != providerID {
		utils.JSONError(c, http.StatusForbidden, "providers can only edit their own availability", "")
		return
	}
	var body struct {
		Windows []models.AvailabilityWindow `json:"windows" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid availability", err.Error())
		return
	}
	windows, err := h.engine.SetAvailability(c.Request.Context(), providerID, body.Windows)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providerId": providerID, "windows": windows})
}

// GetProviderBookings lists provider :id's bookings, optionally filtered by
// ?status=pending,confirmed.
func (h *BookingHandler) GetProviderBookings(c *gin.Context) {
	providerID := c.Param("id")
	if middleware.Role(c) == utils.RoleProvider && middleware.Subject(c) != providerID {
		utils.JSONError(c, http.StatusForbidden, "providers can only list their own bookings", "")
		return
	}
	var statuses []models.BookingStatus
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			statuses = append(statuses, models.BookingStatus(strings.TrimSpace(part)))
		}
	}
	list, err := h.engine.ListProviderBookings(c.Request.Context(), providerID, statuses...)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if list == nil {
		list = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"providerId": providerID, "bookings": list})
}

// GetOptimalSlots suggests start times on ?date (YYYY-MM-DD, UTC) for a shoot
// of ?durationMinutes, best first. Duration defaults to two hours.
func (h *BookingHandler) GetOptimalSlots(c *gin.Context) {
	date, err := time.Parse(models.DateLayout, c.Query("date"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid date", "expected YYYY-MM-DD")
		return
	}
	minutes := 120
	if raw := c.Query("durationMinutes"); raw != "" {
		minutes, err = strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			utils.JSONError(c, http.StatusBadRequest, "durationMinutes must be a positive integer", "")
			return
		}
	}
	r := models.Interval{Start: date, End: date.Add(24 * time.Hour)}
	suggested, err := h.engine.SuggestSlots(c.Request.Context(), c.Param("id"), r, time.Duration(minutes)*time.Minute)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if suggested == nil {
		suggested = []models.SuggestedSlot{}
	}
	c.JSON(http.StatusOK, gin.H{"providerId": c.Param("id"), "date": c.Query("date"), "slots": suggested})
}

func (h *BookingHandler) GetInsights(c *gin.Context) {
	ins, err := h.feedback.Insights(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ins)
}

func intervalQuery(c *gin.Context, startKey, endKey string) (models.Interval, bool) {
	start, err := time.Parse(time.RFC3339, c.Query(startKey))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid "+startKey, "expected RFC 3339 time")
		return models.Interval{}, false
	}
	end, err := time.Parse(time.RFC3339, c.Query(endKey))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid "+endKey, "expected RFC 3339 time")
		return models.Interval{}, false
	}
	return models.Interval{Start: start.UTC(), End: end.UTC()}, true
}
