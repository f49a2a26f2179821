package slots

import (
	"context"
	"sort"
	"sync/atomic"

	"capturemoments/models"
	"capturemoments/services/errs"
)

// hold is one pending or confirmed reservation on a provider calendar.
type hold struct {
	token     ReservationToken
	confirmed bool
}

// calendar is a provider's exclusive section. sem is a one-slot semaphore so
// that entering the section can honour a context deadline.
type calendar struct {
	sem    chan struct{}
	loaded atomic.Bool
	holds  map[string]hold // keyed by token id
	// released holds token ids dropped before hydration finished, so a
	// snapshot fetched earlier cannot bring them back.
	released map[string]struct{}
}

func newCalendar() *calendar {
	return &calendar{
		sem:      make(chan struct{}, 1),
		holds:    make(map[string]hold),
		released: make(map[string]struct{}),
	}
}

func (c *calendar) enter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return busy(err)
	}
	select {
	case c.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return busy(ctx.Err())
	}
}

func (c *calendar) leave() {
	<-c.sem
}

func busy(cause error) error {
	return &errs.Error{
		Kind:    errs.ErrSlotStoreBusy.Kind,
		Code:    errs.ErrSlotStoreBusy.Code,
		Message: errs.ErrSlotStoreBusy.Message,
		Err:     cause,
	}
}

// firstOverlap returns the earliest hold overlapping iv. Caller must be inside the section.
func (c *calendar) firstOverlap(iv models.Interval) (hold, bool) {
	var found []hold
	for _, h := range c.holds {
		if h.token.Interval.Overlaps(iv) {
			found = append(found, h)
		}
	}
	if len(found) == 0 {
		return hold{}, false
	}
	sort.Slice(found, func(i, j int) bool {
		a, b := found[i].token, found[j].token
		if !a.Interval.Start.Equal(b.Interval.Start) {
			return a.Interval.Start.Before(b.Interval.Start)
		}
		return a.BookingID < b.BookingID
	})
	return found[0], true
}

// intervals copies the held intervals sorted by start. Caller must be inside the section.
func (c *calendar) intervals() []models.Interval {
	out := make([]models.Interval, 0, len(c.holds))
	for _, h := range c.holds {
		out = append(out, h.token.Interval)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
