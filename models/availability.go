package models

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// AvailabilityWindow defines bookable time for a provider, either recurring on
// weekdays or on a single date. Start/End are minutes from local midnight.
type AvailabilityWindow struct {
	ID          string         `bson:"id" json:"id"`
	ProviderID  string         `bson:"providerId" json:"providerId"`
	Weekdays    []time.Weekday `bson:"weekdays,omitempty" json:"weekdays,omitempty"` // recurring when non-empty
	Date        string         `bson:"date,omitempty" json:"date,omitempty"`         // one-off, "2006-01-02"
	StartMinute int            `bson:"startMinute" json:"startMinute"`               // e.g. 540 for 09:00
	EndMinute   int            `bson:"endMinute" json:"endMinute"`
	SlotMinutes int            `bson:"slotMinutes" json:"slotMinutes"` // granularity, e.g. 30
	Timezone    string         `bson:"timezone,omitempty" json:"timezone,omitempty"`
}

// Recurring reports whether the window repeats weekly.
func (w AvailabilityWindow) Recurring() bool {
	return len(w.Weekdays) > 0
}

// Validate checks the window definition.
func (w AvailabilityWindow) Validate() error {
	if w.StartMinute < 0 || w.EndMinute > 24*60 || w.EndMinute <= w.StartMinute {
		return fmt.Errorf("window minutes must satisfy 0 <= start < end <= 1440, got %d-%d", w.StartMinute, w.EndMinute)
	}
	if w.SlotMinutes <= 0 {
		return fmt.Errorf("slot granularity must be positive")
	}
	if (w.EndMinute-w.StartMinute)%w.SlotMinutes != 0 {
		return fmt.Errorf("window length %d is not a multiple of slot granularity %d", w.EndMinute-w.StartMinute, w.SlotMinutes)
	}
	if !w.Recurring() {
		if _, err := time.Parse(DateLayout, w.Date); err != nil {
			return fmt.Errorf("one-off window needs a date: %w", err)
		}
	}
	if _, err := w.location(); err != nil {
		return err
	}
	return nil
}

func (w AvailabilityWindow) location() (*time.Location, error) {
	if w.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", w.Timezone, err)
	}
	return loc, nil
}

// Local returns t in the window's timezone.
func (w AvailabilityWindow) Local(t time.Time) time.Time {
	loc, err := w.location()
	if err != nil {
		return t
	}
	return t.In(loc)
}

func (w AvailabilityWindow) activeOn(day time.Time) bool {
	if !w.Recurring() {
		return day.Format(DateLayout) == w.Date
	}
	for _, wd := range w.Weekdays {
		if day.Weekday() == wd {
			return true
		}
	}
	return false
}

// Occurrences returns the concrete window intervals that intersect r,
// in chronological order.
func (w AvailabilityWindow) Occurrences(r Interval) []Interval {
	loc, err := w.location()
	if err != nil || !r.Valid() {
		return nil
	}
	from := r.Start.In(loc)
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -1)
	var out []Interval
	for ; day.Before(r.End); day = day.AddDate(0, 0, 1) {
		if !w.activeOn(day) {
			continue
		}
		occ := Interval{
			Start: time.Date(day.Year(), day.Month(), day.Day(), 0, w.StartMinute, 0, 0, loc),
			End:   time.Date(day.Year(), day.Month(), day.Day(), 0, w.EndMinute, 0, 0, loc),
		}
		if occ.Overlaps(r) {
			out = append(out, occ)
		}
	}
	return out
}

// Slots cuts every occurrence intersecting r into granularity-sized slots
// that lie entirely inside r.
func (w AvailabilityWindow) Slots(r Interval) []Interval {
	step := time.Duration(w.SlotMinutes) * time.Minute
	var out []Interval
	for _, occ := range w.Occurrences(r) {
		for s := occ.Start; s.Add(step).Compare(occ.End) <= 0; s = s.Add(step) {
			slot := Interval{Start: s, End: s.Add(step)}
			if r.Contains(slot) {
				out = append(out, slot)
			}
		}
	}
	return out
}

// Admits reports whether iv lies inside one occurrence and is aligned to the
// window granularity.
func (w AvailabilityWindow) Admits(iv Interval) bool {
	step := time.Duration(w.SlotMinutes) * time.Minute
	for _, occ := range w.Occurrences(iv) {
		if !occ.Contains(iv) {
			continue
		}
		if iv.Start.Sub(occ.Start)%step == 0 && iv.Duration()%step == 0 {
			return true
		}
	}
	return false
}
