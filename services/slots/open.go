package slots

import (
	"context"
	"iter"
	"slices"
	"sort"
	"time"

	"capturemoments/models"
)

const chunk = 24 * time.Hour

// OpenSlots returns the provider's open slots inside r: window slots minus
// every pending or confirmed hold. Inputs are snapshotted when called; the
// sequence itself is produced lazily one day at a time and can be ranged
// over again without keeping any cursor.
func (s *Store) OpenSlots(ctx context.Context, providerID string, r models.Interval) (iter.Seq[models.Interval], error) {
	windows, err := s.Windows(ctx, providerID)
	if err != nil {
		return nil, err
	}
	held, err := s.Held(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return openSeq(windows, held, r), nil
}

// ListOpenSlots collects OpenSlots into a slice.
func (s *Store) ListOpenSlots(ctx context.Context, providerID string, r models.Interval) ([]models.Interval, error) {
	seq, err := s.OpenSlots(ctx, providerID, r)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

func openSeq(windows []models.AvailabilityWindow, held []models.Interval, r models.Interval) iter.Seq[models.Interval] {
	return func(yield func(models.Interval) bool) {
		if !r.Valid() {
			return
		}
		for cs := r.Start; cs.Before(r.End); cs = cs.Add(chunk) {
			ce := cs.Add(chunk)
			candEnd := ce.Add(chunk)
			if candEnd.After(r.End) {
				candEnd = r.End
			}
			cand := models.Interval{Start: cs, End: candEnd}

			var day []models.Interval
			for _, w := range windows {
				for _, slot := range w.Slots(cand) {
					if slot.Start.Before(ce) {
						day = append(day, slot)
					}
				}
			}
			sort.Slice(day, func(i, j int) bool {
				if !day[i].Start.Equal(day[j].Start) {
					return day[i].Start.Before(day[j].Start)
				}
				return day[i].End.Before(day[j].End)
			})

			var prev models.Interval
			for i, slot := range day {
				if i > 0 && slot.Equal(prev) {
					continue
				}
				prev = slot
				if blocked(held, slot) {
					continue
				}
				if !yield(slot) {
					return
				}
			}
		}
	}
}

func blocked(held []models.Interval, slot models.Interval) bool {
	for _, h := range held {
		if !h.Start.Before(slot.End) {
			break
		}
		if h.Overlaps(slot) {
			return true
		}
	}
	return false
}

// FirstOpen finds the earliest open interval of length d inside r that a
// single window admits. A non-positive d means one slot.
func (s *Store) FirstOpen(ctx context.Context, providerID string, r models.Interval, d time.Duration) (models.Interval, bool, error) {
	windows, err := s.Windows(ctx, providerID)
	if err != nil {
		return models.Interval{}, false, err
	}
	held, err := s.Held(ctx, providerID)
	if err != nil {
		return models.Interval{}, false, err
	}
	iv, ok := firstRun(openSeq(windows, held, r), windows, d)
	return iv, ok, nil
}

// HasOpenSlot reports whether FirstOpen would find anything.
func (s *Store) HasOpenSlot(ctx context.Context, providerID string, r models.Interval, d time.Duration) (bool, error) {
	_, ok, err := s.FirstOpen(ctx, providerID, r, d)
	return ok, err
}

func firstRun(open iter.Seq[models.Interval], windows []models.AvailabilityWindow, d time.Duration) (models.Interval, bool) {
	for iv := range runs(open, windows, d) {
		return iv, true
	}
	return models.Interval{}, false
}

// runs yields every open interval of length d that a single window admits,
// in start order. Candidates are anchored at the end of each open slot, so
// consecutive candidates step by the slot granularity.
func runs(open iter.Seq[models.Interval], windows []models.AvailabilityWindow, d time.Duration) iter.Seq[models.Interval] {
	return func(yield func(models.Interval) bool) {
		var run models.Interval
		for slot := range open {
			if d <= 0 {
				if !yield(slot) {
					return
				}
				continue
			}
			if run.End.Equal(slot.Start) {
				run.End = slot.End
			} else {
				run = slot
			}
			if run.Duration() < d {
				continue
			}
			cand := models.Interval{Start: slot.End.Add(-d), End: slot.End}
			if admittedBy(windows, cand) >= 0 {
				if !yield(cand) {
					return
				}
			}
		}
	}
}

// admittedBy returns the index of the first window admitting iv, or -1.
func admittedBy(windows []models.AvailabilityWindow, iv models.Interval) int {
	for i, w := range windows {
		if w.Admits(iv) {
			return i
		}
	}
	return -1
}
