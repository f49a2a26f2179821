package slots

import (
	"context"
	"sort"
	"strconv"
	"time"

	"capturemoments/config"
	"capturemoments/models"
)

// Preferences weigh start times when suggesting slots. Hours are local to
// the window that admits the slot.
type Preferences struct {
	BaseScore      float64
	HourBonus      map[int]float64 // start hour -> bonus
	EarliestHour   int             // starts before this hour are penalised
	LatestHour     int             // starts after this hour are penalised
	OffHoursCost   float64
	WeekendBonus   float64
	RecommendAbove float64
}

func DefaultPreferences() Preferences {
	return Preferences{
		BaseScore: 0.5,
		HourBonus: map[int]float64{
			10: 0.2, 11: 0.2, 12: 0.2, // late morning suits events
			16: 0.3, 17: 0.3, 18: 0.3, // golden hour
		},
		EarliestHour:   9,
		LatestHour:     19,
		OffHoursCost:   0.2,
		WeekendBonus:   0.1,
		RecommendAbove: 0.7,
	}
}

func PreferencesFrom(c config.Config) Preferences {
	p := Preferences{
		BaseScore:      c.SlotBaseScore,
		HourBonus:      make(map[int]float64, len(c.SlotHourBonus)),
		EarliestHour:   c.SlotEarliestHour,
		LatestHour:     c.SlotLatestHour,
		OffHoursCost:   c.SlotOffHoursCost,
		WeekendBonus:   c.SlotWeekendBonus,
		RecommendAbove: c.SlotRecommendAbove,
	}
	for k, v := range c.SlotHourBonus {
		if h, err := strconv.Atoi(k); err == nil {
			p.HourBonus[h] = v
		}
	}
	return p
}

// ScoreStart scores a local start time in [0,1].
func ScoreStart(p Preferences, local time.Time) float64 {
	h := local.Hour()
	score := p.BaseScore + p.HourBonus[h]
	if h < p.EarliestHour || h > p.LatestHour {
		score -= p.OffHoursCost
	}
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		score += p.WeekendBonus
	}
	return min(1, max(0, score))
}

// Suggest scores every open run of length d inside r, best first. Equal
// scores keep the earlier start first.
func Suggest(windows []models.AvailabilityWindow, held []models.Interval, r models.Interval, d time.Duration, p Preferences) []models.SuggestedSlot {
	var out []models.SuggestedSlot
	for iv := range runs(openSeq(windows, held, r), windows, d) {
		w := windows[admittedBy(windows, iv)]
		score := ScoreStart(p, w.Local(iv.Start))
		out = append(out, models.SuggestedSlot{
			Interval:    iv,
			Score:       score,
			Recommended: score > p.RecommendAbove,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// SuggestSlots ranks the provider's open runs of length d inside r.
func (s *Store) SuggestSlots(ctx context.Context, providerID string, r models.Interval, d time.Duration, p Preferences) ([]models.SuggestedSlot, error) {
	windows, err := s.Windows(ctx, providerID)
	if err != nil {
		return nil, err
	}
	held, err := s.Held(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return Suggest(windows, held, r, d, p), nil
}
