package ranking

import (
	"context"
	"time"

	providerRepo "capturemoments/database/repository/provider"
	"capturemoments/models"
	"capturemoments/services/errs"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type SlotFinder interface {
	FirstOpen(ctx context.Context, providerID string, r models.Interval, d time.Duration) (models.Interval, bool, error)
}

type Quoter interface {
	Quote(ctx context.Context, provider models.Provider, iv models.Interval, loc models.Location) (models.Quote, error)
}

type TrendSource interface {
	Trend(ctx context.Context, providerID string) (float64, error)
}

// Ranker gathers candidates from the provider store and ranks them. Every
// call recomputes from current data.
type Ranker struct {
	providers   providerRepo.ProviderRepository
	slots       SlotFinder
	quoter      Quoter
	trends      TrendSource
	weights     Weights
	parallelism int
	logger      *zap.Logger
}

func NewRanker(providers providerRepo.ProviderRepository, slots SlotFinder, quoter Quoter, trends TrendSource, w Weights, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{
		providers:   providers,
		slots:       slots,
		quoter:      quoter,
		trends:      trends,
		weights:     w,
		parallelism: 8,
		logger:      logger,
	}
}

// Rank returns active providers sharing a requested tag and having an open
// slot of the requested duration in the window, best first.
func (r *Ranker) Rank(ctx context.Context, q models.ClientQuery) ([]models.RankedProvider, error) {
	if !q.Window.Valid() {
		return nil, errs.InvalidInterval("query window must have positive duration")
	}
	providers, err := r.providers.ListActive(ctx, q.Tags)
	if err != nil {
		return nil, errs.Unavailable("provider store", err)
	}

	// one slot per provider, written only by that provider's goroutine
	found := make([]*Candidate, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, p := range providers {
		if !p.Active {
			continue
		}
		g.Go(func() error {
			c, err := r.candidate(gctx, q, p)
			if err != nil {
				return err
			}
			found[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(found))
	for _, c := range found {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	ranked := Rank(q, candidates, r.weights)
	r.logger.Debug("ranking: ranked providers",
		zap.Int("active", len(providers)),
		zap.Int("eligible", len(candidates)),
		zap.Int("returned", len(ranked)))
	return ranked, nil
}

// candidate returns nil for a provider with no open slot.
func (r *Ranker) candidate(ctx context.Context, q models.ClientQuery, p models.Provider) (*Candidate, error) {
	slot, ok, err := r.slots.FirstOpen(ctx, p.ID, q.Window, q.Duration)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	c := &Candidate{Provider: p, NextSlot: slot}

	if r.trends != nil {
		trend, err := r.trends.Trend(ctx, p.ID)
		if err != nil {
			r.logger.Warn("ranking: sentiment unavailable, using neutral trend",
				zap.String("providerID", p.ID), zap.Error(err))
		} else {
			c.Trend = trend
		}
	}
	if r.quoter != nil {
		quote, err := r.quoter.Quote(ctx, p, slot, q.Location)
		if err != nil {
			r.logger.Warn("ranking: quote unavailable, using neutral price",
				zap.String("providerID", p.ID), zap.Error(err))
		} else {
			c.Quote = &quote
		}
	}
	return c, nil
}
