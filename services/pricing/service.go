package pricing

import (
	"context"
	"time"

	demandRepo "capturemoments/database/repository/demand"
	"capturemoments/models"
	"capturemoments/services/errs"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service issues quotes from the demand log and remembers them so a later
// booking can redeem the exact price it was shown.
type Service struct {
	cfg    Config
	demand demandRepo.DemandLog
	cache  QuoteCache
	logger *zap.Logger
	now    func() time.Time
}

func NewService(cfg Config, demand demandRepo.DemandLog, cache QuoteCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cfg: cfg, demand: demand, cache: cache, logger: logger, now: time.Now}
}

func (s *Service) Config() Config { return s.cfg }

// Snapshot reads the demand counts relevant to a quote on iv.
func (s *Service) Snapshot(ctx context.Context, providerID string, iv models.Interval) (DemandSnapshot, error) {
	bucket := BucketOf(iv.Start, s.cfg.BucketSize)
	n := s.cfg.BaselineBuckets()
	from := bucket.Add(-time.Duration(n) * s.cfg.BucketSize)
	counts, err := s.demand.CountInBuckets(ctx, providerID, from, bucket.Add(s.cfg.BucketSize))
	if err != nil {
		return DemandSnapshot{}, errs.Unavailable("demand log", err)
	}
	return Summarize(counts, bucket, n), nil
}

// Summarize splits bucket counts into the current bucket and the mean of the
// n buckets before it. Empty buckets count as zero.
func Summarize(counts []demandRepo.BucketCount, bucket time.Time, n int) DemandSnapshot {
	var snap DemandSnapshot
	total := 0
	for _, c := range counts {
		switch {
		case c.Bucket.Equal(bucket):
			snap.Current += c.Count
		case c.Bucket.Before(bucket):
			total += c.Count
		}
	}
	if n > 0 {
		snap.Baseline = float64(total) / float64(n)
	}
	return snap
}

// Quote prices iv for the provider and caches the result for QuoteTTL.
func (s *Service) Quote(ctx context.Context, provider models.Provider, iv models.Interval, loc models.Location) (models.Quote, error) {
	if !iv.Valid() {
		return models.Quote{}, errs.InvalidInterval("interval must have positive duration")
	}
	snap, err := s.Snapshot(ctx, provider.ID, iv)
	if err != nil {
		return models.Quote{}, err
	}
	// without a version the quote is priced but never cached, so it cannot be redeemed
	version, err := s.cache.Version(ctx, provider.ID)
	cacheable := err == nil
	if err != nil {
		s.logger.Warn("pricing: quote cache unavailable, issuing unredeemable quote",
			zap.String("providerID", provider.ID), zap.Error(err))
	}
	amount, base, factors := Price(s.cfg, Inputs{Provider: provider, Interval: iv, Location: loc, Demand: snap})
	q := models.Quote{
		ID:              uuid.New().String(),
		ProviderID:      provider.ID,
		Interval:        iv,
		Location:        loc,
		BaseAmount:      base,
		Price:           amount,
		Currency:        provider.Currency,
		Factors:         factors,
		SnapshotVersion: version,
		ComputedAt:      s.now().UTC(),
	}
	if !cacheable {
		return q, nil
	}
	if err := s.cache.Put(ctx, q, s.cfg.QuoteTTL); err != nil {
		// the quote is still valid to show; it just cannot be redeemed later
		s.logger.Warn("pricing: failed to cache quote", zap.String("quoteID", q.ID), zap.Error(err))
	}
	return q, nil
}

// Redeem returns a previously issued quote if it still applies to the
// provider and interval and no rating change has invalidated it.
func (s *Service) Redeem(ctx context.Context, quoteID, providerID string, iv models.Interval) (models.Quote, error) {
	q, ok, err := s.cache.Get(ctx, quoteID)
	if err != nil {
		return models.Quote{}, errs.Unavailable("quote cache", err)
	}
	if !ok {
		return models.Quote{}, errs.StaleQuote("quote %s expired or unknown", quoteID)
	}
	if q.ProviderID != providerID || !q.Interval.Equal(iv) {
		return models.Quote{}, errs.StaleQuote("quote %s was issued for a different provider or interval", quoteID)
	}
	version, err := s.cache.Version(ctx, providerID)
	if err != nil {
		return models.Quote{}, errs.Unavailable("quote cache", err)
	}
	if version != q.SnapshotVersion {
		return models.Quote{}, errs.StaleQuote("quote %s predates a provider rating change", quoteID)
	}
	return q, nil
}

// Invalidate makes every outstanding quote of the provider stale.
func (s *Service) Invalidate(ctx context.Context, providerID string) error {
	if _, err := s.cache.BumpVersion(ctx, providerID); err != nil {
		return errs.Unavailable("quote cache", err)
	}
	return nil
}

// Sample builds the demand fact for an attempt on iv.
func (s *Service) Sample(provider models.Provider, iv models.Interval, loc models.Location) models.DemandSample {
	region := loc.Region
	if region == "" {
		region = provider.Location.Region
	}
	return models.DemandSample{
		ID:         uuid.New().String(),
		ProviderID: provider.ID,
		Region:     region,
		Bucket:     BucketOf(iv.Start, s.cfg.BucketSize),
		RecordedAt: s.now().UTC(),
	}
}
