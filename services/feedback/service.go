package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"capturemoments/config"
	"capturemoments/database"
	bookingRepo "capturemoments/database/repository/booking"
	feedbackRepo "capturemoments/database/repository/feedback"
	providerRepo "capturemoments/database/repository/provider"
	"capturemoments/models"
	"capturemoments/services/errs"
	"capturemoments/services/sentiment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuoteInvalidator makes a provider's outstanding quotes stale.
type QuoteInvalidator interface {
	Invalidate(ctx context.Context, providerID string) error
}

// Alerter raises an operations alert.
type Alerter interface {
	Alert(ctx context.Context, subject, message string) error
}

type Config struct {
	SentimentHalfLife time.Duration
	RatingHalfLife    time.Duration
}

func ConfigFrom(c config.Config) Config {
	return Config{
		SentimentHalfLife: days(c.SentimentHalfLifeDays),
		RatingHalfLife:    days(c.RatingHalfLifeDays),
	}
}

func DefaultConfig() Config {
	return Config{SentimentHalfLife: days(30), RatingHalfLife: days(90)}
}

func days(n float64) time.Duration {
	return time.Duration(n * float64(24*time.Hour))
}

type Service struct {
	cfg       Config
	bookings  bookingRepo.BookingRepository
	log       feedbackRepo.FeedbackLog
	providers providerRepo.ProviderRepository
	oracle    sentiment.Oracle
	quotes    QuoteInvalidator
	alerter   Alerter
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	cfg Config,
	bookings bookingRepo.BookingRepository,
	log feedbackRepo.FeedbackLog,
	providers providerRepo.ProviderRepository,
	oracle sentiment.Oracle,
	quotes QuoteInvalidator,
	alerter Alerter,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if oracle == nil {
		oracle = sentiment.Neutral{}
	}
	return &Service{
		cfg:       cfg,
		bookings:  bookings,
		log:       log,
		providers: providers,
		oracle:    oracle,
		quotes:    quotes,
		alerter:   alerter,
		logger:    logger,
		now:       time.Now,
	}
}

// SubmitFeedback scores and records a client's review of a finished booking,
// then recomputes the provider's rating from the whole log.
func (s *Service) SubmitFeedback(ctx context.Context, bookingID, clientID string, rating float64, text string) (*models.FeedbackRecord, error) {
	if rating < 1 || rating > 5 {
		return nil, errs.InvalidInput("rating must be between 1 and 5")
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && b.ClientID != clientID) {
		return nil, errs.NotFound("booking %s", bookingID)
	}
	if err != nil {
		return nil, errs.Unavailable("booking store", err)
	}
	now := s.now().UTC()
	finished := b.Status == models.StatusCompleted ||
		(b.Status == models.StatusConfirmed && !b.Interval.End.After(now))
	if !finished {
		return nil, errs.InvalidState("booking %s is %s; only completed bookings can be reviewed", bookingID, b.Status)
	}
	reviewed, err := s.log.ExistsForBooking(ctx, bookingID)
	if err != nil {
		return nil, errs.Unavailable("feedback log", err)
	}
	if reviewed {
		return nil, errs.InvalidState("booking %s already has feedback", bookingID)
	}

	score, err := s.oracle.Score(ctx, text)
	if err != nil {
		s.logger.Warn("feedback: sentiment oracle unavailable, scoring neutral",
			zap.String("bookingID", bookingID), zap.Error(err))
		score = 0
	}
	rec := models.FeedbackRecord{
		ID:         uuid.New().String(),
		BookingID:  b.ID,
		ProviderID: b.ProviderID,
		ClientID:   clientID,
		Rating:     rating,
		Score:      score,
		Category:   models.CategoryFor(score),
		Topics:     ExtractTopics(text),
		Text:       text,
		CreatedAt:  now,
	}
	if err := s.log.Append(ctx, rec); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, errs.InvalidState("booking %s already has feedback", bookingID)
		}
		return nil, errs.Unavailable("feedback log", err)
	}

	if err := s.refreshRating(ctx, b.ProviderID, now); err != nil {
		// the review is stored; the rating catches up on the next submission
		s.logger.Error("feedback: failed to refresh provider rating",
			zap.String("providerID", b.ProviderID), zap.Error(err))
	}

	if rec.Category == models.SentimentNegative && s.alerter != nil {
		subject := "Negative feedback received"
		msg := fmt.Sprintf("Booking %s for provider %s scored %.2f: %s", b.ID, b.ProviderID, score, text)
		if err := s.alerter.Alert(ctx, subject, msg); err != nil {
			s.logger.Warn("feedback: alert failed", zap.String("bookingID", b.ID), zap.Error(err))
		}
	}
	s.logger.Info("feedback recorded",
		zap.String("bookingID", b.ID),
		zap.String("providerID", b.ProviderID),
		zap.String("category", string(rec.Category)))
	return &rec, nil
}

func (s *Service) refreshRating(ctx context.Context, providerID string, now time.Time) error {
	records, err := s.log.ListByProvider(ctx, providerID)
	if err != nil {
		return err
	}
	rating, count := DecayedRating(records, now, s.cfg.RatingHalfLife)
	if err := s.providers.UpdateRating(ctx, providerID, rating, count); err != nil {
		return err
	}
	if s.quotes != nil {
		return s.quotes.Invalidate(ctx, providerID)
	}
	return nil
}

// Trend returns the provider's current sentiment trend.
func (s *Service) Trend(ctx context.Context, providerID string) (float64, error) {
	records, err := s.log.ListByProvider(ctx, providerID)
	if err != nil {
		return 0, errs.Unavailable("feedback log", err)
	}
	return SentimentTrend(records, s.now().UTC(), s.cfg.SentimentHalfLife), nil
}

func (s *Service) Insights(ctx context.Context, providerID string) (*Insights, error) {
	if _, err := s.providers.GetByID(ctx, providerID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, errs.NotFound("provider %s", providerID)
		}
		return nil, errs.Unavailable("provider store", err)
	}
	records, err := s.log.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, errs.Unavailable("feedback log", err)
	}
	out := Summarize(providerID, records, s.now().UTC(), s.cfg.SentimentHalfLife, s.cfg.RatingHalfLife)
	return &out, nil
}
