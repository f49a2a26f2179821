package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	// TrustedProxies may set X-Forwarded-For; empty trusts none.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`

	// Storage.
	StorageDriver string `mapstructure:"STORAGE_DRIVER"` // "mongo" or "memory"
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DatabaseName  string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Collaborators.
	StripeKey               string `mapstructure:"STRIPE_KEY"`
	PaymentCurrency         string `mapstructure:"PAYMENT_CURRENCY"`
	GeminiAPIKey            string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel             string `mapstructure:"GEMINI_MODEL"`
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	AWSRegion               string `mapstructure:"AWS_REGION"`
	SNSTopicARN             string `mapstructure:"SNS_TOPIC_ARN"`

	// Pricing.
	PriceMinFactor     float64            `mapstructure:"PRICE_MIN_FACTOR"`
	PriceMaxFactor     float64            `mapstructure:"PRICE_MAX_FACTOR"`
	DemandBaselineDays int                `mapstructure:"DEMAND_BASELINE_DAYS"`
	DemandBucketHours  int                `mapstructure:"DEMAND_BUCKET_HOURS"`
	RatingMultBase     float64            `mapstructure:"RATING_MULT_BASE"`
	RatingMultSlope    float64            `mapstructure:"RATING_MULT_SLOPE"`
	WeekendPremium     float64            `mapstructure:"WEEKEND_PREMIUM"`
	PeakMonthPremium   float64            `mapstructure:"PEAK_MONTH_PREMIUM"`
	PeakMonths         []int              `mapstructure:"PEAK_MONTHS"`
	TravelRate         float64            `mapstructure:"TRAVEL_RATE"`
	TravelCapKm        float64            `mapstructure:"TRAVEL_CAP_KM"`
	RegionMultipliers  map[string]float64 `mapstructure:"REGION_MULTIPLIERS"`
	QuoteTTL           time.Duration      `mapstructure:"QUOTE_TTL"`

	// Ranking.
	RankSpecializationWeight float64 `mapstructure:"RANK_SPECIALIZATION_WEIGHT"`
	RankDistanceWeight       float64 `mapstructure:"RANK_DISTANCE_WEIGHT"`
	RankRatingWeight         float64 `mapstructure:"RANK_RATING_WEIGHT"`
	RankSentimentWeight      float64 `mapstructure:"RANK_SENTIMENT_WEIGHT"`
	RankPriceWeight          float64 `mapstructure:"RANK_PRICE_WEIGHT"`
	RankDistanceScaleKm      float64 `mapstructure:"RANK_DISTANCE_SCALE_KM"`
	RankLimit                int     `mapstructure:"RANK_LIMIT"`
	SentimentHalfLifeDays    float64 `mapstructure:"SENTIMENT_HALF_LIFE_DAYS"`
	RatingHalfLifeDays       float64 `mapstructure:"RATING_HALF_LIFE_DAYS"`

	// Slot suggestions.
	SlotBaseScore      float64            `mapstructure:"SLOT_BASE_SCORE"`
	SlotHourBonus      map[string]float64 `mapstructure:"SLOT_HOUR_BONUS"`
	SlotEarliestHour   int                `mapstructure:"SLOT_EARLIEST_HOUR"`
	SlotLatestHour     int                `mapstructure:"SLOT_LATEST_HOUR"`
	SlotOffHoursCost   float64            `mapstructure:"SLOT_OFF_HOURS_COST"`
	SlotWeekendBonus   float64            `mapstructure:"SLOT_WEEKEND_BONUS"`
	SlotRecommendAbove float64            `mapstructure:"SLOT_RECOMMEND_ABOVE"`

	// Booking.
	ReserveTimeout     time.Duration `mapstructure:"RESERVE_TIMEOUT"`
	ReserveMaxAttempts int           `mapstructure:"RESERVE_MAX_ATTEMPTS"`
	ReserveBackoff     time.Duration `mapstructure:"RESERVE_BACKOFF"`
	PendingTTL         time.Duration `mapstructure:"PENDING_TTL"`
	ReminderLead       time.Duration `mapstructure:"REMINDER_LEAD"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing")
	}

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("TRUSTED_PROXIES", []string{})

	v.SetDefault("STORAGE_DRIVER", "mongo")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "capturemoments")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)

	v.SetDefault("STRIPE_KEY", "")
	v.SetDefault("PAYMENT_CURRENCY", "usd")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	v.SetDefault("AWS_REGION", "ap-south-1")
	v.SetDefault("SNS_TOPIC_ARN", "")

	v.SetDefault("PRICE_MIN_FACTOR", 0.7)
	v.SetDefault("PRICE_MAX_FACTOR", 2.0)
	v.SetDefault("DEMAND_BASELINE_DAYS", 28)
	v.SetDefault("DEMAND_BUCKET_HOURS", 24)
	v.SetDefault("RATING_MULT_BASE", 0.9)
	v.SetDefault("RATING_MULT_SLOPE", 0.1)
	v.SetDefault("WEEKEND_PREMIUM", 0.2)
	v.SetDefault("PEAK_MONTH_PREMIUM", 0.15)
	v.SetDefault("PEAK_MONTHS", []int{5, 6, 12})
	v.SetDefault("TRAVEL_RATE", 0.1)
	v.SetDefault("TRAVEL_CAP_KM", 50.0)
	v.SetDefault("REGION_MULTIPLIERS", map[string]float64{
		"mumbai":    1.5,
		"delhi":     1.4,
		"bangalore": 1.3,
		"hyderabad": 1.2,
		"chennai":   1.2,
		"pune":      1.1,
	})
	v.SetDefault("QUOTE_TTL", 10*time.Minute)

	v.SetDefault("RANK_SPECIALIZATION_WEIGHT", 3.0)
	v.SetDefault("RANK_DISTANCE_WEIGHT", 2.0)
	v.SetDefault("RANK_RATING_WEIGHT", 2.5)
	v.SetDefault("RANK_SENTIMENT_WEIGHT", 1.5)
	v.SetDefault("RANK_PRICE_WEIGHT", 0.5)
	v.SetDefault("RANK_DISTANCE_SCALE_KM", 10.0)
	v.SetDefault("RANK_LIMIT", 20)
	v.SetDefault("SENTIMENT_HALF_LIFE_DAYS", 30.0)
	v.SetDefault("RATING_HALF_LIFE_DAYS", 90.0)

	v.SetDefault("SLOT_BASE_SCORE", 0.5)
	v.SetDefault("SLOT_HOUR_BONUS", map[string]float64{
		"10": 0.2, "11": 0.2, "12": 0.2,
		"16": 0.3, "17": 0.3, "18": 0.3,
	})
	v.SetDefault("SLOT_EARLIEST_HOUR", 9)
	v.SetDefault("SLOT_LATEST_HOUR", 19)
	v.SetDefault("SLOT_OFF_HOURS_COST", 0.2)
	v.SetDefault("SLOT_WEEKEND_BONUS", 0.1)
	v.SetDefault("SLOT_RECOMMEND_ABOVE", 0.7)

	v.SetDefault("RESERVE_TIMEOUT", 300*time.Millisecond)
	v.SetDefault("RESERVE_MAX_ATTEMPTS", 3)
	v.SetDefault("RESERVE_BACKOFF", 25*time.Millisecond)
	v.SetDefault("PENDING_TTL", 15*time.Minute)
	v.SetDefault("REMINDER_LEAD", 24*time.Hour)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
