package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"capturemoments/config"
	"capturemoments/cron"
	"capturemoments/database"
	"capturemoments/database/repository"
	"capturemoments/handlers"
	"capturemoments/routes"
	"capturemoments/services/booking"
	"capturemoments/services/feedback"
	"capturemoments/services/notification"
	"capturemoments/services/payment"
	"capturemoments/services/pricing"
	"capturemoments/services/ranking"
	"capturemoments/services/resolver"
	"capturemoments/services/sentiment"
	"capturemoments/services/slots"
	"capturemoments/utils"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// storage.
	set, mongoClient := openStorage(ctx, cfg, logger)

	// quote cache and queue share the Redis server.
	var (
		quoteCache   pricing.QuoteCache = pricing.NewMemoryQuoteCache()
		redisClients []*redis.Client
		queueEnabled bool
	)
	if err := utils.InitCache(ctx); err != nil {
		logger.Warn("main: redis unavailable; quotes cached in memory and background jobs run in-process", zap.Error(err))
	} else {
		quoteCache = pricing.NewRedisQuoteCache(utils.CacheClient)
		redisClients = append(redisClients, utils.CacheClient)
		queueEnabled = true
	}

	// collaborators.
	stripe.Key = cfg.StripeKey
	var gateway booking.PaymentGateway
	if cfg.StripeKey != "" {
		gateway = payment.NewStripeGateway(cfg.PaymentCurrency, logger)
	}

	var oracle sentiment.Oracle = sentiment.Neutral{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := sentiment.NewGeminiOracle(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, 30)
		if err != nil {
			logger.Warn("main: sentiment oracle disabled", zap.Error(err))
		} else {
			defer gemini.Close()
			oracle = sentiment.Degrading{Oracle: gemini, Logger: logger}
		}
	}

	var alerter feedback.Alerter = notification.LogAlerter{Logger: logger}
	if cfg.SNSTopicARN != "" {
		sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.AWSRegion)})
		if err != nil {
			logger.Warn("main: SNS alerts disabled", zap.Error(err))
		} else {
			alerter = notification.NewSNSAlerter(sess, cfg.SNSTopicARN)
		}
	}

	var pusher notification.Pusher
	if cfg.FirebaseCredentialsFile != "" {
		fcm, err := utils.FirebaseInit(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Warn("main: push delivery disabled", zap.Error(err))
		} else {
			pusher = fcm
		}
	}

	var publisher booking.Publisher = notification.LogPublisher{Logger: logger}
	var queue *asynq.Client
	if queueEnabled {
		queue = asynq.NewClient(cron.RedisOpt())
		defer queue.Close()
		publisher = notification.NewQueuePublisher(queue, logger)
	}

	// services.
	store := slots.NewStore(set.Bookings, set.Availability, logger)
	quotes := pricing.NewService(pricing.ConfigFrom(cfg), set.Demand, quoteCache, logger)
	reviews := feedback.NewService(feedback.ConfigFrom(cfg), set.Bookings, set.Feedback, set.Providers,
		oracle, quotes, alerter, logger)
	ranker := ranking.NewRanker(set.Providers, store, quotes, reviews, ranking.WeightsFrom(cfg), logger)
	orchestrator := booking.NewOrchestrator(booking.ConfigFrom(cfg), booking.Deps{
		Providers:    set.Providers,
		Availability: set.Availability,
		Bookings:     set.Bookings,
		Demand:       set.Demand,
		Slots:        store,
		Resolver:     resolver.New(store),
		Pricer:       quotes,
		Ranker:       ranker,
		Publisher:    publisher,
		Gateway:      gateway,
		Logger:       logger,
	})

	// background work.
	var (
		worker    *asynq.Server
		scheduler *asynq.Scheduler
	)
	if queueEnabled {
		mux := cron.NewMux(cron.Handlers{
			Bookings: orchestrator,
			Sweeper:  orchestrator,
			Pusher:   pusher,
			Logger:   logger,
		})
		worker = cron.StartWorker(cron.RedisOpt(), mux, logger)
		var err error
		scheduler, err = cron.StartScheduler(cron.RedisOpt(), logger)
		if err != nil {
			logger.Warn("main: scheduler unavailable; running sweeps in-process", zap.Error(err))
			go cron.RunLocalSweeps(ctx, orchestrator, time.Minute, 5*time.Minute, logger)
		}
	} else {
		go cron.RunLocalSweeps(ctx, orchestrator, time.Minute, 5*time.Minute, logger)
	}
	utils.StartHealthMonitor(ctx, time.Minute, redisClients, mongoClient)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Fatal("Invalid TRUSTED_PROXIES", zap.Error(err))
	}
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	bookingHandler := handlers.NewBookingHandler(orchestrator, reviews, logger)
	routes.RegisterRoutes(router, handlers.NewHandlerBundle(bookingHandler), routes.Options{
		JWTSecret:     []byte(cfg.JWTSecret),
		RatePerMinute: cfg.MaxRequestsPerMin,
		Logger:        logger,
	})

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("main: starting server", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageDriver))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Shutdown()
	}
	if worker != nil {
		worker.Shutdown()
	}
	if err := database.CloseDB(shutdownCtx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}
	if err := utils.CloseCache(); err != nil {
		logger.Warn("main: redis close failed", zap.Error(err))
	}
	logger.Info("main: server stopped gracefully")
}

// openStorage picks the repository set for STORAGE_DRIVER. The mongo client
// is nil for the memory driver.
func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (*repository.Set, *mongo.Client) {
	if cfg.StorageDriver == "memory" {
		logger.Warn("main: using in-memory storage; data is lost on restart")
		return repository.NewMemorySet(), nil
	}
	db, err := database.InitDB(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
	}
	set, err := repository.NewMongoSet(ctx, db)
	if err != nil {
		logger.Fatal("main: failed to prepare repositories", zap.Error(err))
	}
	return set, database.MongoClient
}
