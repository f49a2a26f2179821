package routes

import (
	"net/http"
	"time"

	"capturemoments/handlers"
	"capturemoments/middleware"
	"capturemoments/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	JWTSecret     []byte
	RatePerMinute int
	Logger        *zap.Logger
}

// RegisterProviderRoutes registers provider calendar endpoints.
func RegisterProviderRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	providers := api.Group("/providers/:id")
	{
		providers.GET("/slots", hb.GetOpenSlots)
		providers.GET("/quote", hb.GetQuote)
		providers.GET("/insights", hb.GetInsights)
		providers.GET("/optimal-slots", hb.GetOptimalSlots)
		providers.GET("/bookings",
			middleware.RequireRole(utils.RoleProvider, utils.RoleAdmin), hb.GetBookings)
		providers.PUT("/availability",
			middleware.RequireRole(utils.RoleProvider, utils.RoleAdmin), hb.SetAvailability)
	}
	api.POST("/recommendations", hb.Recommend)
}

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	bookings := api.Group("/bookings")
	{
		clientOnly := middleware.RequireRole(utils.RoleClient)
		bookings.POST("", clientOnly, hb.RequestBooking)
		bookings.GET("/mine", clientOnly, hb.ListMyBookings)
		bookings.GET("/:id", hb.GetBooking)
		bookings.POST("/:id/confirm", hb.ConfirmBooking)
		bookings.POST("/:id/cancel", hb.CancelBooking)
		bookings.POST("/:id/pay", clientOnly, hb.PayBooking)
		bookings.POST("/:id/feedback", clientOnly, hb.SubmitFeedback)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": http.StatusText(code), "dependencies": status})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(opts.RatePerMinute, opts.Logger))

	RegisterHealthRoute(r)

	api := r.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(opts.JWTSecret))
	RegisterProviderRoutes(api, hb)
	RegisterBookingRoutes(api, hb)
}
