package server

import (
	"context"
	"net/http"
	"time"

	"barbershop/internal/auth"
	"barbershop/internal/booking"
	"barbershop/internal/config"
	"barbershop/internal/logger"
	"barbershop/internal/payment"

	"github.com/gin-gonic/gin"
)

// Deps are the services the HTTP layer routes to.
type Deps struct {
	Bookings booking.Service
	Payments payment.Service
	Health   HealthChecker
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
}

func New(cfg *config.Config, deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	bookingHandler := booking.NewHandler(deps.Bookings)
	paymentHandler := payment.NewHandler(deps.Payments)

	limited := RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)

	bookings := router.Group("/api/bookings")
	bookings.Use(limited)
	{
		bookings.POST("", bookingHandler.CreateBooking)
		bookings.GET("", bookingHandler.ListBookings)
		bookings.GET("/availability", bookingHandler.AvailableSlots)
		bookings.GET("/:id", bookingHandler.GetBooking)
	}

	payments := router.Group("/api/payment")
	{
		payments.POST("/initialize-booking", limited, paymentHandler.InitializeBooking)
		payments.POST("/verify-booking", limited, paymentHandler.VerifyBooking)
		// gateway callback, not rate limited
		payments.GET("/verify-booking", paymentHandler.Webhook)
		payments.GET("/return-status", limited, paymentHandler.ReturnStatus)
	}

	if cfg.AdminEnabled() {
		tokens := auth.NewIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret)
		authHandler := auth.NewHandler(auth.Admin{Username: cfg.AdminUsername, PasswordHash: cfg.AdminPasswordHash}, tokens)

		router.POST("/admin/login", limited, authHandler.Login)
		router.POST("/admin/refresh", limited, authHandler.Refresh)

		admin := router.Group("/admin")
		admin.Use(tokens.Middleware(), auth.RequireRole(auth.RoleAdmin))
		{
			admin.GET("/bookings", bookingHandler.ListBookings)
			admin.GET("/bookings/:id", bookingHandler.GetBooking)
			admin.PATCH("/bookings/:id/status", bookingHandler.UpdateStatus)
			admin.DELETE("/bookings/:id", bookingHandler.DeleteBooking)
		}
	} else {
		logger.Warnf("admin routes disabled: ADMIN_PASSWORD_HASH is not set")
	}

	router.GET("/health", Health(deps.Health))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router: router,
		config: cfg,
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(port string) error {
	s.httpServer = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
