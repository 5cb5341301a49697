package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"boxoffice/internal/cache"
	"boxoffice/internal/config"
	"boxoffice/internal/database"
	"boxoffice/internal/external"
	"boxoffice/internal/handlers"
	"boxoffice/internal/logger"
	"boxoffice/internal/messaging"
	"boxoffice/internal/middleware"
	"boxoffice/internal/repository"
	"boxoffice/internal/search"
	"boxoffice/internal/service"
)

type Server struct {
	router      *gin.Engine
	config      *config.Config
	db          *database.DB
	nats        *messaging.NATSClient
	cacheClient *cache.Client
	services    *service.Services
}

func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Cache and search are read-path accelerators; the engine degrades to
	// the database without them.
	var cacheClient *cache.Client
	if cfg.CacheEnabled {
		cacheClient, err = cache.NewClient(cfg.Redis)
		if err != nil {
			logger.Get().Warn("Cache unavailable, continuing without it", "error", err)
			cacheClient = nil
		}
	}

	var searcher service.EventSearcher
	if cfg.SearchEnabled {
		searchClient, err := search.NewClient(cfg.Search)
		if err != nil {
			logger.Get().Warn("Search unavailable, continuing without it", "error", err)
		} else {
			searcher = searchClient
		}
	}

	var gateway service.PaymentGateway
	if cfg.Paystack.SecretKey != "" {
		gateway = external.NewPaystackClient(cfg.Paystack)
	}

	store := repository.NewStore(db)
	services := service.NewServices(store, natsClient, searcher, gateway)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS())

	server := &Server{
		router:      router,
		config:      cfg,
		db:          db,
		nats:        natsClient,
		cacheClient: cacheClient,
		services:    services,
	}

	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.cacheClient)

	api := s.router.Group("/api")
	{
		events := api.Group("/events")
		{
			events.GET("", h.ListEvents)
			events.GET("/:id/sections", h.ListSections)
		}

		bookings := api.Group("/bookings")
		bookings.Use(middleware.Identity())
		{
			bookings.POST("", h.CreateBooking)
		}

		tickets := api.Group("/tickets")
		tickets.Use(middleware.Identity())
		{
			tickets.GET("", h.ListTickets)
			tickets.DELETE("/:id", h.CancelTicket)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/initiate", middleware.Identity(), h.InitiatePayment)
			payments.GET("/callback", h.PaymentCallback)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	health := s.db.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

// GetRouter returns the router for testing
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.cacheClient != nil {
		if err := s.cacheClient.Close(); err != nil {
			slog.Error("Error closing cache connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
