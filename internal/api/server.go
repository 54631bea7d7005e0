package api

import (
	"fmt"
	"log"
	"net/http"

	"asyncaccess/internal/cache"
	"asyncaccess/internal/config"
	"asyncaccess/internal/database"
	"asyncaccess/internal/handlers"
	"asyncaccess/internal/messaging"
	"asyncaccess/internal/metrics"
	"asyncaccess/internal/middleware"
	"asyncaccess/internal/models"
	"asyncaccess/internal/repository"
	"asyncaccess/internal/search"
	"asyncaccess/internal/service"

	"github.com/gin-gonic/gin"
)

// Server is the HTTP API server
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories
}

// NewServer builds a fully wired server
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	var valkeyClient *cache.ValkeyClient
	if cfg.Valkey.Addr != "" {
		valkeyClient, err = cache.NewValkeyClient(cfg.Valkey)
		if err != nil {
			log.Printf("Valkey unavailable, credential caching disabled: %v", err)
			valkeyClient = nil
		}
	}

	var searchClient *search.Client
	if cfg.Elasticsearch.Enabled {
		searchClient, err = search.NewClient(cfg.Elasticsearch)
		if err != nil {
			log.Printf("Elasticsearch unavailable, title search falls back to SQL: %v", err)
			searchClient = nil
		}
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, natsClient, searchClient, service.Options{
		CascadeReleaseUnapproved: cfg.CascadeReleaseUnapproved,
	})

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api")
	api.Use(middleware.BasicAuth(s.repos.Users, s.valkey))
	{
		events := api.Group("/events")
		{
			events.GET("", h.ListEvents)
			events.POST("", middleware.RequireRole(models.RoleOrganizer, models.RoleAdmin), h.CreateEvent)
			events.GET("/:id/availability", h.GetAvailability)
			events.PATCH("/:id/status", middleware.RequireRole(models.RoleAdmin), h.UpdateEventStatus)
			events.DELETE("/:id", middleware.RequireRole(models.RoleOrganizer, models.RoleAdmin), h.DeleteEvent)
		}

		organizer := api.Group("/organizer")
		organizer.Use(middleware.RequireRole(models.RoleOrganizer, models.RoleAdmin))
		{
			organizer.GET("/events", h.ListMyEvents)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("", h.ListBookings)
			bookings.PATCH("/cancel", h.CancelBooking)
		}

		users := api.Group("/users")
		users.Use(middleware.RequireRole(models.RoleAdmin))
		{
			users.DELETE("/:id", h.DeleteUser)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	dbHealth := s.db.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if dbHealth.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   dbHealth.Status,
		"service":  "asyncaccess-api",
		"database": dbHealth,
	})
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for testing
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes external connections
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Printf("Error closing Valkey connection: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
			return err
		}
	}

	return nil
}
