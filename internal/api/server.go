package api

import (
	"sync"

	"github.com/AbQaadir/RemoteWebCam/internal/cam"
	"github.com/gin-gonic/gin"
)

// Server represents the control-plane API server
type Server struct {
	router    *gin.Engine
	port      string
	camServer *cam.CamServer // DI된 cam 서버
	setupOnce sync.Once
}

// NewServer creates a new API server instance
func NewServer(port string, camServer *cam.CamServer) *Server {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Add basic middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	return &Server{
		router:    router,
		port:      port,
		camServer: camServer,
	}
}

// SetupRoutes configures all API routes
func (s *Server) SetupRoutes() {
	s.setupOnce.Do(func() {
		// API v1 group
		v1 := s.router.Group("/api/v1")
		{
			v1.GET("/stats", s.StatsHandler)
			v1.GET("/subscribers", s.SubscribersHandler)
			v1.POST("/frame", s.PublishFrameHandler)
		}
	})
}

// Start starts the API server (blocks until the listener fails)
func (s *Server) Start() error {
	s.SetupRoutes()
	return s.router.Run(":" + s.port)
}

// GetRouter returns the gin router (for testing)
func (s *Server) GetRouter() *gin.Engine {
	s.SetupRoutes()
	return s.router
}
