package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server wraps the HTTP server serving the web application.
type Server struct {
	HTTP *http.Server
	log  *zap.Logger
}

// New creates a new server instance around the configured router.
func New(router *gin.Engine, addr string, log *zap.Logger) *Server {
	return &Server{
		HTTP: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 2 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		log: log,
	}
}

// Start begins serving requests and blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info("HTTP server running", zap.String("address", s.HTTP.Addr))
	return s.HTTP.ListenAndServe()
}
