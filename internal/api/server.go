package api

import (
	"fmt"
	"net/http"
	"time"

	"orderhash/internal/manager"

	"go.uber.org/zap"
)

type APIServer struct {
	port    int
	manager *manager.Manager
	logger  *zap.Logger
}

func NewAPIServer(port int, manager *manager.Manager, logger *zap.Logger) *http.Server {
	NewAPIServer := &APIServer{
		port:    port,
		manager: manager,
		logger:  logger,
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewAPIServer.port),
		Handler:      NewAPIServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
