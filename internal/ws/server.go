package ws

import (
	"fmt"
	"net/http"
	"time"

	"orderhash/internal/manager"

	"go.uber.org/zap"
)

// sendBuffer is the number of pending records a subscriber may fall behind
// before records are dropped for it.
const sendBuffer = 16

type WSServer struct {
	port    int
	manager *manager.Manager
	logger  *zap.Logger
}

func NewWSServer(port int, manager *manager.Manager, logger *zap.Logger) *http.Server {
	NewWSServer := &WSServer{
		port:    port,
		manager: manager,
		logger:  logger,
	}

	// Declare Server config
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", NewWSServer.port),
		Handler:     NewWSServer.Serve(),
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
	}

	return server
}
