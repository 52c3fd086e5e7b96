package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"orderhash/internal/api"
	"orderhash/internal/chain"
	"orderhash/internal/limitorder"
	"orderhash/internal/manager"
	"orderhash/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var noOracle bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the hashing API and the record stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Create context that listens for the interrupt signal from the OS.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.serve(ctx, noOracle)
		},
	}
	cmd.Flags().BoolVar(&noOracle, "no-oracle", false, "Serve without a router connection; verification requests are rejected")
	return cmd
}

func (a *app) serve(ctx context.Context, noOracle bool) error {
	logger := a.logger
	router := a.cfg.Router()

	var (
		chainID = uint256.NewInt(a.cfg.ChainID)
		oracle  chain.Oracle
	)
	if !noOracle {
		client, nodeChainID, err := a.connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		routerClient, err := chain.NewRouterClient(router, client, logger)
		if err != nil {
			return err
		}
		chainID = nodeChainID
		oracle = routerClient
	} else if a.cfg.ChainID == 0 {
		chainID = uint256.NewInt(limitorder.LocalChainID)
	}

	hasher, err := limitorder.NewHasher(chainID, router)
	if err != nil {
		return err
	}
	logger.Info("Order domain ready",
		zap.Stringer("chainId", chainID),
		zap.Stringer("router", router),
		zap.Stringer("domainSeparator", hasher.DomainSeparator()),
		zap.Bool("oracle", oracle != nil))

	// Initialize the manager
	m := manager.NewManager(hasher, oracle, logger)

	if !a.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// create the servers
	apiServer := api.NewAPIServer(a.cfg.APIPort, m, logger)
	wsServer := ws.NewWSServer(a.cfg.WSPort, m, logger)

	// Create done channels to signal when the shutdown is complete
	apiDone := make(chan error, 1)
	wsDone := make(chan error, 1)

	// Run graceful shutdown in a separate goroutine
	go initServer(ctx, apiServer, apiDone, logger.Named("api"))
	go initServer(ctx, wsServer, wsDone, logger.Named("ws"))

	// Wait for both servers; the first to stop takes the other down with it.
	var firstErr error
	for range 2 {
		select {
		case err := <-apiDone:
			logger.Info("API server shutdown complete.")
			firstErr = errors.Join(firstErr, err)
			apiDone = nil
		case err := <-wsDone:
			logger.Info("WebSocket server shutdown complete.")
			firstErr = errors.Join(firstErr, err)
			wsDone = nil
		}
		if firstErr != nil {
			shutdown(apiServer, logger)
			shutdown(wsServer, logger)
		}
	}

	logger.Info("Servers down, now closing the manager...")
	m.Close()
	logger.Info("Graceful shutdown complete.")
	return firstErr
}

func initServer(ctx context.Context, server *http.Server, done chan<- error, logger *zap.Logger) {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", zap.Error(err))
			done <- err
			return
		}
		done <- nil
		return
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully")
	shutdown(server, logger)
	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- nil
}

// shutdown gives in-flight requests shutdownTimeout to finish.
func shutdown(server *http.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}
}
