package mux

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soheilhy/cmux"

	"ngandee-matcher/internal/background"
	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/grpc/server"
	"ngandee-matcher/internal/logging"
	"ngandee-matcher/internal/matching/workers"
)

// Multiplexer handles protocol detection and routing between gRPC and HTTP
type Multiplexer struct {
	cfg         *config.Config
	poolManager *workers.PoolManager
	taskManager background.TaskManager
	logger      logging.Logger

	// Servers
	grpcServer *server.Server
	httpServer *http.Server

	// Multiplexer
	mux      cmux.CMux
	listener net.Listener

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMultiplexer creates a new protocol multiplexer
func NewMultiplexer(cfg *config.Config, poolManager *workers.PoolManager, taskManager background.TaskManager, httpHandler http.Handler) *Multiplexer {
	ctx, cancel := context.WithCancel(context.Background())

	return &Multiplexer{
		cfg:         cfg,
		poolManager: poolManager,
		taskManager: taskManager,
		logger:      logging.GetGlobalLogger(),
		ctx:         ctx,
		cancel:      cancel,
		httpServer: &http.Server{
			Handler:           httpHandler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
	}
}

// Start starts the multiplexer and both servers
func (m *Multiplexer) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	m.listener = listener

	m.mux = cmux.New(listener)

	// gRPC traffic is matched on the HTTP2 content-type header, everything
	// else falls through to the HTTP server
	grpcListener := m.mux.Match(cmux.HTTP2HeaderField("content-type", "application/grpc"))
	httpListener := m.mux.Match(cmux.HTTP1Fast())

	m.grpcServer = server.NewServer(m.cfg, m.poolManager, m.taskManager)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.grpcServer.Start(grpcListener); err != nil {
			m.logger.Error("gRPC server failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.logger.Info("Starting HTTP server", map[string]interface{}{
			"address": address,
		})
		if err := m.httpServer.Serve(httpListener); err != nil && err != http.ErrServerClosed {
			m.logger.Error("HTTP server failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.logger.Info("Starting protocol multiplexer", map[string]interface{}{
			"address": address,
		})
		if err := m.mux.Serve(); err != nil {
			m.logger.Error("Multiplexer failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	m.logger.Info("Multiplexer started successfully", map[string]interface{}{
		"address": address,
	})
	return nil
}

// Stop gracefully shuts down the multiplexer and both servers
func (m *Multiplexer) Stop() error {
	m.logger.Info("Stopping multiplexer...")

	m.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := m.httpServer.Shutdown(shutdownCtx); err != nil {
		m.logger.Error("HTTP server shutdown failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if m.grpcServer != nil {
		m.grpcServer.Stop()
	}

	if m.listener != nil {
		if err := m.listener.Close(); err != nil {
			m.logger.Error("Failed to close listener", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Multiplexer stopped gracefully")
	case <-shutdownCtx.Done():
		m.logger.Warn("Multiplexer shutdown timed out")
	}

	return nil
}

// Wait waits for the multiplexer to finish
func (m *Multiplexer) Wait() {
	m.wg.Wait()
}

// IsHealthy checks if the multiplexer and both servers are healthy
func (m *Multiplexer) IsHealthy() bool {
	if m.ctx.Err() != nil {
		return false
	}
	if m.listener == nil {
		return false
	}
	return true
}

// GetGRPCServer returns the gRPC server instance
func (m *Multiplexer) GetGRPCServer() *server.Server {
	return m.grpcServer
}

// GetHTTPServer returns the HTTP server instance
func (m *Multiplexer) GetHTTPServer() *http.Server {
	return m.httpServer
}

// GetListener returns the main listener
func (m *Multiplexer) GetListener() net.Listener {
	return m.listener
}

// GetAddress returns the address the multiplexer is listening on
func (m *Multiplexer) GetAddress() string {
	if m.listener != nil {
		return m.listener.Addr().String()
	}
	return ""
}
