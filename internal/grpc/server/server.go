package server

import (
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"ngandee-matcher/internal/background"
	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/grpc/interceptors"
	"ngandee-matcher/internal/logging"
	"ngandee-matcher/internal/matching/workers"
)

type Server struct {
	cfg         *config.Config
	poolManager *workers.PoolManager
	taskManager background.TaskManager
	logger      logging.Logger

	grpcServer *grpc.Server
	health     *health.Server
	stopCh     chan struct{}
}

func NewServer(cfg *config.Config, poolManager *workers.PoolManager, taskManager background.TaskManager) *Server {
	return &Server{
		cfg:         cfg,
		poolManager: poolManager,
		taskManager: taskManager,
		logger:      logging.GetGlobalLogger(),
		health:      health.NewServer(),
		stopCh:      make(chan struct{}),
	}
}

func (s *Server) Start(lis net.Listener) error {
	s.grpcServer = grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.MaxRecvMsgSize(4*1024*1024),
		grpc.MaxSendMsgSize(4*1024*1024),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(),
			interceptors.LoggingInterceptor(),
			interceptors.MetricsInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamRecoveryInterceptor(),
			interceptors.StreamLoggingInterceptor(),
			interceptors.StreamMetricsInterceptor(),
		),
	)

	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)

	// Enable reflection for debugging
	reflection.Register(s.grpcServer)

	s.health.SetServingStatus("", s.currentStatus())
	go s.watchHealth()

	s.logger.Info("Starting gRPC server", map[string]interface{}{
		"address": lis.Addr().String(),
	})

	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.logger.Info("Shutting down gRPC server...")
	close(s.stopCh)
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
}

func (s *Server) GetConfig() *config.Config {
	return s.cfg
}

func (s *Server) GetPoolManager() *workers.PoolManager {
	return s.poolManager
}
