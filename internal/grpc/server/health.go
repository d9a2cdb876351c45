package server

import (
	"time"

	"google.golang.org/grpc/health/grpc_health_v1"
)

// currentStatus derives the advertised health status from the ranking pool
// and the background task manager.
func (s *Server) currentStatus() grpc_health_v1.HealthCheckResponse_ServingStatus {
	if s.poolManager != nil && !s.poolManager.IsHealthy() {
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	if s.taskManager != nil && !s.taskManager.IsHealthy() {
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_SERVING
}

// watchHealth keeps the health service in sync with the pool and task manager
// until the server is stopped.
func (s *Server) watchHealth() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.health.SetServingStatus("", s.currentStatus())
		case <-s.stopCh:
			return
		}
	}
}
