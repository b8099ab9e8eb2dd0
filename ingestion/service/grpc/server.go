package grpc

import (
	"errors"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the audit engine
const ServiceName = "tripledger.AuditEngine"

// Server exposes the standard gRPC health protocol. The engine reports
// NOT_SERVING until its first run has sealed a record set.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *log.Logger
}

// NewServer creates a gRPC server with the health service registered
func NewServer(l *log.Logger, opts ...grpc.ServerOption) *Server {
	s := &Server{
		grpcServer: grpc.NewServer(opts...),
		health:     health.NewServer(),
		logger:     l,
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.SetServing(false)
	return s
}

// SetServing updates the status of ServiceName and of the overall server
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
}

// Serve blocks accepting connections on lis until Stop or GracefulStop
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Printf("gRPC server listening on %s", lis.Addr())
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// GracefulStop marks every service NOT_SERVING and drains open calls
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
