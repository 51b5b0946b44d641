package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HTTPService serves handler on addr.
type HTTPService struct {
	srv     *http.Server
	timeout time.Duration
	logger  *zap.Logger
	ready   chan net.Addr
}

// NewHTTPService creates an HTTPService.
//
// Precondition: handler and logger must be non-nil.
func NewHTTPService(addr string, handler http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) *HTTPService {
	return &HTTPService{
		srv:     &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second},
		timeout: shutdownTimeout,
		logger:  logger,
		ready:   make(chan net.Addr, 1),
	}
}

// Start listens and serves until Stop.
func (h *HTTPService) Start() error {
	lis, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.srv.Addr, err)
	}
	h.logger.Info("http server listening", zap.String("addr", lis.Addr().String()))
	h.ready <- lis.Addr()
	if err := h.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Ready yields the bound address once Start is listening.
func (h *HTTPService) Ready() <-chan net.Addr { return h.ready }

// Stop shuts the server down, waiting up to the shutdown timeout for
// in-flight requests.
func (h *HTTPService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := h.srv.Shutdown(ctx); err != nil {
		h.logger.Warn("http shutdown", zap.Error(err))
	}
}

// GRPCHealthService serves the standard gRPC health protocol.
type GRPCHealthService struct {
	addr   string
	srv    *grpc.Server
	health *health.Server
	logger *zap.Logger
	ready  chan net.Addr
}

// NewGRPCHealthService creates a health server reporting SERVING for every
// name in services and for the empty overall service.
func NewGRPCHealthService(addr string, logger *zap.Logger, services ...string) *GRPCHealthService {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, name := range services {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &GRPCHealthService{addr: addr, srv: srv, health: hs, logger: logger, ready: make(chan net.Addr, 1)}
}

// Start listens and serves until Stop.
func (g *GRPCHealthService) Start() error {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", g.addr, err)
	}
	g.logger.Info("gRPC health server listening", zap.String("addr", lis.Addr().String()))
	g.ready <- lis.Addr()
	return g.srv.Serve(lis)
}

// Ready yields the bound address once Start is listening.
func (g *GRPCHealthService) Ready() <-chan net.Addr { return g.ready }

// SetServing updates the status reported for service.
func (g *GRPCHealthService) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus(service, status)
}

// Stop marks every service NOT_SERVING and stops gracefully.
func (g *GRPCHealthService) Stop() {
	g.health.Shutdown()
	g.srv.GracefulStop()
}
