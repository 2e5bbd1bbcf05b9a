package srv

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

func isContentType(r *http.Request, value string) bool {
	return strings.Contains(r.Header.Get("Content-Type"), value)
}

type Server struct {
	// health service
	health *health.Server
	// life-time control
	ctx    context.Context
	cancel context.CancelFunc
	// services
	svcs []Service
}

func New() (srv *Server) {
	srv = &Server{health: health.NewServer()}
	// an empty service name stands for entire server status
	srv.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	srv.ctx, srv.cancel = context.WithCancel(context.Background())
	return
}

// register must be invoked before serve
func (srv *Server) RegisterService(name string, svc Service) {
	srv.svcs = append(srv.svcs, svc)
	srv.health.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
}

func (srv *Server) ListenAndServe(addr string, opts ...ServeOption) (err error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return
	}
	defer lis.Close()
	return srv.Serve(lis, opts...)
}

// For serving grpc and http on the same port, x/net/http2 is used instead of
// grpc http/2 implementation, which costs some performance. If only grpc is
// wanted, prefer WithGrpcOnly.
func (srv *Server) Serve(lis net.Listener, opts ...ServeOption) (err error) {
	var o = &serveOptions{}
	for _, opt := range opts {
		opt.apply(o)
	}

	var wg sync.WaitGroup
	defer wg.Wait() // make sure all go routine exit

	grpcSrv := grpc.NewServer(
		append([]grpc.ServerOption{
			grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
				MinTime: 30 * time.Second,
			}),
		}, o.grpcServerOptions...)...)
	defer grpcSrv.GracefulStop()

	httpMux := http.NewServeMux()
	var httpHandler http.Handler = httpMux
	for i := len(o.httpMiddlewares) - 1; i >= 0; i-- {
		httpHandler = o.httpMiddlewares[i](httpHandler)
	}
	httpSrv := http.Server{
		Handler: h2c.NewHandler(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.ProtoMajor == 2 && isContentType(r, "application/grpc") {
					grpcSrv.ServeHTTP(w, r)
				} else {
					httpHandler.ServeHTTP(w, r)
				}
			}),
			&http2.Server{},
		),
	}
	defer httpSrv.Shutdown(context.Background())

	// services must be registered here because of defer sequence
	for _, svc := range srv.svcs {
		if err = svc.RegisterGrpc(grpcSrv); err != nil &&
			!errors.Is(err, ErrUnimplemented) {
			return
		}
		if err = svc.RegisterHttp(httpMux); err != nil &&
			!errors.Is(err, ErrUnimplemented) {
			return
		}
		err = nil
		wg.Add(1)
		go func(svc Service) { defer wg.Done(); svc.Serve() }(svc)
		defer svc.Stop()
	}
	// health service
	healthpb.RegisterHealthServer(grpcSrv, srv.health)
	defer srv.health.Shutdown()

	if o.grpcOnly {
		wg.Add(1)
		go func() { defer wg.Done(); grpcSrv.Serve(lis) }()
	} else {
		wg.Add(1)
		go func() { defer wg.Done(); httpSrv.Serve(lis) }()
	}

	<-srv.ctx.Done()
	return
}

func (srv *Server) Shutdown() {
	srv.cancel()
}

func (srv *Server) WaitForTerm() {
	sig := make(chan os.Signal, 1)
	signal.Ignore(syscall.SIGPIPE)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	select {
	case <-sig:
	case <-srv.ctx.Done():
	}
}

func (srv *Server) SetServingStatus(
	name string, status healthpb.HealthCheckResponse_ServingStatus) {
	srv.health.SetServingStatus(name, status)
}
