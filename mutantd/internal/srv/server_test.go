package srv

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type pingService struct {
	served  int32
	stopped chan struct{}
}

func (s *pingService) RegisterGrpc(*GrpcServer) error { return ErrUnimplemented }
func (s *pingService) RegisterHttp(mux *HttpServeMux) error {
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	})
	return nil
}
func (s *pingService) Serve() { atomic.AddInt32(&s.served, 1); <-s.stopped }
func (s *pingService) Stop()  { close(s.stopped) }

func TestServe(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := lis.Addr().String()

	svc := &pingService{stopped: make(chan struct{})}
	srv := New()
	srv.RegisterService("ping", svc)

	var tagged int32
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(lis, WithHttpMiddleware(
			func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					atomic.AddInt32(&tagged, 1)
					next.ServeHTTP(w, r)
				})
			}))
	}()

	var body []byte
	for i := 0; i < 50; i++ {
		resp, err := http.Get("http://" + addr + "/ping")
		if err != nil {
			time.Sleep(20 * time.Millisecond)
			continue
		}
		body, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
		break
	}
	if string(body) != "pong" {
		t.Fatalf("unexpected body %q", body)
	}
	if atomic.LoadInt32(&tagged) == 0 {
		t.Fatal("middleware not applied")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, err := grpc.DialContext(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithBlock())
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()
	for _, name := range []string{"", "ping"} {
		resp, err := healthpb.NewHealthClient(conn).Check(
			ctx, &healthpb.HealthCheckRequest{Service: name})
		if err != nil {
			t.Fatalf("health check %q: %v", name, err)
		}
		if resp.Status != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("health check %q: %v", name, resp.Status)
		}
	}
	conn.Close()

	srv.Shutdown()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if atomic.LoadInt32(&svc.served) != 1 {
		t.Fatal("service was not served")
	}
}
