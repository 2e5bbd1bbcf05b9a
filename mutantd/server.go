package main

import (
	"context"
	"net/http"
	"sort"
	"time"

	_ "github.com/ntons/grpc-compressor/lz4" // register lz4 compressor
	"github.com/ntons/log-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	_ "google.golang.org/grpc/encoding/gzip"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/ntons/mutant/mutantd/internal/comm"
	"github.com/ntons/mutant/mutantd/internal/srv"
	_ "github.com/ntons/mutant/mutantd/services/indexing"
	_ "github.com/ntons/mutant/mutantd/services/mutant"
)

// logging grpc calls
func interceptUnary(
	ctx context.Context, req interface{}, info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler) (resp interface{}, err error) {
	md, _ := metadata.FromIncomingContext(ctx)
	log.Debugw("unary call", "method", info.FullMethod, "metadata", md)
	resp, err = handler(ctx, req)
	if x := status.Code(err); x != codes.OK && x != codes.NotFound {
		log.Warnw("unary call error",
			"method", info.FullMethod,
			"error", err,
		)
	}
	return
}

func interceptStream(
	srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo,
	handler grpc.StreamHandler) (err error) {
	md, _ := metadata.FromIncomingContext(ss.Context())
	log.Debugw("stream call", "method", info.FullMethod, "metadata", md)
	err = handler(srv, ss)
	if x := status.Code(err); x != codes.OK && x != codes.NotFound {
		log.Warnw("stream call error",
			"method", info.FullMethod,
			"error", err,
		)
	}
	return
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// logging http requests
func logHttp(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.code >= http.StatusInternalServerError {
			log.Warnw("http request error",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.code,
				"elapsed", time.Since(start),
			)
		} else {
			log.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.code,
				"elapsed", time.Since(start),
			)
		}
	})
}

// start serving, returns after server.Shutdown
func serve(server *srv.Server) (err error) {
	names := make([]string, 0, len(comm.Config.Services))
	for name := range comm.Config.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var svc srv.Service
		if svc, err = comm.CreateService(name, comm.Config.Services[name]); err != nil {
			log.Warnw("failed to create service", "name", name, "error", err)
			return
		}
		server.RegisterService(name, svc)
		log.Infow("service registered", "name", name)
	}

	log.Infow("server is serving", "bind", comm.Config.Bind)
	return server.ListenAndServe(
		comm.Config.Bind,
		srv.WithGrpcOnly(comm.Config.GrpcOnly),
		srv.WithGrpcServerOption(
			grpc.ChainUnaryInterceptor(interceptUnary),
			grpc.ChainStreamInterceptor(interceptStream),
		),
		srv.WithHttpMiddleware(logHttp),
	)
}
