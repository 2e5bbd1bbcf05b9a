package srv

import (
	"net/http"

	"google.golang.org/grpc"
)

type serveOptions struct {
	grpcOnly          bool
	grpcServerOptions []grpc.ServerOption
	httpMiddlewares   []func(http.Handler) http.Handler
}

type ServeOption interface {
	apply(o *serveOptions)
}

type funcServeOption struct {
	fn func(o *serveOptions)
}

func (fo funcServeOption) apply(o *serveOptions) {
	fo.fn(o)
}

// force http disabled, only grpc enabled
func WithGrpcOnly(ok bool) ServeOption {
	return funcServeOption{func(o *serveOptions) {
		o.grpcOnly = ok
	}}
}

// grpc server options
func WithGrpcServerOption(opts ...grpc.ServerOption) ServeOption {
	return funcServeOption{func(o *serveOptions) {
		o.grpcServerOptions = append(o.grpcServerOptions, opts...)
	}}
}

// wrap the http mux, the first middleware is the outermost
func WithHttpMiddleware(mws ...func(http.Handler) http.Handler) ServeOption {
	return funcServeOption{func(o *serveOptions) {
		o.httpMiddlewares = append(o.httpMiddlewares, mws...)
	}}
}
