package srv

import (
	"errors"
	"net/http"

	"google.golang.org/grpc"
)

var (
	ErrUnimplemented = errors.New("unimplemented")
)

// alias some type for avoiding import by user
type GrpcServer = grpc.Server
type HttpServeMux = http.ServeMux

type Service interface {
	// register grpc service, ErrUnimplemented if none
	RegisterGrpc(*GrpcServer) error
	// register raw http handlers, ErrUnimplemented if none
	RegisterHttp(*HttpServeMux) error
	// waiting for service internal goroutine join
	Serve()
	// Stop service, invoked before server shutdown
	Stop()
}
