package indexing

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	errMalformedBody = status.Errorf(codes.InvalidArgument, "malformed request body")
	errNotFound      = status.Errorf(codes.NotFound, "not found")
)

func newInvalidArgumentError(format string, a ...interface{}) error {
	return status.Errorf(codes.InvalidArgument, format, a...)
}

func newUnavailableError(format string, a ...interface{}) error {
	return status.Errorf(codes.Unavailable, format, a...)
}

func newInternalError(format string, a ...interface{}) error {
	return status.Errorf(codes.Internal, format, a...)
}
