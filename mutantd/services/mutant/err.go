package mutant

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ntons/mutant/mutantd/internal/dna"
)

var (
	errMalformedBody = status.Errorf(codes.InvalidArgument, "malformed request body")
	errDatabase      = status.Errorf(codes.Unavailable, "database error")
)

func fromDnaError(err error) error {
	var e *dna.InvalidInputError
	if errors.As(err, &e) {
		return status.Errorf(codes.InvalidArgument, "%s", e.Reason)
	}
	return status.Errorf(codes.Internal, "dna: %s", err)
}
