package api

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/miradorstack/mirador-scheduler/internal/models"
	"github.com/miradorstack/mirador-scheduler/internal/policy"
	"github.com/miradorstack/mirador-scheduler/internal/utils"
)

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, models.ErrInvalidRequest) ||
		errors.Is(err, models.ErrInvalidInterval) ||
		errors.Is(err, models.ErrEmptyAvailability) ||
		errors.Is(err, policy.ErrUnknownPolicyKey) ||
		errors.Is(err, policy.ErrInvalidPolicyValue)
}

func httpStatus(err error) int {
	if IsClientError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func grpcStatus(err error) error {
	if IsClientError(err) {
		return status.Error(codes.InvalidArgument, utils.Message(err))
	}
	return status.Error(codes.Internal, "optimization failed")
}
