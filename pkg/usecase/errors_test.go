package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/docqa/pkg/usecase"
)

func TestUpstreamError(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := &usecase.UpstreamError{Capability: usecase.CapabilityQuery, Err: cause}

	gt.Bool(t, errors.Is(err, usecase.ErrUpstream)).True()
	gt.Bool(t, errors.Is(err, cause)).True()
	gt.Bool(t, errors.Is(err, usecase.ErrIndexNotReady)).False()
	gt.Value(t, err.Error()).Equal("query: deadline exceeded")
}

func TestErrors_ErrorsAreDistinct(t *testing.T) {
	gt.Bool(t, errors.Is(usecase.ErrUpstream, usecase.ErrIndexNotReady)).False()
	gt.Bool(t, errors.Is(usecase.ErrIndexNotReady, usecase.ErrDimensionMismatch)).False()
}
