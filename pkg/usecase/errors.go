package usecase

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// Sentinel errors for use case layer
var (
	// ErrUpstream matches every UpstreamError
	ErrUpstream = errors.New("upstream capability failed")

	// ErrIndexNotReady is returned when a created index does not become ready in time
	ErrIndexNotReady = errors.New("index is not ready")

	// ErrDimensionMismatch is returned when the embedder returns a different
	// number of vectors than texts
	ErrDimensionMismatch = errors.New("embedding count does not match input")
)

// Capability names the external dependency that failed
type Capability string

const (
	CapabilityEmbed         Capability = "embed"
	CapabilityQuery         Capability = "query"
	CapabilityUpsert        Capability = "upsert"
	CapabilityGenerate      Capability = "generate"
	CapabilityListIndexes   Capability = "list-indexes"
	CapabilityCreateIndex   Capability = "create-index"
	CapabilityDescribeIndex Capability = "describe-index"
)

// UpstreamError is a failure of an embedding, index or generation call. It
// is returned unchanged to the caller; no retry happens in the pipelines.
type UpstreamError struct {
	Capability Capability
	Err        error
}

func (e *UpstreamError) Error() string {
	return string(e.Capability) + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func upstream(capability Capability, err error, msg string, options ...goerr.Option) error {
	countUpstreamError(capability)
	return goerr.Wrap(&UpstreamError{Capability: capability, Err: err}, msg, options...)
}

// Context keys for error values
const (
	IndexNameKey = "index_name"
	SourceIDKey  = "source_id"
)
