package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/secmon-lab/docqa/pkg/utils/logging"
)

// Close safely closes an io.Closer and logs any errors.
// It handles nil closers gracefully.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// ReadAll reads r until EOF and closes it afterwards.
func ReadAll(ctx context.Context, r io.ReadCloser) ([]byte, error) {
	defer Close(ctx, r)
	return io.ReadAll(r)
}
