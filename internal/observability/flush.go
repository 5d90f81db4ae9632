package observability

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// FlushTelemetry syncs the logger before process exit. Metrics are pull-based and
// need no flush. Sync errors from non-syncable outputs (stderr on a terminal or pipe)
// are ignored.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := logger.Sync(); err != nil && !isBenignSyncError(err) {
		return fmt.Errorf("flush logs: %w", err)
	}
	return nil
}

func isBenignSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF)
}
