package observability

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"go.uber.org/zap"
)

func TestFlushTelemetry(t *testing.T) {
	if err := FlushTelemetry(context.Background(), nil); err != nil {
		t.Errorf("FlushTelemetry(nil logger) error = %v", err)
	}
	if err := FlushTelemetry(context.Background(), zap.NewNop()); err != nil {
		t.Errorf("FlushTelemetry(nop) error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := FlushTelemetry(ctx, zap.NewNop()); !errors.Is(err, context.Canceled) {
		t.Errorf("FlushTelemetry(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestIsBenignSyncError(t *testing.T) {
	if !isBenignSyncError(fmt.Errorf("sync /dev/stderr: %w", syscall.EINVAL)) {
		t.Error("EINVAL should be benign")
	}
	if isBenignSyncError(errors.New("disk full")) {
		t.Error("arbitrary error should not be benign")
	}
}
