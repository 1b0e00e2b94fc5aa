package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/itdesk/internal/repository"
)

// StartPasscodeSweeper periodically deletes expired passcodes. Expired
// codes are already rejected on lookup; the sweep keeps the table small.
// Runs until ctx is cancelled.
func StartPasscodeSweeper(ctx context.Context, passcodes repository.PasscodeRepository, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := passcodes.DeleteExpired(ctx, time.Now())
			if err != nil {
				logger.Error("passcode sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("expired passcodes removed", zap.Int64("count", removed))
			}
		}
	}
}
