package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Batcher processes items in fixed-size waves with a cooldown between waves
// to stay inside provider rate limits.
type Batcher struct {
	chunkSize int
	cooldown  time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewBatcher creates a Batcher. chunkSize < 1 is treated as 1.
func NewBatcher(chunkSize int, cooldown time.Duration) *Batcher {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &Batcher{chunkSize: chunkSize, cooldown: cooldown, sleep: sleepCtx}
}

// Waves returns the number of waves needed for n items.
func (b *Batcher) Waves(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + b.chunkSize - 1) / b.chunkSize
}

// Cooldown returns the pause between waves.
func (b *Batcher) Cooldown() time.Duration { return b.cooldown }

// Run calls fn for each index in [0, n). Indexes within a wave run
// concurrently; waves run in order with the cooldown between them and none
// after the last. fn owns its own error handling. Run returns the number of
// completed waves and ctx.Err() if cancelled before the next wave.
func (b *Batcher) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) (int, error) {
	total := b.Waves(n)
	for wave := 0; wave < total; wave++ {
		if err := ctx.Err(); err != nil {
			return wave, err
		}

		lo := wave * b.chunkSize
		hi := min(lo+b.chunkSize, n)
		zap.L().Debug("batch wave",
			zap.Int("wave", wave+1),
			zap.Int("waves", total),
			zap.Int("size", hi-lo),
		)

		var g errgroup.Group
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				fn(ctx, i)
				return nil
			})
		}
		_ = g.Wait()

		if wave < total-1 && b.cooldown > 0 {
			if err := b.sleep(ctx, b.cooldown); err != nil {
				return wave + 1, err
			}
		}
	}
	return total, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
