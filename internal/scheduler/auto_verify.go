// Package scheduler runs periodic maintenance over service jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"service-jobs-api/config"
	"service-jobs-api/internal/transport/dto"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Verifier verifies every Completed job finished before cutoff.
type Verifier interface {
	AutoVerifyCompleted(ctx context.Context, cutoff time.Time) (*dto.AutoVerifyResponse, error)
}

// AutoVerifier periodically verifies completed jobs whose review window has elapsed.
type AutoVerifier struct {
	verifier Verifier
	after    time.Duration
	cron     *cron.Cron
	now      func() time.Time

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewAutoVerifier schedules the sweep described by cfg. The cron is not
// started until Start is called.
func NewAutoVerifier(verifier Verifier, cfg config.AutoVerifyConfig) (*AutoVerifier, error) {
	if cfg.After <= 0 {
		return nil, fmt.Errorf("auto verify window must be positive, got %s", cfg.After)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	v := &AutoVerifier{
		verifier: verifier,
		after:    cfg.After,
		cron:     c,
		now:      time.Now,
		ctx:      context.Background(),
	}
	if _, err := c.AddFunc(cfg.Schedule, v.tick); err != nil {
		return nil, fmt.Errorf("invalid auto verify schedule %q: %w", cfg.Schedule, err)
	}
	return v, nil
}

// Start begins running the sweep on its schedule. Sweeps are cancelled when
// ctx is done or Stop is called.
func (v *AutoVerifier) Start(ctx context.Context) {
	v.mu.Lock()
	v.ctx, v.cancel = context.WithCancel(ctx)
	v.mu.Unlock()

	v.cron.Start()
	zap.S().Infof("AutoVerifier: started, window %s", v.after)
}

// Stop halts the schedule and waits for a running sweep to return.
func (v *AutoVerifier) Stop() {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.mu.Unlock()

	<-v.cron.Stop().Done()
	zap.S().Info("AutoVerifier: stopped")
}

// RunOnce performs a single sweep with the configured window.
func (v *AutoVerifier) RunOnce(ctx context.Context) (*dto.AutoVerifyResponse, error) {
	cutoff := v.now().Add(-v.after)
	result, err := v.verifier.AutoVerifyCompleted(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if result.Verified > 0 || result.Failed > 0 {
		zap.S().Infof("AutoVerifier: verified %d jobs completed before %s, %d failed",
			result.Verified, cutoff.Format(time.RFC3339), result.Failed)
	}
	return result, nil
}

func (v *AutoVerifier) tick() {
	v.mu.Lock()
	ctx := v.ctx
	v.mu.Unlock()

	if _, err := v.RunOnce(ctx); err != nil {
		zap.S().Errorf("AutoVerifier: Error during sweep: %v", err)
	}
}
