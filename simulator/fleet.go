package simulator

import (
	"context"
	"sync"

	"github.com/kilianp07/voicedispatch/core/logger"
)

// RunFleet runs one simulated unit per configured identity until ctx is
// done. It returns the first connection error.
func RunFleet(ctx context.Context, cfg Config, log logger.Logger) error {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	strat := cfg.Strategy()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)
	for _, id := range cfg.UnitIDs {
		u := NewSimulatedUnit(id, cfg, strat, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := u.Run(ctx); err != nil {
				log.Errorf("%v", err)
				once.Do(func() { first = err })
				cancel()
			}
		}()
	}
	wg.Wait()
	return first
}
