package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultIdleTTL       = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// Reaper evicts idle sessions on a fixed interval so idle conversations do
// not accumulate for the process lifetime. A stopped reaper can be started
// again.
type Reaper struct {
	store    *Store
	ttl      time.Duration
	interval time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewReaper creates a reaper for store. Zero values select the defaults.
func NewReaper(store *Store, ttl, interval time.Duration) *Reaper {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &Reaper{
		store:    store,
		ttl:      ttl,
		interval: interval,
	}
}

// Start starts the background sweep loop.
func (r *Reaper) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("reaper is already running")
	}

	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.running = true
	go r.run(r.stopCh, r.doneCh)

	log.Info().
		Dur("ttl", r.ttl).
		Dur("interval", r.interval).
		Msg("Session reaper started")

	return nil
}

// Stop stops the background sweep loop and waits for it to exit.
func (r *Reaper) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return fmt.Errorf("reaper is not running")
	}

	close(r.stopCh)
	<-r.doneCh
	r.running = false

	log.Info().Msg("Session reaper stopped")

	return nil
}

// IsRunning returns whether the sweep loop is active.
func (r *Reaper) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// TTL returns the idle threshold after which sessions are evicted.
func (r *Reaper) TTL() time.Duration {
	return r.ttl
}

// SweepNow evicts idle sessions immediately and returns the count.
func (r *Reaper) SweepNow() int {
	evicted := r.store.EvictIdle(r.ttl)
	if evicted > 0 {
		log.Info().Int("evicted", evicted).Msg("Evicted idle sessions")
	}
	return evicted
}

func (r *Reaper) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.SweepNow()
		case <-stopCh:
			return
		}
	}
}
