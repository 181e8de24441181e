// Package pipeline sequences the two scrape phases across city batches and
// owns browser lifecycle: liveness checks, crash-replacement, and the pacing
// between cities.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lead-makers/mapleads/internal/config"
	"github.com/lead-makers/mapleads/internal/store"
)

// Session is the browser lifecycle surface the orchestrator needs. The
// concrete session is owned wholesale: a dead one is closed and replaced,
// never repaired.
type Session interface {
	IsAlive() bool
	Close()
}

// SessionFactory launches a fresh browser session.
type SessionFactory func() (Session, error)

// PhaseFunc runs one phase for one city against the active session and
// returns how many rows it produced or updated.
type PhaseFunc func(ctx context.Context, s Session, city string) (int, error)

// Orchestrator drives the batched two-phase schedule: listing for every city
// in a batch, then enrichment for the same batch, then the next batch. The
// early enrichment of finished batches means usable rows exist long before
// the full roster is done.
type Orchestrator struct {
	cfg        *config.Config
	newSession SessionFactory
	phase1     PhaseFunc
	phase2     PhaseFunc

	// OnCityDone fires after every per-city phase attempt that succeeded,
	// for progress reporting.
	OnCityDone func(city string, phase store.Phase)

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

func New(cfg *config.Config, factory SessionFactory, phase1, phase2 PhaseFunc) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		newSession: factory,
		phase1:     phase1,
		phase2:     phase2,
		sleep:      time.Sleep,
	}
}

// Run executes the full schedule over cities. It returns early only on
// context cancellation or when no browser can be launched at all; per-city
// failures burn their retry budget and are then abandoned, since progress
// tracking lets a later run pick them up.
func (o *Orchestrator) Run(ctx context.Context, cities []string) error {
	s, err := o.newSession()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer func() { s.Close() }()

	batches := Batches(cities, o.cfg.CityBatchSize)
	for i, batch := range batches {
		log.Info().Int("batch", i+1).Int("batches", len(batches)).Strs("cities", batch).
			Msg("Starting batch")

		if err := o.runBatchPhase(ctx, &s, batch, store.PhaseListing); err != nil {
			return err
		}
		if err := o.runBatchPhase(ctx, &s, batch, store.PhaseEnrichment); err != nil {
			return err
		}

		log.Info().Int("batch", i+1).Strs("cities", batch).Msg("Batch complete")
	}
	return nil
}

func (o *Orchestrator) runBatchPhase(ctx context.Context, s *Session, batch []string, phase store.Phase) error {
	fn := o.phase1
	pause := func() time.Duration { return jitter(4*time.Second, 7*time.Second) }
	if phase == store.PhaseEnrichment {
		fn = o.phase2
		pause = func() time.Duration { return jitter(3*time.Second, 6*time.Second) }
	}

	for _, city := range batch {
		succeeded := false
		for attempt := 1; attempt <= o.cfg.PhaseAttempts; attempt++ {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if !(*s).IsAlive() {
				if err := o.replaceSession(s); err != nil {
					log.Error().Err(err).Str("city", city).Int("attempt", attempt).
						Msg("Browser replacement failed")
					continue
				}
			}

			_, err := fn(ctx, *s, city)
			if err == nil {
				if o.OnCityDone != nil {
					o.OnCityDone(city, phase)
				}
				o.sleep(pause())
				succeeded = true
				break
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			log.Error().Err(err).Str("city", city).Str("phase", string(phase)).
				Int("attempt", attempt).Int("max_attempts", o.cfg.PhaseAttempts).
				Msg("City phase failed")
			if rerr := o.replaceSession(s); rerr != nil {
				log.Error().Err(rerr).Msg("Browser replacement failed")
			}
		}
		// Both exhaustion paths land here: repeated phase failures and a
		// browser that could not be replaced.
		if !succeeded {
			log.Error().Str("city", city).Str("phase", string(phase)).
				Msg("Giving up on city for this run")
		}
	}
	return nil
}

// replaceSession discards the current browser and launches a fresh one. The
// short pause lets the old Chrome process release its profile and sockets.
func (o *Orchestrator) replaceSession(s *Session) error {
	log.Warn().Msg("Replacing browser session")
	(*s).Close()
	o.sleep(3 * time.Second)

	fresh, err := o.newSession()
	if err != nil {
		return fmt.Errorf("relaunch browser: %w", err)
	}
	*s = fresh
	log.Info().Msg("Browser session replaced")
	return nil
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
