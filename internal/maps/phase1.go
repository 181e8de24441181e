package maps

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lead-makers/mapleads/internal/browser"
	"github.com/lead-makers/mapleads/internal/config"
	"github.com/lead-makers/mapleads/internal/store"
)

// Phase1 runs the listing phase for one city: search, scroll the feed to
// convergence, then walk the cards extracting and persisting leads until the
// per-city cap is reached or the feed is exhausted.
type Phase1 struct {
	cfg      *config.Config
	leads    store.LeadStore
	progress store.ProgressStore
}

func NewPhase1(cfg *config.Config, leads store.LeadStore, progress store.ProgressStore) *Phase1 {
	return &Phase1{cfg: cfg, leads: leads, progress: progress}
}

// Run executes the listing phase for city. Returns the number of leads now
// stored for the city. A completed city is skipped before the browser is
// touched, which is what makes crash-resume cheap.
//
// The city is NOT marked completed when the search fails or yields zero
// cards, so a later run retries it from scratch.
func (p *Phase1) Run(ctx context.Context, s *browser.Session, city string) (int, error) {
	done, err := p.progress.IsCompleted(ctx, city, store.PhaseListing)
	if err != nil {
		return 0, err
	}
	if done {
		log.Info().Str("city", city).Msg("Listing phase already completed, skipping")
		return 0, nil
	}

	log.Info().Str("city", city).Msg("Starting listing phase")
	if err := p.progress.MarkStarted(ctx, city, store.PhaseListing); err != nil {
		return 0, err
	}

	scraped, err := p.leads.CountForCity(ctx, city)
	if err != nil {
		return 0, err
	}
	keys, err := p.leads.ExistingKeys(ctx)
	if err != nil {
		return 0, err
	}
	if scraped >= p.cfg.MaxLeadsPerCity {
		log.Info().Str("city", city).Int("leads", scraped).Msg("City already at lead cap")
		if err := p.progress.MarkCompleted(ctx, city, store.PhaseListing); err != nil {
			return scraped, err
		}
		return scraped, nil
	}

	if err := SearchCity(s, p.cfg, city); err != nil {
		return scraped, fmt.Errorf("search failed for %s: %w", city, err)
	}

	total := ScrollResults(s, p.cfg.MaxLeadsPerCity+20, p.cfg.ScrollDelay)
	if total == 0 {
		log.Warn().Str("city", city).Msg("No result cards found, leaving city for retry")
		return scraped, nil
	}
	log.Info().Str("city", city).Int("cards", total).Msg("Result feed loaded")

	errCount := 0
	idx := 0
	lastName := store.Sentinel

	for scraped < p.cfg.MaxLeadsPerCity {
		if ctx.Err() != nil {
			return scraped, ctx.Err()
		}

		if IsSigninPage(s) {
			log.Warn().Str("city", city).Msg("Sign-in interstitial detected, re-issuing search")
			if err := SearchCity(s, p.cfg, city); err != nil {
				log.Error().Err(err).Str("city", city).Msg("Recovery search failed")
				break
			}
			total = ScrollResults(s, p.cfg.MaxLeadsPerCity+20, p.cfg.ScrollDelay)
			idx = 0
			continue
		}

		if idx >= total {
			// Try to load more cards past the ones already visited.
			grown := ScrollResults(s, idx+15, p.cfg.ScrollDelay)
			if grown <= total {
				log.Info().Str("city", city).Int("leads", scraped).Msg("Result feed exhausted")
				break
			}
			total = grown
		}

		saved, name, err := p.scrapeCard(ctx, s, city, idx, lastName, keys)
		if err != nil {
			errCount++
			log.Error().Err(err).Str("city", city).Int("card", idx+1).Int("errors", errCount).
				Msg("Card scrape failed")
			if IsSigninPage(s) {
				if serr := SearchCity(s, p.cfg, city); serr == nil {
					total = ScrollResults(s, p.cfg.MaxLeadsPerCity+20, p.cfg.ScrollDelay)
					idx = 0
					continue
				}
				// A failed recovery here is just another bad card; the
				// proactive check at the top of the loop decides whether
				// the city is truly unreachable.
				log.Error().Str("city", city).Msg("Recovery search failed, moving to next card")
			}
			idx++
			time.Sleep(2 * time.Second)
			continue
		}
		if name != "" {
			keys[store.NewLeadKey(city, name)] = struct{}{}
		}
		if saved {
			scraped++
			lastName = name
			log.Info().Str("city", city).Str("name", name).Int("leads", scraped).Msg("Lead saved")
		}

		idx++
		time.Sleep(jitter(800*time.Millisecond, 2*time.Second))
	}

	if err := p.progress.MarkCompleted(ctx, city, store.PhaseListing); err != nil {
		return scraped, err
	}
	log.Info().Str("city", city).Int("leads", scraped).Int("errors", errCount).
		Msg("Listing phase completed")
	return scraped, nil
}

// scrapeCard clicks card idx, confirms the detail panel switched, extracts
// the fields, and persists the lead. Returns the extracted name (empty when
// nothing usable was read) and whether a new row was inserted. Unclickable
// or unconfirmed cards are skipped without error; only persistence failures
// are errors.
func (p *Phase1) scrapeCard(ctx context.Context, s *browser.Session, city string, idx int, lastName string, keys map[store.LeadKey]struct{}) (bool, string, error) {
	if !ClickCard(s, idx) {
		log.Warn().Str("city", city).Int("card", idx+1).Msg("Could not click card, skipping")
		return false, "", nil
	}

	if !ConfirmSelection(s, lastName, p.cfg.DetailWait) {
		// One retry: re-click and accept whatever panel is showing.
		ClickCard(s, idx)
		time.Sleep(3 * time.Second)
		name := ExtractName(s)
		if name == store.Sentinel || name == lastName {
			log.Warn().Str("city", city).Int("card", idx+1).Msg("Detail panel did not switch, skipping")
			return false, "", nil
		}
	}

	time.Sleep(p.cfg.DetailPageDelay)
	d := ExtractDetails(s)
	if d.Name == store.Sentinel {
		log.Warn().Str("city", city).Int("card", idx+1).Msg("No business name extracted, skipping")
		return false, "", nil
	}

	if _, dup := keys[store.NewLeadKey(city, d.Name)]; dup {
		log.Debug().Str("city", city).Str("name", d.Name).Msg("Duplicate lead, skipping")
		return false, d.Name, nil
	}

	inserted, err := p.leads.Insert(ctx, store.Lead{
		City:      city,
		Name:      d.Name,
		Rating:    d.Rating,
		Address:   d.Address,
		Phone:     d.Phone,
		Website:   d.Website,
		Timings:   d.Timings,
		LogoURL:   store.Sentinel,
		Services:  store.Sentinel,
		Pricing:   store.Sentinel,
		ScrapedAt: time.Now(),
	})
	if err != nil {
		return false, d.Name, err
	}
	if !inserted {
		log.Debug().Str("city", city).Str("name", d.Name).Msg("Lead already in database")
	}
	return inserted, d.Name, nil
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
