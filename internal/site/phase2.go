package site

import (
	"context"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lead-makers/mapleads/internal/browser"
	"github.com/lead-makers/mapleads/internal/config"
	"github.com/lead-makers/mapleads/internal/ratelimit"
	"github.com/lead-makers/mapleads/internal/store"
)

// Phase2 runs the enrichment phase for one city: visit each stored lead's
// website and mine it for a logo, services, and pricing.
type Phase2 struct {
	cfg      *config.Config
	leads    store.LeadStore
	progress store.ProgressStore
	limiter  ratelimit.RateLimiter
}

func NewPhase2(cfg *config.Config, leads store.LeadStore, progress store.ProgressStore, limiter ratelimit.RateLimiter) *Phase2 {
	return &Phase2{cfg: cfg, leads: leads, progress: progress, limiter: limiter}
}

// Run enriches every candidate lead in the city. Returns how many rows were
// updated. Unlike the listing phase, enrichment always marks the city
// completed at the end: a site that failed this pass would likely fail the
// next pass too, and listing data is already safe.
func (p *Phase2) Run(ctx context.Context, s *browser.Session, city string) (int, error) {
	done, err := p.progress.IsCompleted(ctx, city, store.PhaseEnrichment)
	if err != nil {
		return 0, err
	}
	if done {
		log.Info().Str("city", city).Msg("Enrichment phase already completed, skipping")
		return 0, nil
	}

	log.Info().Str("city", city).Msg("Starting enrichment phase")
	if err := p.progress.MarkStarted(ctx, city, store.PhaseEnrichment); err != nil {
		return 0, err
	}

	candidates, err := p.leads.EnrichmentCandidates(ctx, city)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		log.Info().Str("city", city).Msg("No enrichment candidates")
		if err := p.progress.MarkCompleted(ctx, city, store.PhaseEnrichment); err != nil {
			return 0, err
		}
		return 0, nil
	}
	log.Info().Str("city", city).Int("candidates", len(candidates)).Msg("Enrichment candidates loaded")

	updated, errCount := 0, 0
	for _, c := range candidates {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}

		if err := p.limiter.Wait(ctx, c.Website); err != nil {
			return updated, err
		}

		e, err := p.scrapeSite(s, c.Website)
		if err != nil {
			errCount++
			log.Error().Err(err).Str("city", city).Str("name", c.Name).Str("url", c.Website).
				Msg("Website scrape failed")
			continue
		}

		ok, err := p.leads.UpdateEnrichment(ctx, city, c.Name, e)
		if err != nil {
			errCount++
			log.Error().Err(err).Str("city", city).Str("name", c.Name).Msg("Enrichment update failed")
			continue
		}
		if ok {
			updated++
			log.Info().Str("city", city).Str("name", c.Name).
				Int("updated", updated).Int("total", len(candidates)).Msg("Lead enriched")
		} else {
			log.Debug().Str("city", city).Str("name", c.Name).Msg("Nothing extracted, row untouched")
		}

		time.Sleep(jitter(2*time.Second, 4*time.Second))
	}

	if err := p.progress.MarkCompleted(ctx, city, store.PhaseEnrichment); err != nil {
		return updated, err
	}
	log.Info().Str("city", city).Int("updated", updated).Int("errors", errCount).
		Msg("Enrichment phase completed")
	return updated, nil
}

func (p *Phase2) scrapeSite(s *browser.Session, site string) (store.Enrichment, error) {
	e := store.Enrichment{LogoURL: store.Sentinel, Services: store.Sentinel, Pricing: store.Sentinel}

	if err := LoadPage(s, site); err != nil {
		return e, err
	}
	time.Sleep(p.cfg.PageLoadDelay + jitter(500*time.Millisecond, 1500*time.Millisecond))
	ScrollFully(s, p.cfg.ScrollDelay)

	doc, text, err := Snapshot(s)
	if err != nil {
		return e, err
	}

	base, _ := url.Parse(site)
	if logo := ExtractLogoURL(doc, base); logo != "" {
		e.LogoURL = logo
	}
	if services := ExtractServices(text); len(services) > 0 {
		e.Services = strings.Join(services, "; ")
	}
	if pricing := ExtractPricing(doc, text); len(pricing) > 0 {
		e.Pricing = strings.Join(pricing, "; ")
	}
	return e, nil
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
