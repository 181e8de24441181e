package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lead-makers/mapleads/internal/browser"
	"github.com/lead-makers/mapleads/internal/config"
	"github.com/lead-makers/mapleads/internal/maps"
	"github.com/lead-makers/mapleads/internal/pipeline"
	"github.com/lead-makers/mapleads/internal/ratelimit"
	"github.com/lead-makers/mapleads/internal/site"
	"github.com/lead-makers/mapleads/internal/store"
	"github.com/lead-makers/mapleads/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the two-phase scraping pipeline",
	Long: `Run works through the city roster in batches: the listing phase collects
leads from the map UI for every city in a batch, then the enrichment phase
visits the collected websites. Interrupting is safe at any point; completed
cities are skipped on the next run.`,
	Example: `  # Full roster with defaults
  mapleads run

  # A targeted rerun with a visible browser
  mapleads run --cities "Reno,Boise" --headless=false`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringSlice("cities", nil, "comma-separated city override for this run")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}
	configureLogging(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Schema must exist before any browser work starts.
	pg, err := store.NewPostgres(ctx, cfg.DSN(), cfg.LeadsTable)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		return err
	}

	cities := pipeline.DefaultCities
	if v, _ := cmd.Flags().GetStringSlice("cities"); len(v) > 0 {
		cities = v
	}

	limiter := ratelimit.NewDomainLimiter(cfg.SiteRateLimitRPS, cfg.SiteRateLimitBurst)
	listing := maps.NewPhase1(cfg, pg, pg)
	enrichment := site.NewPhase2(cfg, pg, pg, limiter)

	factory := func() (pipeline.Session, error) {
		return browser.New(browser.Options{
			Headless:        cfg.Headless,
			WindowWidth:     cfg.WindowWidth,
			WindowHeight:    cfg.WindowHeight,
			OffscreenX:      cfg.OffscreenX,
			OffscreenY:      cfg.OffscreenY,
			ChromePath:      cfg.ChromePath,
			PageLoadTimeout: cfg.PageLoadTimeout,
			ScriptTimeout:   cfg.ScriptTimeout,
		})
	}
	phase1 := func(ctx context.Context, s pipeline.Session, city string) (int, error) {
		return listing.Run(ctx, s.(*browser.Session), city)
	}
	phase2 := func(ctx context.Context, s pipeline.Session, city string) (int, error) {
		return enrichment.Run(ctx, s.(*browser.Session), city)
	}

	orch := pipeline.New(cfg, factory, phase1, phase2)

	// Two units per city: listing and enrichment.
	bar := ui.NewCityBar(len(cities)*2, "cities")
	orch.OnCityDone = func(city string, phase store.Phase) {
		_ = bar.Add(1)
	}

	log.Info().
		Int("cities", len(cities)).
		Int("batch_size", cfg.CityBatchSize).
		Bool("headless", cfg.Headless).
		Str("query", cfg.SearchQuery).
		Msg("Starting scraper")

	err = orch.Run(ctx, cities)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	log.Info().Msg("Scraping completed")
	return nil
}
