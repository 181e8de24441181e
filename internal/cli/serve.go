package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lead-makers/mapleads/internal/api"
	"github.com/lead-makers/mapleads/internal/config"
	"github.com/lead-makers/mapleads/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lead database and scraper controls over HTTP",
	Long: `Serve exposes the collected leads read-only (GET /leads, /stats,
/progress, /logs) and controls the scraper as a child process
(POST /scraper/start, /scraper/stop, GET /scraper/status).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", config.DefaultAPIPort, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pg, err := store.NewPostgres(ctx, cfg.DSN(), cfg.LeadsTable)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		return err
	}

	// /scraper/start re-invokes this same binary with the run subcommand.
	bin, err := os.Executable()
	if err != nil {
		bin = "mapleads"
	}

	srv := api.NewServer(pg, pg, api.NewRunner(), bin, []string{"run"}, cfg.LogFile)
	return srv.ListenAndServe(cfg.APIPort)
}
