package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lead-makers/mapleads/internal/config"
	"github.com/lead-makers/mapleads/internal/store"
	"github.com/lead-makers/mapleads/internal/ui"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the leads and progress tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		fmt.Fprintln(os.Stdout, ui.Success(fmt.Sprintf(
			"Schema ready: %s, scraper_progress", cfg.LeadsTable)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initdbCmd)
}
