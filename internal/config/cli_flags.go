package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("json", false, "Emit logs as JSON")
	cmd.PersistentFlags().String("query", "", "Search query submitted to the map UI")
	cmd.PersistentFlags().Bool("headless", DefaultHeadless, "Run the browser headless")
	cmd.PersistentFlags().Int("max-leads", DefaultMaxLeadsPerCity, "Per-city lead cap")
	cmd.PersistentFlags().Int("batch-size", DefaultCityBatchSize, "Cities per phase1/phase2 batch")
}
