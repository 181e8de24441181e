// Package cli wires the mapleads commands: run (pipeline), serve (HTTP API)
// and initdb (schema).
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lead-makers/mapleads/internal/config"
	"github.com/lead-makers/mapleads/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "mapleads",
	Short:   "Two-phase business lead scraper with crash-resumable progress",
	Long: `Mapleads collects business leads from the public map interface city by
city, then enriches each lead by visiting its website. Both phases record
per-city progress in Postgres, so a crashed or interrupted run resumes
where it stopped.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ui.Error(err.Error()))
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd)
	cobra.OnInitialize(initConfig)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(helpFunc)
}

// initConfig sets up global logging from flags and env before any command
// runs. Commands that tee to a log file reconfigure on top of this.
func initConfig() {
	cfg, err := config.Load(rootCmd)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load configuration, using defaults")
		cfg = &config.Config{LogLevel: config.DefaultLogLevel}
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.JSONLog {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// configureLogging rebuilds the global logger with an optional file tee.
// The file always receives JSON lines so the API log endpoint can stream
// them; the console keeps whatever format the flags chose.
func configureLogging(cfg *config.Config) {
	var console io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if cfg.JSONLog {
		console = os.Stderr
	}

	writers := []io.Writer{console}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Warn().Err(err).Str("file", cfg.LogFile).Msg("Could not open log file, console only")
		} else {
			writers = append(writers, f)
		}
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
}

// helpFunc renders compact colorized help in place of cobra's default.
func helpFunc(cmd *cobra.Command, _ []string) {
	fmt.Fprintf(os.Stdout, "\n%s%s%s\n", ui.ColorBold+ui.ColorCyan, strings.ToUpper(cmd.Name()), ui.ColorReset)
	if cmd.Short != "" {
		fmt.Fprintf(os.Stdout, "%s\n", cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(os.Stdout, "\n%s\n", cmd.Long)
	}

	fmt.Fprintf(os.Stdout, "\n%sUsage%s\n", ui.ColorBold+ui.ColorWhite, ui.ColorReset)
	if cmd.Runnable() {
		fmt.Fprintf(os.Stdout, "  %s%s%s\n", ui.ColorCyan, cmd.UseLine(), ui.ColorReset)
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(os.Stdout, "  %s%s%s %s<command>%s [flags]\n",
			ui.ColorCyan, cmd.CommandPath(), ui.ColorReset, ui.ColorYellow, ui.ColorReset)

		fmt.Fprintf(os.Stdout, "\n%sCommands%s\n", ui.ColorBold+ui.ColorWhite, ui.ColorReset)
		for _, c := range cmd.Commands() {
			if !c.IsAvailableCommand() || c.Name() == "help" {
				continue
			}
			fmt.Fprintf(os.Stdout, "  %s%-10s%s%s%s%s\n",
				ui.ColorCyan, c.Name(), ui.ColorReset, ui.ColorDim, c.Short, ui.ColorReset)
		}
	}

	if cmd.HasAvailableLocalFlags() {
		fmt.Fprintf(os.Stdout, "\n%sFlags%s\n%s", ui.ColorBold+ui.ColorWhite, ui.ColorReset,
			cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		fmt.Fprintf(os.Stdout, "\n%sGlobal Flags%s\n%s", ui.ColorBold+ui.ColorWhite, ui.ColorReset,
			cmd.InheritedFlags().FlagUsages())
	}
	fmt.Fprintln(os.Stdout)
}
