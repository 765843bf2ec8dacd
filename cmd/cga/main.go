package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jcristia/CGA/internal/logging"
)

// app carries state shared by every subcommand.
type app struct {
	v   *viper.Viper
	log logging.Logger
}

func main() {
	// .env is optional
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{v: viper.New(), log: logging.NewNop()}
	a.v.SetEnvPrefix("CGA")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "cga",
		Short:         "Conservation gap analysis for marine protected area networks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logging.New(logging.Config{
				Level:  a.v.GetString("log-level"),
				Format: a.v.GetString("log-format"),
			})
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
	}

	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	a.v.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	a.v.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(a.analyzeCmd())
	rootCmd.AddCommand(a.validateCmd())
	rootCmd.AddCommand(a.layersCmd())
	rootCmd.AddCommand(a.serveCmd())

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		a.log.Error("command failed", logging.Err(err))
	}
	a.log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func (a *app) analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [project-path]",
		Short: "Run the gap analysis and write the three output tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd.Context(), args[0])
		},
	}
	cmd.Flags().String("metrics-file", "", "write prometheus metrics to this textfile after the run")
	cmd.Flags().Int("workers", 0, "override the configured number of layer workers")
	a.v.BindPFlag("metrics-file", cmd.Flags().Lookup("metrics-file"))
	a.v.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate configuration, matrices and the layer catalog without running geometry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd.Context(), args[0])
		},
	}
}

func (a *app) layersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layers [project-path]",
		Short: "List catalog datasets with their parsed identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLayers(cmd.Context(), args[0])
		},
	}
}

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Run the analysis once and serve the results over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context(), args[0])
		},
	}
	cmd.Flags().IntP("port", "p", 3000, "HTTP server port")
	a.v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}
