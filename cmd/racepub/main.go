package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/racepub"
)

// version is set at build time via ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "racepub",
	Short: "Publish race reports to a GitHub repository",
	Long: `racepub commits race reports (public/gare/<slug>.html) and their
metadata (gare-sorgenti/<slug>.json) to GitHub and serves the race index.

GitHub credentials come from GITHUB_OWNER, GITHUB_REPO and GITHUB_TOKEN,
or from the file given with --config.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the publish API",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the racepub version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("racepub %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("RACEPUB_CONFIG"), "YAML config file (or set RACEPUB_CONFIG)")

	publishCmd.Flags().StringVar(&metaFile, "meta", "", "race metadata JSON file (required)")
	publishCmd.Flags().StringVar(&htmlFile, "html", "", "race report HTML file (required)")
	_ = publishCmd.MarkFlagRequired("meta")
	_ = publishCmd.MarkFlagRequired("html")

	indexCmd.Flags().StringVarP(&indexOut, "out", "o", "", "write the index to this file instead of stdout")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newApp() (*racepub.App, error) {
	cfg, err := racepub.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return racepub.New(cfg), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-errCh
}
