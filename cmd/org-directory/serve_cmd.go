package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ritzau/org-directory/pkg/config"
	"github.com/ritzau/org-directory/pkg/loader"
	"github.com/ritzau/org-directory/pkg/logging"
	"github.com/ritzau/org-directory/pkg/pubsub"
	"github.com/ritzau/org-directory/pkg/source"
	"github.com/ritzau/org-directory/pkg/store"
	"github.com/ritzau/org-directory/pkg/watcher"
	"github.com/ritzau/org-directory/pkg/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server and API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().Bool("open", false, "Open the UI in a browser once the server is up")
	cmd.Flags().Bool("metrics", true, "Serve Prometheus metrics on /metrics")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	st := store.New(store.Options{RejectDuplicates: cfg.RejectDuplicates})
	publisher := pubsub.NewDirectoryPublisher()
	defer publisher.Close()

	primary := primarySource(cfg)
	opts := loader.Options{Publisher: publisher}
	if primary.Name() != source.SeedName {
		opts.Fallback = source.NewSeedSource()
	}
	ld := loader.New(st, primary, opts)

	server := web.NewServer(st, ld, publisher, web.Options{
		UploadMaxBytes:  cfg.UploadMaxBytes,
		Parse:           parseOptions(cfg),
		CORSOrigins:     cfg.CORSOrigins,
		Metrics:         cfg.Metrics,
		Representatives: cfg.Representatives,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(ctx, cfg.Port) }()

	// The UI shows loading progress, so serve before the first load finishes
	if _, err := ld.Initial(ctx); err != nil {
		logging.Error("initial load failed, serving an empty directory", "error", err)
	}

	if cfg.Watch {
		err := watcher.Watch(ctx, cfg.Spreadsheet, watcher.DefaultQuietPeriod, watcher.DefaultMaxWait,
			func(ctx context.Context, reason string) error {
				_, err := ld.Sync(ctx, reason)
				return err
			})
		if err != nil {
			logging.Warn("could not watch spreadsheet", "path", cfg.Spreadsheet, "error", err)
		}
	}
	ld.StartPeriodicSync(ctx, cfg.SyncInterval)

	url := fmt.Sprintf("http://localhost:%d", cfg.Port)
	logging.Info("org directory ready", "url", url, "employees", st.Snapshot().Len())
	if cfg.OpenBrowser {
		go func() {
			// Give the listener a moment before the browser connects
			time.Sleep(300 * time.Millisecond)
			openBrowser(url)
		}()
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}
