package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/cli/config"
	httpctrl "github.com/secmon-lab/docqa/pkg/controller/http"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/secmon-lab/docqa/pkg/service/worker"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var setupOnStart bool
	var reingestInterval time.Duration
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var llmCfg config.LLM
	var sourceCfg config.Source
	var rateLimitCfg config.RateLimit

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("DOCQA_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "setup-on-start",
			Usage:       "Ensure the index and ingest all sources in the background at startup",
			Sources:     cli.EnvVars("DOCQA_SETUP_ON_START"),
			Destination: &setupOnStart,
		},
		&cli.DurationFlag{
			Name:        "reingest-interval",
			Usage:       "Re-run setup in the background at this interval (0 disables)",
			Sources:     cli.EnvVars("DOCQA_REINGEST_INTERVAL"),
			Destination: &reingestInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, sourceCfg.Flags()...)
	flags = append(flags, rateLimitCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := appCfg.Configure(); err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			p, err := buildPipeline(ctx, pipelineConfig{
				app:     &appCfg,
				repo:    &repoCfg,
				llm:     &llmCfg,
				source:  &sourceCfg,
				answers: true,
			})
			if err != nil {
				return err
			}
			defer p.Close()

			limiter, err := rateLimitCfg.Configure(p.repo)
			if err != nil {
				return goerr.Wrap(err, "failed to configure rate limit")
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithAnswer(p.Answer),
				httpctrl.WithSetup(p.Setup),
				httpctrl.WithMaxLinks(appCfg.Query.MaxLinks),
			}
			if limiter != nil {
				httpOpts = append(httpOpts, httpctrl.WithRateLimiter(limiter))
				logging.Default().Info("Rate limit enabled", "rate_limit", rateLimitCfg)
			}
			if notice, ok := rateLimitNotice(appCfg.RateLimit); ok {
				httpOpts = append(httpOpts, httpctrl.WithRateLimitNotice(notice))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			var reingestWorker *worker.ReingestWorker
			if setupOnStart || reingestInterval > 0 {
				reingestWorker = worker.NewReingestWorker(p.Setup, reingestInterval, worker.WithRunOnStart(setupOnStart))
				if err := reingestWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start reingest worker")
				}
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"index", appCfg.Index.Name,
					"llm", llmCfg,
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop reingest worker first
				if reingestWorker != nil {
					reingestWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

// rateLimitNotice converts the configured notice. ok is false when the
// configuration keeps the built-in notice.
func rateLimitNotice(cfg config.RateLimitConfig) (httpctrl.Notice, bool) {
	if cfg.Message == "" && len(cfg.Links) == 0 {
		return httpctrl.Notice{}, false
	}

	notice := httpctrl.Notice{
		Message: cfg.Message,
		Links:   make([]model.Link, 0, len(cfg.Links)),
	}
	if notice.Message == "" {
		notice.Message = httpctrl.DefaultRateLimitNotice.Message
	}
	for _, l := range cfg.Links {
		notice.Links = append(notice.Links, model.Link{Link: l.Link, Title: l.Title})
	}
	return notice, true
}
