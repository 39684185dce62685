package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/exam-simulator/internal/api/http"
	auth "github.com/mind-engage/exam-simulator/internal/auth/middleware"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, rootOpts)
		},
	}
}

func serve(ctx context.Context, opts *RootOptions) error {
	cfg, log, err := loadConfig(opts)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := api.NewRouter(api.Deps{
		Service:     a.service,
		Auth:        auth.NewAuthService(cfg.Auth.HMACSecret, cfg.Auth.TokenTTL),
		Admin:       auth.Admin{User: cfg.Auth.AdminUser, PassHash: cfg.Auth.AdminPassHash},
		Log:         log.Named("http"),
		Archive:     a.archive,
		Events:      a.events,
		Blobs:       a.blobs,
		Ready:       a.db.PingContext,
		CORSOrigins: cfg.CORSOrigins(),
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sched := gocron.NewScheduler(time.UTC)
	if _, err := sched.Every(cfg.Session.SweepEvery).Do(func() {
		a.service.SweepIdle(cfg.Session.IdleTTL)
	}); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("db", cfg.DB.Driver),
			zap.Bool("tts", cfg.TTS.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sched.StartAsync()
		<-gctx.Done()
		sched.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
