package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/exam-simulator/internal/config"
	"github.com/mind-engage/exam-simulator/internal/db"
	"github.com/mind-engage/exam-simulator/internal/exam"
	"github.com/mind-engage/exam-simulator/internal/logging"
	"github.com/mind-engage/exam-simulator/internal/questionset"
	"github.com/mind-engage/exam-simulator/internal/report"
	"github.com/mind-engage/exam-simulator/internal/storage"
	syncx "github.com/mind-engage/exam-simulator/internal/sync"
	"github.com/mind-engage/exam-simulator/internal/tts"
)

// app is everything a command may need, built from one config.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *sql.DB
	sets    *questionset.Store
	archive *report.Archive
	events  *syncx.EventRepo
	blobs   *storage.FSStore
	service *exam.Service
}

func loadConfig(opts *RootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	log, err := logging.New(cfg.Env, level)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	dbh, err := db.Open(openCtx, db.Driver(cfg.DB.Driver), cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	archive, err := report.NewArchive(dbh, db.Driver(cfg.DB.Driver))
	if err != nil {
		dbh.Close()
		return nil, err
	}
	events, err := syncx.NewEventRepo(dbh, db.Driver(cfg.DB.Driver), "")
	if err != nil {
		dbh.Close()
		return nil, err
	}
	blobs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		dbh.Close()
		return nil, fmt.Errorf("blob store: %w", err)
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		db:      dbh,
		sets:    questionset.NewStore(cfg.QuestionsDir, log.Named("questionset")),
		archive: archive,
		events:  events,
		blobs:   blobs,
	}

	opts := []exam.ServiceOption{exam.WithArchive(archive), exam.WithEvents(a.events)}
	if cfg.TTS.Enabled {
		opts = append(opts, exam.WithNarrator(newNarrator(cfg.TTS, cfg.PublicURL, blobs, log.Named("tts"))))
	}
	a.service = exam.NewService(a.sets, exam.NewRegistry(), log.Named("exam"), opts...)
	return a, nil
}

func newNarrator(c config.TTS, publicURL string, blobs *storage.FSStore, log *zap.Logger) *tts.CachedNarrator {
	hc := tts.NewHTTPClient(c.HFToken, c.Timeout)
	backends := make([]tts.Backend, 0, len(c.Backends))
	for _, b := range c.Backends {
		backends = append(backends, tts.NewGradioBackend(tts.GradioConfig{
			Name:     b.Name,
			BaseURL:  b.BaseURL,
			API:      b.API,
			Extended: b.Extended,
			Language: b.Language,
			Voice:    b.Voice,
			Speaker:  b.Speaker,
			Speed:    b.Speed,
		}, hc))
	}
	gw := tts.NewGateway(backends, log, tts.WithRetries(c.Retries), tts.WithDelay(c.Delay))
	return tts.NewCachedNarrator(gw, blobs, log, tts.WithPublicURL(publicURL))
}

func (a *app) Close() error {
	_ = a.log.Sync()
	return a.db.Close()
}
