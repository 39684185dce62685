// Package http is the JSON/HTTP surface of the exam simulator.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	auth "github.com/mind-engage/exam-simulator/internal/auth/middleware"
	"github.com/mind-engage/exam-simulator/internal/exam"
	"github.com/mind-engage/exam-simulator/internal/rbac"
	"github.com/mind-engage/exam-simulator/internal/storage"
)

type Deps struct {
	Service *exam.Service
	Auth    *auth.AuthService
	Admin   auth.Admin
	Log     *zap.Logger

	// Optional.
	Archive     ReportLister
	Events      EventLister
	Blobs       storage.BlobStore
	Ready       func(ctx context.Context) error
	CORSOrigins []string
	Timeout     time.Duration
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	if d.Timeout <= 0 {
		d.Timeout = 90 * time.Second // narration may wait out rate limits
	}
	svc := d.Service

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(log), middleware.Recoverer)
	r.Use(middleware.Timeout(d.Timeout))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/sets", ListSetsHandler(svc, log))
	r.Post("/sessions", StartSessionHandler(svc, d.Auth, log))
	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Admin))

	if d.Blobs != nil {
		r.Route("/audio", func(ar chi.Router) {
			MountAudio(ar, d.Blobs)
		})
	}

	ownsSession := func(r *http.Request) bool {
		return auth.OwnsSession(r, chi.URLParam(r, "id"))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.Route("/sessions/{id}", func(sr chi.Router) {
			sr.Use(rbac.RequireOwnOr(rbac.PermSessionUseOwn, rbac.PermSessionUseAll, ownsSession))
			sr.Get("/", CurrentHandler(svc, log))
			sr.Delete("/", AbandonHandler(svc, log))
			sr.Post("/answer", AnswerHandler(svc, log))
			sr.Post("/next", NavigateHandler(svc, log, true))
			sr.Post("/previous", NavigateHandler(svc, log, false))
			sr.Get("/explanation", ExplanationHandler(svc, log))
			sr.Get("/elapsed", ElapsedHandler(svc, log))
			sr.Post("/finish", FinishHandler(svc, log))
		})

		pr.With(rbac.RequireOwnOr(rbac.PermReportViewOwn, rbac.PermReportViewAll, ownsSession)).
			Get("/reports/{id}", ExportReportHandler(svc, log))

		if d.Archive != nil {
			pr.With(rbac.Require(rbac.PermReportList)).
				Get("/reports", ListReportsHandler(d.Archive, log))
		}
		if d.Events != nil {
			pr.With(rbac.Require(rbac.PermEventList)).
				Get("/events", ListEventsHandler(d.Events, log))
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
