package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/exam-simulator/internal/exam"
	"github.com/mind-engage/exam-simulator/internal/report"
	syncx "github.com/mind-engage/exam-simulator/internal/sync"
)

type ReportLister interface {
	List(ctx context.Context, limit, offset int) ([]report.Entry, error)
}

type EventLister interface {
	Since(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

// GET /reports/{id}?format=md|html|pdf|xlsx|json
func ExportReportHandler(svc *exam.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := report.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		rep, err := svc.Report(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		if f == report.FormatJSON {
			writeJSON(w, http.StatusOK, rep)
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		disposition := "inline"
		if f == report.FormatPDF || f == report.FormatXLSX {
			disposition = "attachment"
		}
		w.Header().Set("Content-Disposition", disposition+`; filename="`+f.Filename(rep)+`"`)
		if err := report.Render(w, f, rep); err != nil {
			log.Error("render report", zap.String("session_id", rep.SessionID), zap.String("format", string(f)), zap.Error(err))
		}
	}
}

// GET /reports?limit=&offset=
func ListReportsHandler(archive ReportLister, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		es, err := archive.List(r.Context(), limit, offset)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, es)
	}
}

// GET /events?after=&limit=
func ListEventsHandler(events EventLister, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		after, _ := strconv.ParseInt(q.Get("after"), 10, 64)
		limit, _ := strconv.Atoi(q.Get("limit"))
		evs, err := events.Since(r.Context(), after, limit)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, evs)
	}
}
