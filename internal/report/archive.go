package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mind-engage/exam-simulator/internal/db"
	"github.com/mind-engage/exam-simulator/internal/exam"
)

// Entry is an archived report without its items.
type Entry struct {
	SessionID    string        `json:"session_id"`
	Set          string        `json:"set"`
	Mode         exam.Mode     `json:"mode"`
	Score        float64       `json:"score"`
	CorrectCount int           `json:"correct_count"`
	Total        int           `json:"total"`
	Elapsed      time.Duration `json:"elapsed"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
}

type reportRow struct {
	SessionID    string  `db:"session_id"`
	Set          string  `db:"set_name"`
	Mode         string  `db:"mode"`
	Score        float64 `db:"score"`
	CorrectCount int     `db:"correct_count"`
	Total        int     `db:"total"`
	ElapsedMS    int64   `db:"elapsed_ms"`
	StartedAt    int64   `db:"started_at"`
	FinishedAt   int64   `db:"finished_at"`
	ReportJSON   string  `db:"report_json"`
}

func (r reportRow) entry() Entry {
	return Entry{
		SessionID:    r.SessionID,
		Set:          r.Set,
		Mode:         exam.Mode(r.Mode),
		Score:        r.Score,
		CorrectCount: r.CorrectCount,
		Total:        r.Total,
		Elapsed:      time.Duration(r.ElapsedMS) * time.Millisecond,
		StartedAt:    time.UnixMilli(r.StartedAt).UTC(),
		FinishedAt:   time.UnixMilli(r.FinishedAt).UTC(),
	}
}

// Archive stores finished reports in the reports table.
type Archive struct {
	db *sqlx.DB
}

func NewArchive(conn *sql.DB, driver db.Driver) (*Archive, error) {
	name, err := db.DriverName(driver)
	if err != nil {
		return nil, err
	}
	return &Archive{db: sqlx.NewDb(conn, name)}, nil
}

// Save upserts r; saving the same session twice keeps the latest copy.
func (a *Archive) Save(ctx context.Context, r exam.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	row := reportRow{
		SessionID:    r.SessionID,
		Set:          r.Set,
		Mode:         string(r.Mode),
		Score:        r.Score,
		CorrectCount: r.CorrectCount,
		Total:        r.Total,
		ElapsedMS:    r.Elapsed.Milliseconds(),
		StartedAt:    r.StartedAt.UnixMilli(),
		FinishedAt:   r.FinishedAt.UnixMilli(),
		ReportJSON:   string(body),
	}
	_, err = a.db.NamedExecContext(ctx, `
		INSERT INTO reports (session_id, set_name, mode, score, correct_count, total,
		                     elapsed_ms, started_at, finished_at, report_json)
		VALUES (:session_id, :set_name, :mode, :score, :correct_count, :total,
		        :elapsed_ms, :started_at, :finished_at, :report_json)
		ON CONFLICT (session_id) DO UPDATE SET
		  set_name = excluded.set_name,
		  mode = excluded.mode,
		  score = excluded.score,
		  correct_count = excluded.correct_count,
		  total = excluded.total,
		  elapsed_ms = excluded.elapsed_ms,
		  started_at = excluded.started_at,
		  finished_at = excluded.finished_at,
		  report_json = excluded.report_json`, row)
	if err != nil {
		return fmt.Errorf("save report %s: %w", r.SessionID, err)
	}
	return nil
}

// Get returns the full report, or exam.ErrSessionNotFound.
func (a *Archive) Get(ctx context.Context, sessionID string) (exam.Report, error) {
	var body string
	err := a.db.GetContext(ctx, &body, a.db.Rebind(`SELECT report_json FROM reports WHERE session_id = ?`), sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return exam.Report{}, exam.ErrSessionNotFound
	}
	if err != nil {
		return exam.Report{}, err
	}
	var r exam.Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return exam.Report{}, fmt.Errorf("decode report %s: %w", sessionID, err)
	}
	return r, nil
}

// List returns archived reports, newest first.
func (a *Archive) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var rows []reportRow
	err := a.db.SelectContext(ctx, &rows, a.db.Rebind(`
		SELECT session_id, set_name, mode, score, correct_count, total,
		       elapsed_ms, started_at, finished_at, '' AS report_json
		  FROM reports
		 ORDER BY finished_at DESC, session_id
		 LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out, nil
}
