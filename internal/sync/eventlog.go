package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mind-engage/exam-simulator/internal/db"
)

type Event struct {
	Seq       int64           `json:"seq"`
	SiteID    string          `json:"site_id"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"` // unix ms
}

// eventRow is the event_log row; data is kept as text so both drivers scan it.
type eventRow struct {
	Seq       int64  `db:"seq"`
	SiteID    string `db:"site_id"`
	Type      string `db:"typ"`
	Key       string `db:"key"`
	Data      string `db:"data"`
	CreatedAt int64  `db:"created_at"`
}

func (r eventRow) event() Event {
	return Event{
		Seq:       r.Seq,
		SiteID:    r.SiteID,
		Type:      r.Type,
		Key:       r.Key,
		Data:      json.RawMessage(r.Data),
		CreatedAt: r.CreatedAt,
	}
}

// EventRepo is an append-only log of session lifecycle events.
type EventRepo struct {
	db     *sqlx.DB
	siteID string
	now    func() time.Time
}

func NewEventRepo(conn *sql.DB, driver db.Driver, siteID string) (*EventRepo, error) {
	name, err := db.DriverName(driver)
	if err != nil {
		return nil, err
	}
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: sqlx.NewDb(conn, name), siteID: siteID, now: time.Now}, nil
}

func (r *EventRepo) Append(ctx context.Context, typ, key string, data any) error {
	payload := []byte("{}")
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		payload = b
	}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES (:site_id, :typ, :key, :data, :created_at)`,
		eventRow{SiteID: r.siteID, Type: typ, Key: key, Data: string(payload), CreatedAt: r.now().UnixMilli()})
	return err
}

// Since returns up to limit events with seq greater than after, oldest first.
func (r *EventRepo) Since(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []eventRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT seq, site_id, typ, key, data, created_at
		  FROM event_log WHERE seq > ? ORDER BY seq LIMIT ?`), after, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.event())
	}
	return out, nil
}
