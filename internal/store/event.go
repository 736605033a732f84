package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/invibe/internal/model"
	"github.com/google/uuid"
)

// EventStore is the in-process stand-in for the event backend. It creates
// events from finished drafts and serves them back with their guest lists.
type EventStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db, now: time.Now}
}

// sqliteTime matches CURRENT_TIMESTAMP.
const sqliteTime = "2006-01-02 15:04:05"

const eventCols = `id, title, date, time, location, description, background, enable_album, enable_playlist, playlist_link, host_id, host_name, host_email, created_at`

func scanEvent(scanner interface{ Scan(...any) error }) (*model.PersistedEvent, error) {
	var e model.PersistedEvent
	var background string
	var albumInt, playlistInt int

	err := scanner.Scan(
		&e.ID, &e.Title, &e.Date, &e.Time, &e.Location, &e.Description, &background,
		&albumInt, &playlistInt, &e.PlaylistLink, &e.Host.ID, &e.Host.Name, &e.Host.Email, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(background), &e.Background); err != nil {
		return nil, fmt.Errorf("decode background for event %s: %w", e.ID, err)
	}
	e.EnableAlbum = albumInt != 0
	e.EnablePlaylist = playlistInt != 0
	return &e, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Create stores a new event built from the draft and returns it. The record
// is returned as written; once the insert succeeds nothing else can fail.
func (s *EventStore) Create(ctx context.Context, d model.EventDraft, host model.Host) (*model.PersistedEvent, error) {
	background, err := json.Marshal(d.Background)
	if err != nil {
		return nil, fmt.Errorf("encode background: %w", err)
	}

	id := uuid.NewString()
	createdAt := s.now().UTC().Truncate(time.Second)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, title, date, time, location, description, background, enable_album, enable_playlist, playlist_link, host_id, host_name, host_email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, d.Title, d.Date, d.Time, d.Location, d.Description, string(background),
		boolInt(d.EnableAlbum), boolInt(d.EnablePlaylist), d.PlaylistLink,
		host.ID, host.Name, host.Email, createdAt.Format(sqliteTime),
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	return &model.PersistedEvent{
		ID:             id,
		Title:          d.Title,
		Date:           d.Date,
		Time:           d.Time,
		Location:       d.Location,
		Description:    d.Description,
		Background:     d.Background,
		EnableAlbum:    d.EnableAlbum,
		EnablePlaylist: d.EnablePlaylist,
		PlaylistLink:   d.PlaylistLink,
		Host:           host,
		Guests:         []model.Guest{},
		CreatedAt:      createdAt,
	}, nil
}

// GetByID returns the event with its guests, or nil if it does not exist.
func (s *EventStore) GetByID(ctx context.Context, id string) (*model.PersistedEvent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	guests, err := s.ListGuests(ctx, id, "")
	if err != nil {
		return nil, err
	}
	e.Guests = guests
	return e, nil
}

// CreateEvent implements the event backend's create call.
func (s *EventStore) CreateEvent(ctx context.Context, d model.EventDraft, host model.Host) (*model.PersistedEvent, error) {
	return s.Create(ctx, d, host)
}

// FetchEvent implements the event backend's fetch call. A missing event is
// reported as model.ErrNotFound.
func (s *EventStore) FetchEvent(ctx context.Context, id string) (*model.PersistedEvent, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	return e, nil
}

// ListGuests returns an event's guests in invitation order, optionally
// restricted to one RSVP status.
func (s *EventStore) ListGuests(ctx context.Context, eventID string, status model.RSVPStatus) ([]model.Guest, error) {
	query := `SELECT id, name, email, status FROM guests WHERE event_id = ?`
	args := []any{eventID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY sort_order ASC, name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query guests: %w", err)
	}
	defer rows.Close()

	guests := []model.Guest{}
	for rows.Next() {
		var g model.Guest
		var st string
		if err := rows.Scan(&g.ID, &g.Name, &g.Email, &st); err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		g.Status = model.RSVPStatus(st)
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

// ListForUser returns the events the user hosts, attends, or attended,
// depending on relation. today is an ISO calendar date; events dated before
// it are past.
func (s *EventStore) ListForUser(ctx context.Context, user model.User, relation model.Relation, today string) ([]model.PersistedEvent, error) {
	const invited = `id IN (SELECT event_id FROM guests WHERE email = ?)`

	var where string
	var args []any
	switch relation {
	case model.RelationHosting:
		where = `host_id = ? AND date >= ?`
		args = []any{user.ID, today}
	case model.RelationAttending:
		where = invited + ` AND host_id != ? AND date >= ?`
		args = []any{user.Email, user.ID, today}
	case model.RelationPast:
		where = `(host_id = ? OR ` + invited + `) AND date < ?`
		args = []any{user.ID, user.Email, today}
	default:
		return nil, fmt.Errorf("relation %q: %w", relation, model.ErrValidation)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventCols+` FROM events WHERE `+where+` ORDER BY date ASC, time ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []model.PersistedEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Guests = []model.Guest{}
		events = append(events, *e)
	}
	return events, rows.Err()
}
