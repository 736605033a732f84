package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/invibe/internal/database"
	"github.com/dukerupert/invibe/internal/model"
)

const seededBBQ = "0b6e3f2a-5c1d-4e8f-9a7b-1c2d3e4f5a01"

func setupEventTestDB(t *testing.T) *EventStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewEventStore(db)
}

func TestCreateAndGetByID(t *testing.T) {
	s := setupEventTestDB(t)
	ctx := context.Background()

	d := model.DefaultDraft()
	d.Title = "Summer BBQ"
	d.Date = "2024-06-15"
	d.Time = "16:00"
	d.Location = "Central Park"
	d.Background = model.GeneratedBackground("Retro", "bg6")
	d.EnablePlaylist = true
	d.PlaylistLink = "https://open.spotify.com/playlist/x"

	host := model.Host{ID: "u-1", Name: "alice@example.com", Email: "alice@example.com"}
	event, err := s.Create(ctx, d, host)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if event.ID == "" {
		t.Fatal("expected generated id")
	}
	if event.Title != "Summer BBQ" {
		t.Errorf("title = %q, want %q", event.Title, "Summer BBQ")
	}
	if event.Background != d.Background {
		t.Errorf("background = %+v, want %+v", event.Background, d.Background)
	}
	if !event.EnableAlbum || !event.EnablePlaylist {
		t.Errorf("toggles = album %v playlist %v, want both true", event.EnableAlbum, event.EnablePlaylist)
	}
	if event.Host != host {
		t.Errorf("host = %+v, want %+v", event.Host, host)
	}
	if len(event.Guests) != 0 {
		t.Errorf("guests = %d, want 0", len(event.Guests))
	}

	got, err := s.GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.PlaylistLink != d.PlaylistLink {
		t.Errorf("playlist link = %q, want %q", got.PlaylistLink, d.PlaylistLink)
	}
}

func TestCreateReturnsWhatWasStored(t *testing.T) {
	s := setupEventTestDB(t)
	created := time.Date(2024, 6, 1, 9, 30, 15, 500, time.UTC)
	s.now = func() time.Time { return created }
	ctx := context.Background()

	d := model.DefaultDraft()
	d.Title = "Retro Night"
	event, err := s.Create(ctx, d, model.Host{ID: "u-2"})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if !event.CreatedAt.Equal(created.Truncate(time.Second)) {
		t.Errorf("created at = %v", event.CreatedAt)
	}

	got, err := s.GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored event")
	}
	if !got.CreatedAt.Equal(event.CreatedAt) {
		t.Errorf("stored created at = %v, returned %v", got.CreatedAt, event.CreatedAt)
	}
	if got.Title != event.Title || got.Background != event.Background || got.Host != event.Host {
		t.Errorf("stored %+v differs from returned %+v", got, event)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	s := setupEventTestDB(t)

	got, err := s.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent event")
	}
}

func TestFetchEventNotFound(t *testing.T) {
	s := setupEventTestDB(t)

	_, err := s.FetchEvent(context.Background(), "missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSeededEventGuests(t *testing.T) {
	s := setupEventTestDB(t)
	ctx := context.Background()

	event, err := s.FetchEvent(ctx, seededBBQ)
	if err != nil {
		t.Fatalf("fetch seeded event: %v", err)
	}
	if event.Title != "Summer BBQ Party" {
		t.Errorf("title = %q, want %q", event.Title, "Summer BBQ Party")
	}
	if len(event.Guests) != 4 {
		t.Fatalf("guests = %d, want 4", len(event.Guests))
	}
	if event.Guests[0].Name != "Sarah" {
		t.Errorf("first guest = %q, want %q", event.Guests[0].Name, "Sarah")
	}

	going, err := s.ListGuests(ctx, seededBBQ, model.RSVPGoing)
	if err != nil {
		t.Fatalf("list going: %v", err)
	}
	if len(going) != 2 {
		t.Errorf("going = %d, want 2", len(going))
	}
}

func TestListForUser(t *testing.T) {
	s := setupEventTestDB(t)
	ctx := context.Background()
	alex := model.User{ID: "demo-host", Email: "alex@example.com"}

	tests := []struct {
		relation model.Relation
		want     []string
	}{
		{model.RelationHosting, []string{"Summer BBQ Party", "Birthday Celebration"}},
		{model.RelationAttending, []string{"Tech Conference"}},
		{model.RelationPast, []string{"New Year Party"}},
	}

	for _, tt := range tests {
		events, err := s.ListForUser(ctx, alex, tt.relation, "2024-01-01")
		if err != nil {
			t.Fatalf("list %s: %v", tt.relation, err)
		}
		if len(events) != len(tt.want) {
			t.Fatalf("%s: got %d events, want %d", tt.relation, len(events), len(tt.want))
		}
		for i, title := range tt.want {
			if events[i].Title != title {
				t.Errorf("%s[%d] = %q, want %q", tt.relation, i, events[i].Title, title)
			}
		}
	}
}

func TestListForUserRejectsUnknownRelation(t *testing.T) {
	s := setupEventTestDB(t)

	_, err := s.ListForUser(context.Background(), model.User{ID: "x"}, "archived", "2024-01-01")
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}
