package draft

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukerupert/invibe/internal/database"
	"github.com/dukerupert/invibe/internal/model"
	"github.com/dukerupert/invibe/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDraftStore(t *testing.T) (*Store, *store.SessionStorage) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	storage := store.NewSessionStorage(db)
	return NewStore(storage, slog.Default()), storage
}

func TestLoadOrInitReturnsDefaultAndPersistsIt(t *testing.T) {
	s, storage := setupDraftStore(t)
	ctx := context.Background()

	d, err := s.LoadOrInit(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDraft(), d)
	assert.True(t, d.EnableAlbum)
	assert.False(t, d.EnablePlaylist)
	assert.Equal(t, model.TemplateBackground(model.DefaultTemplateID), d.Background)

	_, ok, err := storage.Get(ctx, "sess-1", StorageKey)
	require.NoError(t, err)
	assert.True(t, ok, "default draft should be persisted")
}

func TestSaveThenLoadOrInitRoundTrips(t *testing.T) {
	s, _ := setupDraftStore(t)
	ctx := context.Background()

	saved := model.EventDraft{
		Title:          "Summer BBQ",
		Date:           "2024-06-15",
		Time:           "16:00",
		Location:       "Central Park, NY",
		Description:    "Bring drinks",
		Background:     model.UploadedBackground("data:image/png;base64,AAAA"),
		EnableAlbum:    false,
		EnablePlaylist: true,
		PlaylistLink:   "https://open.spotify.com/playlist/x",
	}
	require.NoError(t, s.Save(ctx, "sess-1", saved))

	got, err := s.LoadOrInit(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestClearThenLoadOrInitReturnsDefault(t *testing.T) {
	s, _ := setupDraftStore(t)
	ctx := context.Background()

	d := model.DefaultDraft()
	d.Title = "To be discarded"
	require.NoError(t, s.Save(ctx, "sess-1", d))
	require.NoError(t, s.Clear(ctx, "sess-1"))

	got, err := s.LoadOrInit(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDraft(), got)
}

func TestLaterSaveWins(t *testing.T) {
	s, _ := setupDraftStore(t)
	ctx := context.Background()

	first := model.DefaultDraft()
	first.Title = "first"
	second := model.DefaultDraft()
	second.Title = "second"

	require.NoError(t, s.Save(ctx, "sess-1", first))
	require.NoError(t, s.Save(ctx, "sess-1", second))

	got, err := s.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Title)
}

func TestLoadMissingReturnsNil(t *testing.T) {
	s, _ := setupDraftStore(t)

	got, err := s.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUndecodableDraftIsReplaced(t *testing.T) {
	s, storage := setupDraftStore(t)
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, "sess-1", StorageKey, "{not json"))

	got, err := s.LoadOrInit(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDraft(), got)
}

type failingStorage struct{}

func (failingStorage) Get(context.Context, string, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}
func (failingStorage) Set(context.Context, string, string, string) error { return errors.New("disk on fire") }
func (failingStorage) Delete(context.Context, string, string) error      { return errors.New("disk on fire") }

func TestLoadOrInitSurfacesStorageFailure(t *testing.T) {
	s := NewStore(failingStorage{}, slog.Default())

	_, err := s.LoadOrInit(context.Background(), "sess-1")
	assert.Error(t, err)
}
