package draft

import (
	"encoding/json"
	"testing"

	"github.com/dukerupert/invibe/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFieldChangesOnlyNamedField(t *testing.T) {
	t.Parallel()

	base := model.DefaultDraft()
	base.Title = "Old"
	base.Location = "Somewhere"
	base.PlaylistLink = "https://example.com/list"

	got, err := SetField(base, model.FieldTitle, "Summer BBQ")
	require.NoError(t, err)

	want := base
	want.Title = "Summer BBQ"
	assert.Equal(t, want, got)
	assert.Equal(t, "Old", base.Title, "input draft must not be modified")
}

func TestSetFieldSequenceLeavesOtherFieldsUntouched(t *testing.T) {
	t.Parallel()

	base := model.EventDraft{
		Title:          "t",
		Date:           "2024-06-15",
		Time:           "16:00",
		Location:       "l",
		Description:    "d",
		Background:     model.TemplateBackground("bg5"),
		EnableAlbum:    true,
		EnablePlaylist: true,
		PlaylistLink:   "https://example.com/p",
	}

	edits := []struct {
		field model.Field
		value any
	}{
		{model.FieldDate, "2025-01-01"},
		{model.FieldDescription, "new description"},
		{model.FieldEnableAlbum, false},
		{model.FieldDate, "2025-02-02"},
	}

	d := base
	for _, e := range edits {
		var err error
		d, err = SetField(d, e.field, e.value)
		require.NoError(t, err)
	}

	assert.Equal(t, base.Title, d.Title)
	assert.Equal(t, base.Time, d.Time)
	assert.Equal(t, base.Location, d.Location)
	assert.Equal(t, base.Background, d.Background)
	assert.Equal(t, base.EnablePlaylist, d.EnablePlaylist)
	assert.Equal(t, base.PlaylistLink, d.PlaylistLink)
	assert.Equal(t, "2025-02-02", d.Date)
	assert.Equal(t, "new description", d.Description)
	assert.False(t, d.EnableAlbum)
}

func TestSetFieldIsIdempotent(t *testing.T) {
	t.Parallel()

	once, err := SetField(model.DefaultDraft(), model.FieldLocation, "Central Park")
	require.NoError(t, err)
	twice, err := SetField(once, model.FieldLocation, "Central Park")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestSetFieldDisablingPlaylistKeepsLink(t *testing.T) {
	t.Parallel()

	d := model.DefaultDraft()
	d.EnablePlaylist = true
	d.PlaylistLink = "https://open.spotify.com/playlist/abc"

	d, err := SetField(d, model.FieldEnablePlaylist, false)
	require.NoError(t, err)
	assert.False(t, d.EnablePlaylist)
	assert.Equal(t, "https://open.spotify.com/playlist/abc", d.PlaylistLink)

	d, err = SetField(d, model.FieldEnablePlaylist, true)
	require.NoError(t, err)
	assert.Equal(t, "https://open.spotify.com/playlist/abc", d.PlaylistLink)
}

func TestSetFieldRejectsUnknownField(t *testing.T) {
	t.Parallel()

	d := model.DefaultDraft()
	got, err := SetField(d, model.Field("guestCount"), "12")
	assert.ErrorIs(t, err, model.ErrUnknownField)
	assert.Equal(t, d, got)
}

func TestSetFieldRejectsWrongValueType(t *testing.T) {
	t.Parallel()

	_, err := SetField(model.DefaultDraft(), model.FieldEnableAlbum, "yes")
	assert.ErrorIs(t, err, model.ErrUnknownField)

	_, err = SetField(model.DefaultDraft(), model.FieldTitle, 42)
	assert.ErrorIs(t, err, model.ErrUnknownField)
}

func TestSetFieldBackgroundReplacesWholeDescriptor(t *testing.T) {
	t.Parallel()

	d := model.DefaultDraft()
	d, err := SetField(d, model.FieldBackground, model.GeneratedBackground("Retro", "bg7"))
	require.NoError(t, err)
	d, err = SetField(d, model.FieldBackground, model.TemplateBackground("bg2"))
	require.NoError(t, err)

	assert.Equal(t, model.Background{Kind: model.BackgroundTemplate, TemplateID: "bg2"}, d.Background)
}

func TestSetFieldRejectsMixedBackground(t *testing.T) {
	t.Parallel()

	bad := model.Background{Kind: model.BackgroundTemplate, TemplateID: "bg1", ImageData: "data:x"}
	_, err := SetField(model.DefaultDraft(), model.FieldBackground, bad)
	assert.ErrorIs(t, err, model.ErrInvalidBackground)
}

func TestDecodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field model.Field
		raw   string
		want  any
	}{
		{model.FieldTitle, `"Summer BBQ"`, "Summer BBQ"},
		{model.FieldEnableAlbum, `false`, false},
		{model.FieldBackground, `{"kind":"template","templateId":"bg2"}`, model.TemplateBackground("bg2")},
	}
	for _, tt := range tests {
		got, err := DecodeValue(tt.field, json.RawMessage(tt.raw))
		require.NoError(t, err, tt.field)
		assert.Equal(t, tt.want, got, tt.field)
	}

	_, err := DecodeValue(model.FieldEnablePlaylist, json.RawMessage(`"true"`))
	assert.ErrorIs(t, err, model.ErrUnknownField)

	_, err = DecodeValue(model.Field("nope"), json.RawMessage(`"x"`))
	assert.ErrorIs(t, err, model.ErrUnknownField)
}

func TestDecodeValueRejectsNull(t *testing.T) {
	t.Parallel()

	for _, field := range []model.Field{model.FieldTitle, model.FieldEnableAlbum, model.FieldBackground} {
		_, err := DecodeValue(field, json.RawMessage(` null `))
		assert.ErrorIs(t, err, model.ErrUnknownField, field)
	}
}
