// Package draft holds the in-progress event draft: single-field edits and
// per-session persistence.
package draft

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/invibe/internal/model"
)

// SetField returns a copy of d with only field replaced by value. String
// fields take a string, toggles take a bool, and background takes a
// model.Background. Turning a toggle off leaves its dependent settings
// (such as playlistLink) in place.
func SetField(d model.EventDraft, field model.Field, value any) (model.EventDraft, error) {
	switch field {
	case model.FieldTitle, model.FieldDate, model.FieldTime, model.FieldLocation,
		model.FieldDescription, model.FieldPlaylistLink:
		s, ok := value.(string)
		if !ok {
			return d, fmt.Errorf("%s wants a string, got %T: %w", field, value, model.ErrUnknownField)
		}
		switch field {
		case model.FieldTitle:
			d.Title = s
		case model.FieldDate:
			d.Date = s
		case model.FieldTime:
			d.Time = s
		case model.FieldLocation:
			d.Location = s
		case model.FieldDescription:
			d.Description = s
		case model.FieldPlaylistLink:
			d.PlaylistLink = s
		}
	case model.FieldEnableAlbum, model.FieldEnablePlaylist:
		b, ok := value.(bool)
		if !ok {
			return d, fmt.Errorf("%s wants a bool, got %T: %w", field, value, model.ErrUnknownField)
		}
		if field == model.FieldEnableAlbum {
			d.EnableAlbum = b
		} else {
			d.EnablePlaylist = b
		}
	case model.FieldBackground:
		bg, ok := value.(model.Background)
		if !ok {
			return d, fmt.Errorf("background wants a descriptor, got %T: %w", value, model.ErrUnknownField)
		}
		if err := bg.Validate(); err != nil {
			return d, err
		}
		d.Background = bg
	default:
		return d, fmt.Errorf("%q: %w", field, model.ErrUnknownField)
	}
	return d, nil
}

// DecodeValue decodes a JSON-encoded value into the Go type SetField expects
// for field. A null value is rejected rather than read as the zero value.
func DecodeValue(field model.Field, raw json.RawMessage) (any, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%s: null value: %w", field, model.ErrUnknownField)
	}
	switch {
	case field == model.FieldBackground:
		var bg model.Background
		if err := json.Unmarshal(raw, &bg); err != nil {
			return nil, fmt.Errorf("decode background: %w", model.ErrInvalidBackground)
		}
		return bg, nil
	case field.IsBool():
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("%s wants a bool: %w", field, model.ErrUnknownField)
		}
		return b, nil
	default:
		if _, ok := model.ParseField(string(field)); !ok {
			return nil, fmt.Errorf("%q: %w", field, model.ErrUnknownField)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%s wants a string: %w", field, model.ErrUnknownField)
		}
		return s, nil
	}
}
