package flow

import (
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/invibe/internal/model"
	"github.com/dukerupert/invibe/internal/preview"
)

// validate checks that a draft is complete enough to preview.
func validate(d model.EventDraft) error {
	verr := &model.ValidationError{}

	if strings.TrimSpace(d.Title) == "" {
		verr.Add(string(model.FieldTitle), "is required")
	}

	switch {
	case d.Date == "":
		verr.Add(string(model.FieldDate), "is required")
	default:
		if _, err := preview.ParseDate(d.Date); err != nil {
			verr.Add(string(model.FieldDate), "must be YYYY-MM-DD")
		}
	}

	switch {
	case d.Time == "":
		verr.Add(string(model.FieldTime), "is required")
	default:
		if _, err := time.Parse("15:04", d.Time); err != nil {
			verr.Add(string(model.FieldTime), "must be HH:MM")
		}
	}

	if strings.TrimSpace(d.Location) == "" {
		verr.Add(string(model.FieldLocation), "is required")
	}

	if d.EnablePlaylist && d.PlaylistLink != "" {
		u, err := url.Parse(d.PlaylistLink)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			verr.Add(string(model.FieldPlaylistLink), "must be an http(s) link")
		}
	}

	if err := d.Background.Validate(); err != nil {
		verr.Add(string(model.FieldBackground), err.Error())
	}

	return verr.Err()
}
