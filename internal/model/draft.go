package model

// DefaultTemplateID is the catalog template a new draft starts with.
const DefaultTemplateID = "bg1"

// EventDraft is the in-progress, not-yet-created event. The JSON names match
// the eventFormData blob written by the web client.
type EventDraft struct {
	Title          string     `json:"title"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	Location       string     `json:"location"`
	Description    string     `json:"description"`
	Background     Background `json:"background"`
	EnableAlbum    bool       `json:"enableAlbum"`
	EnablePlaylist bool       `json:"enablePlaylist"`
	PlaylistLink   string     `json:"playlistLink"`
}

// DefaultDraft returns the draft a new authoring session starts from.
func DefaultDraft() EventDraft {
	return EventDraft{
		Background:  TemplateBackground(DefaultTemplateID),
		EnableAlbum: true,
	}
}

// Field names a single EventDraft attribute.
type Field string

const (
	FieldTitle          Field = "title"
	FieldDate           Field = "date"
	FieldTime           Field = "time"
	FieldLocation       Field = "location"
	FieldDescription    Field = "description"
	FieldBackground     Field = "background"
	FieldEnableAlbum    Field = "enableAlbum"
	FieldEnablePlaylist Field = "enablePlaylist"
	FieldPlaylistLink   Field = "playlistLink"
)

var fields = map[Field]struct{}{
	FieldTitle:          {},
	FieldDate:           {},
	FieldTime:           {},
	FieldLocation:       {},
	FieldDescription:    {},
	FieldBackground:     {},
	FieldEnableAlbum:    {},
	FieldEnablePlaylist: {},
	FieldPlaylistLink:   {},
}

// ParseField returns the Field for name, or false if name is not a draft field.
func ParseField(name string) (Field, bool) {
	f := Field(name)
	_, ok := fields[f]
	return f, ok
}

// IsBool reports whether the field holds a boolean toggle.
func (f Field) IsBool() bool {
	return f == FieldEnableAlbum || f == FieldEnablePlaylist
}
