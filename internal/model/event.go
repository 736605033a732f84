package model

import "time"

// RSVPStatus is a guest's response to an invitation.
type RSVPStatus string

const (
	RSVPGoing   RSVPStatus = "going"
	RSVPMaybe   RSVPStatus = "maybe"
	RSVPInvited RSVPStatus = "invited"
)

func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPGoing, RSVPMaybe, RSVPInvited:
		return true
	}
	return false
}

// Relation describes how the signed-in user relates to an event in the
// event list.
type Relation string

const (
	RelationHosting   Relation = "hosting"
	RelationAttending Relation = "attending"
	RelationPast      Relation = "past"
)

func (r Relation) Valid() bool {
	switch r {
	case RelationHosting, RelationAttending, RelationPast:
		return true
	}
	return false
}

type Host struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Guest struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Email  string     `json:"email"`
	Status RSVPStatus `json:"status"`
}

// PersistedEvent is the event backend's record of a created event.
type PersistedEvent struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	Location       string     `json:"location"`
	Description    string     `json:"description"`
	Background     Background `json:"background"`
	EnableAlbum    bool       `json:"enableAlbum"`
	EnablePlaylist bool       `json:"enablePlaylist"`
	PlaylistLink   string     `json:"playlistLink"`
	Host           Host       `json:"host"`
	Guests         []Guest    `json:"guests"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// GuestSummary counts guests per RSVP status.
type GuestSummary struct {
	Going   int `json:"going"`
	Maybe   int `json:"maybe"`
	Invited int `json:"invited"`
}

func SummarizeGuests(guests []Guest) GuestSummary {
	var s GuestSummary
	for _, g := range guests {
		switch g.Status {
		case RSVPGoing:
			s.Going++
		case RSVPMaybe:
			s.Maybe++
		case RSVPInvited:
			s.Invited++
		}
	}
	return s
}

// FilterGuests returns the guests whose status matches. An empty status
// returns all guests.
func FilterGuests(guests []Guest, status RSVPStatus) []Guest {
	out := make([]Guest, 0, len(guests))
	for _, g := range guests {
		if status == "" || g.Status == status {
			out = append(out, g)
		}
	}
	return out
}
