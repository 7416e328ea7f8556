// Package models defines the Event Tracker API entities as the backend
// serializes them. Field names follow the wire format exactly.
package models

import "time"

// User is a platform account. The auth store owns the current user;
// everything else reads it by reference.
type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	ProfileImg string `json:"profile_img,omitempty"`
}

// OrganizerProfile is the organizer account attached to a user.
// A user has at most one.
type OrganizerProfile struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	PhoneNumber string    `json:"phone_number"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Email       string    `json:"email"`
	ProfileImg  string    `json:"profile_img,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OrganizerDirectoryEntry is a public directory row: the organizer
// profile with its owning user nested.
type OrganizerDirectoryEntry struct {
	OrganizerProfile
	User *User `json:"user,omitempty"`
}

// Event is a published event. Clients never edit one; organizers create
// and delete. Date fields stay strings because the backend stores the
// form values verbatim.
type Event struct {
	ID                  int64             `json:"id"`
	Title               string            `json:"title"`
	Location            string            `json:"location"`
	Description         string            `json:"description"`
	StartingDateAndTime string            `json:"starting_date_and_time"`
	EndingDateAndTime   string            `json:"ending_date_and_time"`
	URL                 string            `json:"url,omitempty"`
	TicketPrice         string            `json:"ticket_price,omitempty"`
	IsFree              int               `json:"is_free"`
	Image               string            `json:"image"`
	Category            string            `json:"category"`
	OrganizerID         int64             `json:"organizer_id,omitempty"`
	Organizer           *OrganizerProfile `json:"organizer,omitempty"`
}

// Comment is attached to one event; never edited or deleted.
type Comment struct {
	ID        int64     `json:"id"`
	Comment   string    `json:"comment"`
	User      *User     `json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FollowPivot is the join record of a follow edge.
type FollowPivot struct {
	UserID      int64 `json:"user_id"`
	OrganizerID int64 `json:"organizer_id"`
}

// Follower is a user following the current organizer, with the pivot.
type Follower struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	CreatedAt time.Time    `json:"created_at"`
	Pivot     *FollowPivot `json:"pivot,omitempty"`
}

// FollowedOrganizer is an organizer the current user follows, with the
// owning user nested for display.
type FollowedOrganizer struct {
	ID    int64        `json:"id"`
	User  *User        `json:"user,omitempty"`
	Pivot *FollowPivot `json:"pivot,omitempty"`
}
