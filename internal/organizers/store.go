// Package organizers owns the current user's organizer profile, the
// public organizer directory, and the organizer's own events.
package organizers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/event-tracker/eventclient/internal/auth"
	"github.com/event-tracker/eventclient/internal/models"
	"github.com/event-tracker/eventclient/pkg/rest"
	"github.com/event-tracker/eventclient/pkg/session"
)

// ErrNotAnOrganizer is returned by actions that need an organizer profile.
var ErrNotAnOrganizer = errors.New("user is not an organizer")

// Store holds organizer state. Identity comes from the auth store through
// the injected interface; this package never reads auth globals.
type Store struct {
	client   *rest.Client
	identity auth.Identity
	session  session.Store
	logger   *zap.Logger

	mu        sync.Mutex
	profile   *models.OrganizerProfile
	directory []models.OrganizerDirectoryEntry
	myEvents  []models.Event
	loading   bool
}

// NewStore creates an organizer store.
func NewStore(client *rest.Client, identity auth.Identity, sess session.Store, logger *zap.Logger) *Store {
	return &Store{client: client, identity: identity, session: sess, logger: logger}
}

// persisted is the subset written to the session store.
type persisted struct {
	Profile *models.OrganizerProfile `json:"me_as_an_org"`
}

// Load rehydrates the organizer profile from the session store.
func (s *Store) Load(ctx context.Context) error {
	var p persisted
	ok, err := s.session.Get(ctx, session.KeyOrganizers, &p)
	if err != nil {
		return fmt.Errorf("load organizer state: %w", err)
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.profile = p.Profile
	s.mu.Unlock()
	return nil
}

// Profile returns the current organizer profile, or nil when the user is
// not an organizer. Nil is the only "not an organizer" representation.
func (s *Store) Profile() *models.OrganizerProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// IsOrganizer reports whether the current user has an organizer profile.
func (s *Store) IsOrganizer() bool {
	return s.Profile() != nil
}

// Directory returns the fetched organizer directory.
func (s *Store) Directory() []models.OrganizerDirectoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directory
}

// MyEvents returns the organizer's fetched events.
func (s *Store) MyEvents() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.myEvents
}

// Loading reports whether a register or create-event call is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Register upgrades the current user to an organizer.
func (s *Store) Register(ctx context.Context, phone, description, website string) error {
	user, token, err := s.identity.Identity()
	if err != nil {
		return err
	}
	s.setLoading(true)
	defer s.setLoading(false)

	body := map[string]string{
		"phone_number": phone,
		"description":  description,
		"url":          website,
		"email":        user.Email,
	}
	path := fmt.Sprintf("/api/reg-as-organizer/%d", user.ID)
	env, err := s.client.PostJSON(ctx, path, body, rest.WithToken(token))
	if err != nil {
		return rest.Fallback(err, "organizer registration failed")
	}

	// The backend nests the new profile under "created", not "data".
	profile, err := decodeProfile(env.Created)
	if err != nil {
		return fmt.Errorf("decode organizer profile: %w", err)
	}
	s.setProfile(ctx, profile)
	return nil
}

// FetchMyProfile refreshes the current user's organizer profile by email.
// A user without one ends up with a nil profile, not an error.
func (s *Store) FetchMyProfile(ctx context.Context) error {
	user, _, err := s.identity.Identity()
	if err != nil {
		return err
	}
	env, err := s.client.Get(ctx, "/api/me-as-an-org/"+user.Email)
	if err != nil {
		// A server "no" means the user has no organizer account; only
		// transport failures surface as errors.
		var apiErr *rest.APIError
		if errors.As(err, &apiErr) {
			s.setProfile(ctx, nil)
			return nil
		}
		return rest.Fallback(err, "fetch organizer account failed")
	}
	profile, err := decodeProfile(env.Data)
	if err != nil {
		return fmt.Errorf("decode organizer profile: %w", err)
	}
	s.setProfile(ctx, profile)
	return nil
}

func (s *Store) setProfile(ctx context.Context, profile *models.OrganizerProfile) {
	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
	if err := s.session.Set(ctx, session.KeyOrganizers, persisted{Profile: profile}); err != nil {
		s.logger.Warn("persist organizer state", zap.Error(err))
	}
}

// FetchDirectory refreshes the public organizer directory. The backend
// excludes the requesting user's own profile.
func (s *Store) FetchDirectory(ctx context.Context) error {
	user, _, err := s.identity.Identity()
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/api/organizers/%d", user.ID)
	env, err := s.client.Get(ctx, path)
	if err != nil {
		s.mu.Lock()
		s.directory = nil
		s.mu.Unlock()
		return rest.Fallback(err, "fetch organizers failed")
	}
	var dir []models.OrganizerDirectoryEntry
	if err := env.DecodeData(&dir); err != nil {
		return fmt.Errorf("decode organizer directory: %w", err)
	}
	s.mu.Lock()
	s.directory = dir
	s.mu.Unlock()
	return nil
}

// EventDraft carries the fields of a new event. Image is required by the
// backend; date fields are sent verbatim.
type EventDraft struct {
	Title               string
	Location            string
	Description         string
	StartingDateAndTime string
	EndingDateAndTime   string
	URL                 string
	TicketPrice         string
	IsFree              bool
	Category            string

	ImageName string
	Image     io.Reader
}

func (d EventDraft) form() *rest.Form {
	form := rest.NewForm().
		Set("title", d.Title).
		Set("location", d.Location).
		Set("description", d.Description).
		Set("starting_date_and_time", d.StartingDateAndTime).
		Set("ending_date_and_time", d.EndingDateAndTime).
		Set("category", d.Category).
		Set("is_free", strconv.Itoa(boolToInt(d.IsFree)))
	if d.URL != "" {
		form.Set("url", d.URL)
	}
	if d.TicketPrice != "" {
		form.Set("ticket_price", d.TicketPrice)
	}
	if d.Image != nil {
		form.AttachFile("image", d.ImageName, d.Image)
	}
	return form
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CreateEvent publishes a new event as a multipart form. The local event
// list is NOT updated; callers re-fetch when they need the new row.
func (s *Store) CreateEvent(ctx context.Context, draft EventDraft) error {
	user, token, err := s.identity.Identity()
	if err != nil {
		return err
	}
	s.setLoading(true)
	defer s.setLoading(false)

	path := fmt.Sprintf("/api/add-event/%d", user.ID)
	if _, err := s.client.PostForm(ctx, path, draft.form(), rest.WithToken(token)); err != nil {
		return rest.Fallback(err, "event creation failed")
	}
	return nil
}

// FetchMyEvents refreshes the list of events owned by the current
// organizer profile.
func (s *Store) FetchMyEvents(ctx context.Context) error {
	profile := s.Profile()
	if profile == nil {
		return ErrNotAnOrganizer
	}
	path := fmt.Sprintf("/api/my-events/%d", profile.ID)
	env, err := s.client.Get(ctx, path)
	if err != nil {
		return rest.Fallback(err, "fetch my events failed")
	}
	var events []models.Event
	if err := env.DecodeData(&events); err != nil {
		return fmt.Errorf("decode events: %w", err)
	}
	s.mu.Lock()
	s.myEvents = events
	s.mu.Unlock()
	return nil
}

// DeleteEvent removes one of the organizer's events, then re-fetches the
// event list so local state matches the server.
func (s *Store) DeleteEvent(ctx context.Context, eventID int64) error {
	_, token, err := s.identity.Identity()
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/api/del-event/%d", eventID)
	if _, err := s.client.Delete(ctx, path, rest.WithToken(token)); err != nil {
		return rest.Fallback(err, "event deletion failed")
	}
	return s.FetchMyEvents(ctx)
}

// decodeProfile normalizes the backend's three historical spellings of
// "not an organizer" (null, [], {}) to a nil profile.
func decodeProfile(raw json.RawMessage) (*models.OrganizerProfile, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("{}")) {
		return nil, nil
	}
	var profile models.OrganizerProfile
	if err := json.Unmarshal(trimmed, &profile); err != nil {
		return nil, err
	}
	if profile.ID == 0 {
		return nil, nil
	}
	return &profile, nil
}
