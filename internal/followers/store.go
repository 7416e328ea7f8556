// Package followers owns the two derived follow collections: who follows
// the current user as an organizer, and which organizers the user follows.
package followers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/event-tracker/eventclient/internal/auth"
	"github.com/event-tracker/eventclient/internal/models"
	"github.com/event-tracker/eventclient/pkg/rest"
	"github.com/event-tracker/eventclient/pkg/session"
)

var (
	// ErrNoOrganizerProfile is returned when follower data is requested
	// but the current user has no organizer account.
	ErrNoOrganizerProfile = errors.New("user has no organizer profile")
	// ErrToggleInFlight is returned when a follow toggle for the same
	// organizer is already running. Double-clicks never race.
	ErrToggleInFlight = errors.New("follow toggle already in flight")
)

// ProfileSource supplies the current organizer profile; satisfied by the
// organizers store.
type ProfileSource interface {
	Profile() *models.OrganizerProfile
}

// Store holds follow state.
type Store struct {
	client   *rest.Client
	identity auth.Identity
	profiles ProfileSource
	session  session.Store
	logger   *zap.Logger

	mu        sync.Mutex
	followers []models.Follower
	count     int
	followed  []models.FollowedOrganizer
	following int
	pending   map[int64]bool
}

// NewStore creates a follower store.
func NewStore(client *rest.Client, identity auth.Identity, profiles ProfileSource, sess session.Store, logger *zap.Logger) *Store {
	return &Store{
		client:   client,
		identity: identity,
		profiles: profiles,
		session:  sess,
		logger:   logger,
		pending:  make(map[int64]bool),
	}
}

type persisted struct {
	Followers []models.Follower          `json:"followers"`
	Count     int                        `json:"count"`
	Followed  []models.FollowedOrganizer `json:"followed_users"`
	Following int                        `json:"following"`
}

// Load rehydrates follow state from the session store.
func (s *Store) Load(ctx context.Context) error {
	var p persisted
	ok, err := s.session.Get(ctx, session.KeyFollowers, &p)
	if err != nil {
		return fmt.Errorf("load follower state: %w", err)
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.followers = p.Followers
	s.count = p.Count
	s.followed = p.Followed
	s.following = p.Following
	s.mu.Unlock()
	return nil
}

// Followers returns the fetched follower list and its server-side total.
func (s *Store) Followers() ([]models.Follower, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.followers, s.count
}

// Following returns the fetched followed-organizer list and its total.
func (s *Store) Following() ([]models.FollowedOrganizer, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.followed, s.following
}

// IsFollowing reports whether the fetched following list contains the
// organizer, including a pending optimistic toggle still awaiting its
// re-fetch.
func (s *Store) IsFollowing(organizerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.followed {
		if f.ID == organizerID {
			return !s.pending[organizerID]
		}
	}
	return s.pending[organizerID]
}

// FetchFollowers refreshes the list of users following the current
// organizer, keyed by the organizer's email.
func (s *Store) FetchFollowers(ctx context.Context) error {
	profile := s.profiles.Profile()
	if profile == nil {
		return ErrNoOrganizerProfile
	}
	env, err := s.client.Get(ctx, "/api/my-followers/"+profile.Email)
	if err != nil {
		s.mu.Lock()
		s.count = 0
		s.mu.Unlock()
		return rest.Fallback(err, "failed to load followers")
	}

	var list []models.Follower
	if len(env.Followers) > 0 {
		if err := json.Unmarshal(env.Followers, &list); err != nil {
			return fmt.Errorf("decode followers: %w", err)
		}
	}
	s.mu.Lock()
	s.followers = list
	s.count = env.TotalFollowers
	s.mu.Unlock()
	s.persist(ctx)
	return nil
}

// FetchFollowing refreshes the organizers the current user follows.
func (s *Store) FetchFollowing(ctx context.Context) error {
	user, _, err := s.identity.Identity()
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/api/my-followed/%d", user.ID)
	env, err := s.client.Get(ctx, path)
	if err != nil {
		s.mu.Lock()
		s.followed = nil
		s.following = 0
		s.mu.Unlock()
		return rest.Fallback(err, "failed to load following")
	}

	var list []models.FollowedOrganizer
	if len(env.FollowedOrganizers) > 0 {
		if err := json.Unmarshal(env.FollowedOrganizers, &list); err != nil {
			return fmt.Errorf("decode followed organizers: %w", err)
		}
	}
	s.mu.Lock()
	s.followed = list
	s.following = env.Followed
	s.mu.Unlock()
	s.persist(ctx)
	return nil
}

// FollowToggle follows or unfollows an organizer as a two-phase update:
// the toggle is marked pending, the server applies it, and a re-fetch of
// the following list reconciles local state. On failure the pending mark
// is dropped and state is exactly as before the call.
func (s *Store) FollowToggle(ctx context.Context, organizerID int64) error {
	user, token, err := s.identity.Identity()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.pending[organizerID] {
		s.mu.Unlock()
		return ErrToggleInFlight
	}
	s.pending[organizerID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, organizerID)
		s.mu.Unlock()
	}()

	path := fmt.Sprintf("/api/follow/%d", user.ID)
	body := map[string]int64{"organizer_id": organizerID}
	if _, err := s.client.PostJSON(ctx, path, body, rest.WithToken(token)); err != nil {
		return rest.Fallback(err, "follow toggle failed")
	}
	return s.FetchFollowing(ctx)
}

func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	p := persisted{
		Followers: s.followers,
		Count:     s.count,
		Followed:  s.followed,
		Following: s.following,
	}
	s.mu.Unlock()
	if err := s.session.Set(ctx, session.KeyFollowers, p); err != nil {
		s.logger.Warn("persist follower state", zap.Error(err))
	}
}
