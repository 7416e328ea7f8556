// Package events owns the public event feed and per-event comments.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/event-tracker/eventclient/internal/auth"
	"github.com/event-tracker/eventclient/internal/models"
	"github.com/event-tracker/eventclient/pkg/rest"
	"github.com/event-tracker/eventclient/pkg/session"
)

// Store holds the public feed and the comments of the last fetched event.
type Store struct {
	client   *rest.Client
	identity auth.Identity
	session  session.Store
	logger   *zap.Logger

	mu              sync.Mutex
	feed            []models.Event
	comments        []models.Comment
	commentsEventID int64
}

// NewStore creates an event store.
func NewStore(client *rest.Client, identity auth.Identity, sess session.Store, logger *zap.Logger) *Store {
	return &Store{client: client, identity: identity, session: sess, logger: logger}
}

type persisted struct {
	Feed []models.Event `json:"fetched_events"`
}

// Load rehydrates the event feed from the session store.
func (s *Store) Load(ctx context.Context) error {
	var p persisted
	ok, err := s.session.Get(ctx, session.KeyEvents, &p)
	if err != nil {
		return fmt.Errorf("load event state: %w", err)
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.feed = p.Feed
	s.mu.Unlock()
	return nil
}

// Feed returns the fetched public event list.
func (s *Store) Feed() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed
}

// Comments returns the comments of the last fetched event and its id.
func (s *Store) Comments() ([]models.Comment, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comments, s.commentsEventID
}

// FetchAll refreshes the public event feed. A server-side failure empties
// the feed rather than leaving a stale one.
func (s *Store) FetchAll(ctx context.Context) error {
	env, err := s.client.Get(ctx, "/api/all-events")
	if err != nil {
		var apiErr *rest.APIError
		if errors.As(err, &apiErr) {
			s.mu.Lock()
			s.feed = nil
			s.mu.Unlock()
			s.persist(ctx)
		}
		return rest.Fallback(err, "failed to load events")
	}
	var feed []models.Event
	if err := env.DecodeData(&feed); err != nil {
		return fmt.Errorf("decode events: %w", err)
	}
	s.mu.Lock()
	s.feed = feed
	s.mu.Unlock()
	s.persist(ctx)
	return nil
}

// eventWithComments is the /api/event-with-comments payload: the event
// row with its comments nested.
type eventWithComments struct {
	models.Event
	Comments []models.Comment `json:"comments"`
}

// FetchComments refreshes the comment list for one event.
func (s *Store) FetchComments(ctx context.Context, eventID int64) error {
	path := fmt.Sprintf("/api/event-with-comments/%d", eventID)
	env, err := s.client.Get(ctx, path)
	if err != nil {
		s.mu.Lock()
		s.comments = nil
		s.commentsEventID = eventID
		s.mu.Unlock()
		return rest.Fallback(err, "failed to load comments")
	}
	var payload eventWithComments
	if err := env.DecodeData(&payload); err != nil {
		return fmt.Errorf("decode comments: %w", err)
	}
	s.mu.Lock()
	s.comments = payload.Comments
	s.commentsEventID = eventID
	s.mu.Unlock()
	return nil
}

// AddComment posts a comment on an event. It requires a session and fails
// before any HTTP when there is none. Local comment state is never
// touched; callers re-fetch to see the new comment.
func (s *Store) AddComment(ctx context.Context, eventID int64, text string) error {
	_, token, err := s.identity.Identity()
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/api/add-comment/%d", eventID)
	body := map[string]string{"comment": text}
	if _, err := s.client.PostJSON(ctx, path, body, rest.WithToken(token)); err != nil {
		return rest.Fallback(err, "failed to add comment")
	}
	return nil
}

func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	p := persisted{Feed: s.feed}
	s.mu.Unlock()
	if err := s.session.Set(ctx, session.KeyEvents, p); err != nil {
		s.logger.Warn("persist event state", zap.Error(err))
	}
}
