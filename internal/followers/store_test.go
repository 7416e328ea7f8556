package followers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/event-tracker/eventclient/internal/apitest"
	"github.com/event-tracker/eventclient/internal/auth"
	"github.com/event-tracker/eventclient/internal/followers"
	"github.com/event-tracker/eventclient/internal/models"
	"github.com/event-tracker/eventclient/internal/organizers"
	"github.com/event-tracker/eventclient/pkg/rest"
	"github.com/event-tracker/eventclient/pkg/session"
)

type harness struct {
	backend    *apitest.Server
	auth       *auth.Store
	organizers *organizers.Store
	store      *followers.Store
}

func newHarness(t *testing.T) *harness {
	backend := apitest.New("test-secret")
	srv := httptest.NewServer(backend.Router())
	t.Cleanup(srv.Close)

	client := rest.New(rest.Config{BaseURL: srv.URL})
	sess := session.NewMemStore()
	logger := zap.NewNop()
	authStore := auth.NewStore(client, sess, logger)
	orgStore := organizers.NewStore(client, authStore, sess, logger)
	return &harness{
		backend:    backend,
		auth:       authStore,
		organizers: orgStore,
		store:      followers.NewStore(client, authStore, orgStore, sess, logger),
	}
}

func (h *harness) login(t *testing.T, name, email string) models.User {
	t.Helper()
	u := h.backend.SeedUser(name, email, "secret123")
	require.NoError(t, h.auth.Login(context.Background(), email, "secret123"))
	return u
}

// seedOrganizer creates another user with an organizer profile.
func (h *harness) seedOrganizer(name, email string) models.OrganizerProfile {
	u := h.backend.SeedUser(name, email, "secret123")
	return h.backend.SeedOrganizer(u.ID, "555", "desc", "https://"+name+".events")
}

func TestFetchFollowing_PopulatesList(t *testing.T) {
	h := newHarness(t)
	me := h.login(t, "Alice", "alice@example.com")
	org := h.seedOrganizer("bob", "bob@example.com")
	h.backend.SeedFollow(me.ID, org.ID)

	require.NoError(t, h.store.FetchFollowing(context.Background()))
	list, total := h.store.Following()
	require.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, org.ID, list[0].ID)
	require.NotNil(t, list[0].Pivot)
	assert.Equal(t, me.ID, list[0].Pivot.UserID)
	assert.Equal(t, org.ID, list[0].Pivot.OrganizerID)
}

func TestFetchFollowers_RequiresOrganizerProfile(t *testing.T) {
	h := newHarness(t)
	h.login(t, "Alice", "alice@example.com")

	err := h.store.FetchFollowers(context.Background())
	assert.ErrorIs(t, err, followers.ErrNoOrganizerProfile)
}

func TestFetchFollowers_PopulatesList(t *testing.T) {
	h := newHarness(t)
	me := h.login(t, "Bob", "bob@example.com")
	mine := h.backend.SeedOrganizer(me.ID, "555", "d", "w")
	require.NoError(t, h.organizers.FetchMyProfile(context.Background()))

	fan := h.backend.SeedUser("Alice", "alice@example.com", "secret123")
	h.backend.SeedFollow(fan.ID, mine.ID)

	require.NoError(t, h.store.FetchFollowers(context.Background()))
	list, total := h.store.Followers()
	require.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "alice@example.com", list[0].Email)
}

func TestFollowToggle_IsIdempotentOverTwoCalls(t *testing.T) {
	h := newHarness(t)
	h.login(t, "Alice", "alice@example.com")
	org := h.seedOrganizer("bob", "bob@example.com")
	ctx := context.Background()

	require.NoError(t, h.store.FollowToggle(ctx, org.ID))
	assert.True(t, h.store.IsFollowing(org.ID))
	_, total := h.store.Following()
	assert.Equal(t, 1, total)

	// Toggling again returns to the original following set.
	require.NoError(t, h.store.FollowToggle(ctx, org.ID))
	assert.False(t, h.store.IsFollowing(org.ID))
	list, total := h.store.Following()
	assert.Empty(t, list)
	assert.Equal(t, 0, total)
}

func TestFollowToggle_FailureLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	me := h.login(t, "Alice", "alice@example.com")
	org := h.seedOrganizer("bob", "bob@example.com")
	ctx := context.Background()

	h.backend.SeedFollow(me.ID, org.ID)
	require.NoError(t, h.store.FetchFollowing(ctx))

	h.backend.FailNextWith(http.StatusInternalServerError, "something went wrong")
	err := h.store.FollowToggle(ctx, org.ID)
	require.Error(t, err)
	assert.Equal(t, "something went wrong", err.Error())

	list, total := h.store.Following()
	require.Len(t, list, 1, "failed toggle must not change the list")
	assert.Equal(t, 1, total)
	assert.True(t, h.store.IsFollowing(org.ID))
}

func TestFollowToggle_RequiresSession(t *testing.T) {
	h := newHarness(t)
	err := h.store.FollowToggle(context.Background(), 42)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}
