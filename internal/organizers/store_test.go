package organizers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/event-tracker/eventclient/internal/apitest"
	"github.com/event-tracker/eventclient/internal/auth"
	"github.com/event-tracker/eventclient/internal/models"
	"github.com/event-tracker/eventclient/internal/organizers"
	"github.com/event-tracker/eventclient/pkg/rest"
	"github.com/event-tracker/eventclient/pkg/session"
)

type harness struct {
	backend *apitest.Server
	auth    *auth.Store
	store   *organizers.Store
	sess    *session.MemStore
}

func newHarness(t *testing.T) *harness {
	backend := apitest.New("test-secret")
	srv := httptest.NewServer(backend.Router())
	t.Cleanup(srv.Close)

	client := rest.New(rest.Config{BaseURL: srv.URL})
	sess := session.NewMemStore()
	logger := zap.NewNop()
	authStore := auth.NewStore(client, sess, logger)
	return &harness{
		backend: backend,
		auth:    authStore,
		store:   organizers.NewStore(client, authStore, sess, logger),
		sess:    sess,
	}
}

func (h *harness) login(t *testing.T, name, email string) models.User {
	t.Helper()
	u := h.backend.SeedUser(name, email, "secret123")
	require.NoError(t, h.auth.Login(context.Background(), email, "secret123"))
	return u
}

func TestRegister_SetsProfileFromCreatedPayload(t *testing.T) {
	h := newHarness(t)
	user := h.login(t, "Bob", "bob@example.com")
	ctx := context.Background()

	assert.Nil(t, h.store.Profile(), "profile must be nil before registration")

	err := h.store.Register(ctx, "555-0100", "live music", "https://bob.events")
	require.NoError(t, err)

	profile := h.store.Profile()
	require.NotNil(t, profile)
	assert.Equal(t, user.ID, profile.UserID)
	assert.Equal(t, "bob@example.com", profile.Email)
	assert.True(t, h.store.IsOrganizer())
	assert.False(t, h.store.Loading())

	var p struct {
		Profile *models.OrganizerProfile `json:"me_as_an_org"`
	}
	ok, err := h.sess.Get(ctx, session.KeyOrganizers, &p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, profile.ID, p.Profile.ID)
}

func TestRegister_RequiresSession(t *testing.T) {
	h := newHarness(t)
	err := h.store.Register(context.Background(), "555", "d", "w")
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestRegister_Twice(t *testing.T) {
	h := newHarness(t)
	h.login(t, "Bob", "bob@example.com")
	ctx := context.Background()
	require.NoError(t, h.store.Register(ctx, "555", "d", "w"))

	err := h.store.Register(ctx, "555", "d", "w")
	require.Error(t, err)
	assert.Equal(t, "already an organizer", err.Error())
}

func TestFetchMyProfile_NotAnOrganizerIsNil(t *testing.T) {
	h := newHarness(t)
	h.login(t, "Alice", "alice@example.com")

	require.NoError(t, h.store.FetchMyProfile(context.Background()))
	assert.Nil(t, h.store.Profile())
	assert.False(t, h.store.IsOrganizer())
}

func TestFetchMyProfile_FindsProfileByEmail(t *testing.T) {
	h := newHarness(t)
	user := h.login(t, "Bob", "bob@example.com")
	seeded := h.backend.SeedOrganizer(user.ID, "555", "d", "w")

	require.NoError(t, h.store.FetchMyProfile(context.Background()))
	require.NotNil(t, h.store.Profile())
	assert.Equal(t, seeded.ID, h.store.Profile().ID)
}

func TestFetchDirectory_ExcludesSelf(t *testing.T) {
	h := newHarness(t)
	me := h.login(t, "Bob", "bob@example.com")
	h.backend.SeedOrganizer(me.ID, "555", "mine", "w")

	other := h.backend.SeedUser("Carol", "carol@example.com", "secret123")
	otherProfile := h.backend.SeedOrganizer(other.ID, "556", "theirs", "w")

	require.NoError(t, h.store.FetchDirectory(context.Background()))
	dir := h.store.Directory()
	require.Len(t, dir, 1)
	assert.Equal(t, otherProfile.ID, dir[0].ID)
	require.NotNil(t, dir[0].User)
	assert.Equal(t, "Carol", dir[0].User.Name)
}

func TestCreateEvent_DoesNotTouchLocalList(t *testing.T) {
	h := newHarness(t)
	h.login(t, "Bob", "bob@example.com")
	ctx := context.Background()
	require.NoError(t, h.store.Register(ctx, "555", "d", "w"))

	err := h.store.CreateEvent(ctx, organizers.EventDraft{
		Title:               "Rooftop Session",
		Location:            "Downtown",
		Category:            "music",
		StartingDateAndTime: "2026-09-01 19:00",
		EndingDateAndTime:   "2026-09-01 23:00",
		IsFree:              true,
		ImageName:           "poster.jpg",
		Image:               strings.NewReader("bytes"),
	})
	require.NoError(t, err)
	assert.Empty(t, h.store.MyEvents(), "creation must not insert locally")

	require.NoError(t, h.store.FetchMyEvents(ctx))
	require.Len(t, h.store.MyEvents(), 1)
	assert.Equal(t, "Rooftop Session", h.store.MyEvents()[0].Title)
	assert.Equal(t, 1, h.store.MyEvents()[0].IsFree)
}

func TestFetchMyEvents_RequiresProfile(t *testing.T) {
	h := newHarness(t)
	h.login(t, "Alice", "alice@example.com")
	err := h.store.FetchMyEvents(context.Background())
	assert.ErrorIs(t, err, organizers.ErrNotAnOrganizer)
}

func TestDeleteEvent_Resynchronizes(t *testing.T) {
	h := newHarness(t)
	h.login(t, "Bob", "bob@example.com")
	ctx := context.Background()
	require.NoError(t, h.store.Register(ctx, "555", "d", "w"))

	e1 := h.backend.SeedEvent(h.store.Profile().ID, "Keep", "music")
	e2 := h.backend.SeedEvent(h.store.Profile().ID, "Drop", "music")
	require.NoError(t, h.store.FetchMyEvents(ctx))
	require.Len(t, h.store.MyEvents(), 2)

	require.NoError(t, h.store.DeleteEvent(ctx, e2.ID))
	require.Len(t, h.store.MyEvents(), 1)
	assert.Equal(t, e1.ID, h.store.MyEvents()[0].ID)
	assert.False(t, h.backend.HasEvent(e2.ID))
}

func TestDeleteEvent_ServerRefusal(t *testing.T) {
	h := newHarness(t)
	h.login(t, "Bob", "bob@example.com")
	ctx := context.Background()
	require.NoError(t, h.store.Register(ctx, "555", "d", "w"))
	e := h.backend.SeedEvent(h.store.Profile().ID, "Keep", "music")
	require.NoError(t, h.store.FetchMyEvents(ctx))

	h.backend.FailNextWith(http.StatusForbidden, "not your event")
	err := h.store.DeleteEvent(ctx, e.ID)
	require.Error(t, err)
	assert.Equal(t, "not your event", err.Error())
	assert.Len(t, h.store.MyEvents(), 1, "failed delete must not change local state")
}
