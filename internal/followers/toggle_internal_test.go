package followers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/event-tracker/eventclient/internal/models"
	"github.com/event-tracker/eventclient/pkg/session"
)

type identityStub struct{}

func (identityStub) Identity() (*models.User, string, error) {
	return &models.User{ID: 1, Email: "a@example.com"}, "tok", nil
}

type profileStub struct{}

func (profileStub) Profile() *models.OrganizerProfile { return nil }

func TestFollowToggle_SecondCallWhileInFlight(t *testing.T) {
	s := NewStore(nil, identityStub{}, profileStub{}, session.NewMemStore(), zap.NewNop())

	// Simulate a toggle for organizer 42 still awaiting its response.
	s.mu.Lock()
	s.pending[42] = true
	s.mu.Unlock()

	err := s.FollowToggle(context.Background(), 42)
	assert.ErrorIs(t, err, ErrToggleInFlight)
}

func TestIsFollowing_ReflectsPendingToggle(t *testing.T) {
	s := NewStore(nil, identityStub{}, profileStub{}, session.NewMemStore(), zap.NewNop())

	s.mu.Lock()
	s.followed = []models.FollowedOrganizer{{ID: 7}}
	s.mu.Unlock()
	assert.True(t, s.IsFollowing(7))
	assert.False(t, s.IsFollowing(8))

	// A pending toggle flips the observed intent until reconciled.
	s.mu.Lock()
	s.pending[7] = true
	s.pending[8] = true
	s.mu.Unlock()
	assert.False(t, s.IsFollowing(7))
	assert.True(t, s.IsFollowing(8))
}
