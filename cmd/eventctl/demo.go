package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/event-tracker/eventclient/internal/apitest"
	"github.com/event-tracker/eventclient/internal/auth"
	"github.com/event-tracker/eventclient/internal/events"
	"github.com/event-tracker/eventclient/internal/followers"
	"github.com/event-tracker/eventclient/internal/organizers"
	"github.com/event-tracker/eventclient/pkg/rest"
	"github.com/event-tracker/eventclient/pkg/session"
)

// runDemo boots the in-memory backend on a loopback port and walks the
// stores through the whole product flow: two accounts, one organizer, an
// event, a comment, and a follow round trip.
func runDemo(ctx context.Context, logger *zap.Logger) error {
	backend := apitest.New("demo-secret")
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer ln.Close()
	go func() { _ = http.Serve(ln, backend.Router()) }()

	baseURL := "http://" + ln.Addr().String()
	fmt.Println("demo backend on", baseURL)

	alice := newDemoClient(baseURL, logger)
	bob := newDemoClient(baseURL, logger)

	if err := bob.auth.Register(ctx, "Bob", "bob@example.com", "secret123"); err != nil {
		return err
	}
	if err := bob.organizers.Register(ctx, "555-0100", "live music", "https://bob.events"); err != nil {
		return err
	}
	if err := bob.organizers.CreateEvent(ctx, organizers.EventDraft{
		Title:               "Rooftop Session",
		Location:            "Downtown",
		Category:            "music",
		StartingDateAndTime: "2026-09-01 19:00",
		EndingDateAndTime:   "2026-09-01 23:00",
		IsFree:              true,
		ImageName:           "poster.jpg",
		Image:               strings.NewReader("fake image bytes"),
	}); err != nil {
		return err
	}

	if err := alice.auth.Register(ctx, "Alice", "alice@example.com", "secret123"); err != nil {
		return err
	}
	if err := alice.events.FetchAll(ctx); err != nil {
		return err
	}
	feed := alice.events.Feed()
	fmt.Printf("alice sees %d event(s); first: %q\n", len(feed), feed[0].Title)

	if err := alice.events.AddComment(ctx, feed[0].ID, "see you there!"); err != nil {
		return err
	}
	if err := alice.events.FetchComments(ctx, feed[0].ID); err != nil {
		return err
	}
	comments, _ := alice.events.Comments()
	fmt.Printf("event has %d comment(s)\n", len(comments))

	if err := alice.followers.FollowToggle(ctx, bob.organizers.Profile().ID); err != nil {
		return err
	}
	_, following := alice.followers.Following()
	fmt.Printf("alice follows %d organizer(s)\n", following)

	if err := bob.followers.FetchFollowers(ctx); err != nil {
		return err
	}
	_, total := bob.followers.Followers()
	fmt.Printf("bob has %d follower(s)\n", total)
	return nil
}

type demoClient struct {
	auth       *auth.Store
	organizers *organizers.Store
	followers  *followers.Store
	events     *events.Store
}

func newDemoClient(baseURL string, logger *zap.Logger) *demoClient {
	client := rest.New(rest.Config{BaseURL: baseURL, Logger: logger})
	sess := session.NewMemStore()
	c := &demoClient{}
	c.auth = auth.NewStore(client, sess, logger)
	c.organizers = organizers.NewStore(client, c.auth, sess, logger)
	c.followers = followers.NewStore(client, c.auth, c.organizers, sess, logger)
	c.events = events.NewStore(client, c.auth, sess, logger)
	return c
}
