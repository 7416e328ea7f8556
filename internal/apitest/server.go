// Package apitest is an in-process fake of the Event Tracker backend.
// It implements the full REST contract the stores consume, backed by
// in-memory state, so store tests and the demo command run hermetic.
package apitest

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/event-tracker/eventclient/internal/models"
	"github.com/event-tracker/eventclient/pkg/response"
)

// Server is the fake backend. All exported methods are safe for
// concurrent use.
type Server struct {
	secret []byte

	mu         sync.Mutex
	users      map[int64]*userRecord
	organizers map[int64]*models.OrganizerProfile // keyed by profile id
	events     map[int64]*models.Event
	comments   map[int64][]models.Comment // keyed by event id
	follows    map[[2]int64]time.Time     // {userID, organizerID} -> created
	nextID     int64

	failNext *response.Body
	failCode int
}

type userRecord struct {
	user         models.User
	passwordHash string
}

// New creates an empty fake backend signing tokens with secret.
func New(secret string) *Server {
	return &Server{
		secret:     []byte(secret),
		users:      make(map[int64]*userRecord),
		organizers: make(map[int64]*models.OrganizerProfile),
		events:     make(map[int64]*models.Event),
		comments:   make(map[int64][]models.Comment),
		follows:    make(map[[2]int64]time.Time),
		nextID:     100,
	}
}

// FailNextWith makes the next request answer with the given status and a
// success:false envelope carrying message, then resets.
func (s *Server) FailNextWith(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = &response.Body{Success: false, Message: message}
	s.failCode = status
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

// Router builds the gin engine with the full route table.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.failInjector())

	r.POST("/api/user", s.register)
	r.POST("/api/login", s.login)
	r.POST("/api/logout/:userId", s.auth(), s.logout)
	r.PUT("/api/update-account/:userId", s.auth(), s.updateAccount)

	r.GET("/api/all-events", s.allEvents)
	r.GET("/api/event-with-comments/:eventId", s.eventWithComments)
	r.POST("/api/add-comment/:eventId", s.auth(), s.addComment)

	r.POST("/api/reg-as-organizer/:userId", s.auth(), s.regAsOrganizer)
	r.GET("/api/me-as-an-org/:email", s.meAsAnOrg)
	r.GET("/api/organizers/:userId", s.organizerDirectory)
	r.POST("/api/add-event/:userId", s.auth(), s.addEvent)
	r.GET("/api/my-events/:organizerId", s.myEvents)
	r.DELETE("/api/del-event/:eventId", s.auth(), s.deleteEvent)

	r.GET("/api/my-followers/:email", s.myFollowers)
	r.GET("/api/my-followed/:userId", s.myFollowed)
	r.POST("/api/follow/:userId", s.auth(), s.follow)

	return r
}

func (s *Server) failInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		body, code := s.failNext, s.failCode
		s.failNext = nil
		s.mu.Unlock()
		if body != nil {
			c.AbortWithStatusJSON(code, body)
			return
		}
		c.Next()
	}
}

// auth validates the bearer token and stashes the user id in the context.
func (s *Server) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(*jwt.Token) (interface{}, error) {
			return s.secret, nil
		})
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		userID, _ := claims["user_id"].(float64)
		c.Set("user_id", int64(userID))
		c.Next()
	}
}

func (s *Server) issueToken(userID int64, email string) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
		"jti":     uuid.NewString(), // every issuance is distinct
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return token
}

func pathID(c *gin.Context, name string) int64 {
	n, _ := strconv.ParseInt(c.Param(name), 10, 64)
	return n
}

// ---- seeding helpers for tests ----

// SeedUser creates a user with a bcrypt-hashed password.
func (s *Server) SeedUser(name, email, password string) models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{ID: s.id(), Name: name, Email: email}
	s.users[u.ID] = &userRecord{user: u, passwordHash: string(hash)}
	return u
}

// SeedOrganizer attaches an organizer profile to a user.
func (s *Server) SeedOrganizer(userID int64, phone, description, url string) models.OrganizerProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.users[userID]
	now := time.Now().UTC()
	p := models.OrganizerProfile{
		ID:          s.id(),
		UserID:      userID,
		PhoneNumber: phone,
		Description: description,
		URL:         url,
		Email:       rec.user.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.organizers[p.ID] = &p
	return p
}

// SeedEvent publishes an event owned by an organizer profile.
func (s *Server) SeedEvent(organizerID int64, title, category string) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := models.Event{
		ID:          s.id(),
		Title:       title,
		Category:    category,
		IsFree:      1,
		OrganizerID: organizerID,
	}
	s.events[e.ID] = &e
	return e
}

// SeedFollow records a follow edge.
func (s *Server) SeedFollow(userID, organizerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.follows[[2]int64{userID, organizerID}] = time.Now().UTC()
}

// TokenFor issues a valid bearer token for a seeded user.
func (s *Server) TokenFor(u models.User) string {
	return s.issueToken(u.ID, u.Email)
}

// ExpiredTokenFor issues a token whose exp is already in the past.
func (s *Server) ExpiredTokenFor(u models.User) string {
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return token
}

// CommentCount reports how many comments an event has.
func (s *Server) CommentCount(eventID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments[eventID])
}

// HasEvent reports whether the event still exists.
func (s *Server) HasEvent(eventID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.events[eventID]
	return ok
}

func (s *Server) organizerByUser(userID int64) *models.OrganizerProfile {
	for _, p := range s.organizers {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (s *Server) organizerByEmail(email string) *models.OrganizerProfile {
	for _, p := range s.organizers {
		if p.Email == email {
			return p
		}
	}
	return nil
}

func (s *Server) userByEmail(email string) *userRecord {
	for _, rec := range s.users {
		if rec.user.Email == email {
			return rec
		}
	}
	return nil
}
