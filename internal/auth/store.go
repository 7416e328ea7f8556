// Package auth owns the current user and bearer token. It is the single
// source of identity truth; dependent stores receive it through the
// Identity interface instead of reaching into globals.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/event-tracker/eventclient/internal/models"
	"github.com/event-tracker/eventclient/pkg/rest"
	"github.com/event-tracker/eventclient/pkg/session"
)

var (
	// ErrNotAuthenticated is returned by actions that need a logged-in user.
	ErrNotAuthenticated = errors.New("user not authenticated")
	// ErrSessionExpired is returned when the bearer token's exp has passed.
	ErrSessionExpired = errors.New("session expired")
)

// Identity supplies the current user and token to dependent stores.
type Identity interface {
	Identity() (*models.User, string, error)
}

// Store holds authentication state and its mutating actions. Actions
// serialize on an internal mutex; overlapping calls run one at a time.
type Store struct {
	client  *rest.Client
	session session.Store
	logger  *zap.Logger

	mu      sync.Mutex
	user    *models.User
	token   string
	lastErr string
}

// NewStore creates an auth store.
func NewStore(client *rest.Client, sess session.Store, logger *zap.Logger) *Store {
	return &Store{client: client, session: sess, logger: logger}
}

// persisted is the subset of state written to the session store.
type persisted struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Load rehydrates user and token from the session store.
func (s *Store) Load(ctx context.Context) error {
	var p persisted
	ok, err := s.session.Get(ctx, session.KeyAuth, &p)
	if err != nil {
		return fmt.Errorf("load auth state: %w", err)
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.user = p.User
	s.token = p.Token
	s.mu.Unlock()
	return nil
}

// User returns the current user, or nil.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Token returns the current bearer token, or "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Err returns the message of the last failed login/register, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Identity returns the current user and token. It fails with
// ErrNotAuthenticated when no session exists, and ErrSessionExpired when
// the token is a JWT whose expiry has passed, so callers never issue a
// request that is already doomed.
func (s *Store) Identity() (*models.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.token == "" {
		return nil, "", ErrNotAuthenticated
	}
	if tokenExpired(s.token) {
		return nil, "", ErrSessionExpired
	}
	return s.user, s.token, nil
}

// Register creates an account and signs in. On failure the previous
// user/token survive untouched and the server message is returned.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	env, err := s.client.PostJSON(ctx, "/api/user", body)
	if err != nil {
		s.setErr(rest.Message(err, "registration failed"))
		return rest.Fallback(err, "registration failed")
	}
	return s.applySession(ctx, env)
}

// Login authenticates and stores the session.
func (s *Store) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	env, err := s.client.PostJSON(ctx, "/api/login", body)
	if err != nil {
		s.setErr(rest.Message(err, "login failed"))
		return rest.Fallback(err, "login failed")
	}
	return s.applySession(ctx, env)
}

func (s *Store) applySession(ctx context.Context, env *rest.Envelope) error {
	var user models.User
	if err := env.DecodeData(&user); err != nil {
		return fmt.Errorf("decode user: %w", err)
	}
	s.mu.Lock()
	s.user = &user
	s.token = env.Token
	s.lastErr = ""
	p := persisted{User: s.user, Token: s.token}
	s.mu.Unlock()

	if err := s.session.Set(ctx, session.KeyAuth, p); err != nil {
		s.logger.Warn("persist auth state", zap.Error(err))
	}
	return nil
}

func (s *Store) setErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// Logout tells the server best-effort, then unconditionally clears the
// local session and every persisted store key tied to identity.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	user, token := s.user, s.token
	s.mu.Unlock()

	if user != nil && token != "" {
		path := fmt.Sprintf("/api/logout/%d", user.ID)
		if _, err := s.client.PostJSON(ctx, path, struct{}{}, rest.WithToken(token)); err != nil {
			s.logger.Warn("server logout failed", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.lastErr = ""
	s.mu.Unlock()

	for _, key := range []string{session.KeyAuth, session.KeyOrganizers, session.KeyFollowers} {
		if err := s.session.Delete(ctx, key); err != nil {
			s.logger.Warn("clear session key", zap.String("key", key), zap.Error(err))
		}
	}
}

// AccountUpdate carries the fields to change. Zero-valued fields are left
// out of the request. A ProfileImg switches the request to multipart.
type AccountUpdate struct {
	Name     string
	Email    string
	Password string

	ProfileImgName string
	ProfileImg     io.Reader
}

// UpdateAccount mutates the account and replaces the stored user (and
// token, when the server reissues one).
func (s *Store) UpdateAccount(ctx context.Context, upd AccountUpdate) error {
	s.mu.Lock()
	user, token := s.user, s.token
	s.mu.Unlock()
	if user == nil || token == "" {
		return ErrNotAuthenticated
	}

	path := fmt.Sprintf("/api/update-account/%d", user.ID)
	var env *rest.Envelope
	var err error
	if upd.ProfileImg != nil {
		form := rest.NewForm()
		if upd.Name != "" {
			form.Set("name", upd.Name)
		}
		if upd.Email != "" {
			form.Set("email", upd.Email)
		}
		if upd.Password != "" {
			form.Set("password", upd.Password)
		}
		form.AttachFile("profile_img", upd.ProfileImgName, upd.ProfileImg)
		env, err = s.client.PutForm(ctx, path, form, rest.WithToken(token))
	} else {
		body := map[string]string{}
		if upd.Name != "" {
			body["name"] = upd.Name
		}
		if upd.Email != "" {
			body["email"] = upd.Email
		}
		if upd.Password != "" {
			body["password"] = upd.Password
		}
		env, err = s.client.PutJSON(ctx, path, body, rest.WithToken(token))
	}
	if err != nil {
		return rest.Fallback(err, "account update failed")
	}

	var updated models.User
	if err := env.DecodeData(&updated); err != nil {
		return fmt.Errorf("decode user: %w", err)
	}
	s.mu.Lock()
	s.user = &updated
	if env.Token != "" {
		s.token = env.Token
	}
	p := persisted{User: s.user, Token: s.token}
	s.mu.Unlock()

	if err := s.session.Set(ctx, session.KeyAuth, p); err != nil {
		s.logger.Warn("persist auth state", zap.Error(err))
	}
	return nil
}
