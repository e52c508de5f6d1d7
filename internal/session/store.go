package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/idilsaglam/tada/internal/forms"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
)

// BlobKey is the fixed key the session is persisted under.
const BlobKey = "auth"

const blobVersion = 1

// Token sources reported by Source.
const (
	SourceEnv  = "env"
	SourceFile = "file"
)

// Blob is the key-value store the session persists to.
type Blob interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
}

// Authenticator is the part of the API client the store needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (model.AuthResult, error)
	Signup(ctx context.Context, name, email, password string) (model.AuthResult, error)
}

type persisted struct {
	State   persistedState `json:"state"`
	Version int            `json:"version"`
}

type persistedState struct {
	User  *model.User `json:"user"`
	Token *string     `json:"token"`
}

// Store holds the signed-in user and bearer token. It is safe for
// concurrent use; api.Client reads Token on every request.
type Store struct {
	mu       sync.RWMutex
	blob     Blob
	auth     Authenticator
	log      *slog.Logger
	override string

	user  *model.User
	token string
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTokenOverride makes Token return tok regardless of the stored
// session (TADA_TOKEN).
func WithTokenOverride(tok string) Option {
	return func(s *Store) { s.override = stripBearer(strings.TrimSpace(tok)) }
}

// Open restores the session from blob. A missing or unusable blob yields a
// logged-out store, never an error.
func Open(blob Blob, auth Authenticator, opts ...Option) *Store {
	s := &Store{blob: blob, auth: auth, log: logging.Discard()}
	for _, o := range opts {
		o(s)
	}
	user, token, err := s.load()
	if err != nil {
		var serr *model.StorageError
		if errors.As(err, &serr) {
			s.log.Debug("session blob ignored", "key", BlobKey, "err", err)
		}
		return s
	}
	s.user, s.token = user, token
	return s
}

func (s *Store) load() (*model.User, string, error) {
	b, err := s.blob.Read(BlobKey)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", err
		}
		return nil, "", &model.StorageError{Key: BlobKey, Err: err}
	}
	user, token, err := decode(b)
	if err != nil {
		return nil, "", &model.StorageError{Key: BlobKey, Err: err}
	}
	return user, token, nil
}

func decode(b []byte) (*model.User, string, error) {
	var p persisted
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, "", fmt.Errorf("parse: %w", err)
	}
	if p.Version != blobVersion {
		return nil, "", fmt.Errorf("unsupported version %d", p.Version)
	}
	st := p.State
	switch {
	case st.User == nil && (st.Token == nil || *st.Token == ""):
		// a cleared session
		return nil, "", nil
	case st.User == nil:
		return nil, "", errors.New("token without user")
	case st.Token == nil || *st.Token == "":
		return nil, "", errors.New("user without token")
	}
	if err := forms.Struct(*st.User); err != nil {
		return nil, "", fmt.Errorf("user: %w", err)
	}
	return st.User, *st.Token, nil
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return &model.AuthError{Op: "login", Err: err}
	}
	return s.SetSession(res.User, res.Token)
}

func (s *Store) Signup(ctx context.Context, name, email, password string) error {
	res, err := s.auth.Signup(ctx, name, email, password)
	if err != nil {
		return &model.AuthError{Op: "signup", Err: err}
	}
	return s.SetSession(res.User, res.Token)
}

// SetSession overwrites the session unconditionally. The in-memory session
// is updated even when persisting fails; the failure is returned as a
// *model.StorageError.
func (s *Store) SetSession(user model.User, token string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return model.NewValidationError("token", "is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	s.token = token
	return s.persist()
}

// Logout clears the session locally. The server is not contacted.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	return s.persist()
}

// persist must be called with mu held.
func (s *Store) persist() error {
	p := persisted{Version: blobVersion}
	p.State.User = s.user
	if s.token != "" {
		tok := s.token
		p.State.Token = &tok
	}
	b, err := json.Marshal(p)
	if err != nil {
		return &model.StorageError{Key: BlobKey, Err: err}
	}
	if err := s.blob.Write(BlobKey, b); err != nil {
		s.log.Warn("session not persisted", "key", BlobKey, "err", err)
		return &model.StorageError{Key: BlobKey, Err: err}
	}
	return nil
}

// User returns the signed-in user, if any.
func (s *Store) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token to send, preferring the override.
func (s *Store) Token() string {
	if s.override != "" {
		return s.override
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Source reports where Token comes from: SourceEnv, SourceFile or "".
func (s *Store) Source() string {
	if s.override != "" {
		return SourceEnv
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token != "" {
		return SourceFile
	}
	return ""
}

func (s *Store) Authenticated() bool { return s.Token() != "" }

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
