// Package session owns the authentication state of the client: the token and
// the signed-in user, kept in memory and in persisted storage together.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/and161185/ecotour/internal/api"
	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/model"
	"github.com/and161185/ecotour/internal/storage"
)

const defaultLogoutTimeout = 5 * time.Second

// Authenticator is the backend side of the session lifecycle.
type Authenticator interface {
	Login(ctx context.Context, cr api.Credentials) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, u *model.UserRecord) (*model.UserRecord, error)
}

var _ Authenticator = (*api.Auth)(nil)

// State is a snapshot of the store. Loading is true until Restore finishes.
type State struct {
	Loading bool
	Session model.Session
}

// ProfileUpdate lists the user fields that may change; nil means unchanged.
type ProfileUpdate struct {
	Nom   *string
	Email *string
}

// Options tune a Store.
type Options struct {
	LogoutTimeout time.Duration
	Now           func() time.Time
}

// Store is the session store. It is safe for concurrent use.
type Store struct {
	auth          Authenticator
	persist       storage.Store
	log           *zap.Logger
	logoutTimeout time.Duration
	now           func() time.Time

	mu        sync.Mutex
	state     State
	epoch     uint64
	listeners map[int]func(State)
	nextID    int

	// writeMu orders persisted writes; notifyMu keeps listener calls in commit order.
	writeMu  sync.Mutex
	notifyMu sync.Mutex
}

// New returns a Store in the loading state. Call Restore once at startup.
func New(auth Authenticator, persist storage.Store, log *zap.Logger, opts Options) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.LogoutTimeout <= 0 {
		opts.LogoutTimeout = defaultLogoutTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		auth:          auth,
		persist:       persist,
		log:           log,
		logoutTimeout: opts.LogoutTimeout,
		now:           opts.Now,
		state:         State{Loading: true},
		listeners:     make(map[int]func(State)),
	}
}

// Current returns the latest committed state.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Token returns the bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Session.Token
}

// Subscribe registers fn to be called after every committed change.
// fn must not mutate the store.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func copyState(st State) State {
	if st.Session.User != nil {
		u := *st.Session.User
		st.Session.User = &u
	}
	return st
}

func (s *Store) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// commit publishes st and notifies listeners outside the state lock.
func (s *Store) commit(st State) {
	s.mu.Lock()
	s.state = st
	ls := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		ls = append(ls, fn)
	}
	s.notifyMu.Lock()
	s.mu.Unlock()

	defer s.notifyMu.Unlock()
	for _, fn := range ls {
		fn(copyState(st))
	}
}

// tokenExpiry reads the exp claim of a JWT without verifying it.
// Opaque tokens have no known expiry.
func tokenExpiry(tok string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser(jwt.WithoutClaimsValidation()).ParseUnverified(tok, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func newSession(tok string, u *model.UserRecord) model.Session {
	cp := *u
	return model.Session{Token: tok, User: &cp, ExpiresAt: tokenExpiry(tok)}
}

// adopt persists sess and publishes it unless a logout started after epoch.
func (s *Store) adopt(ctx context.Context, epoch uint64, sess model.Session) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.currentEpoch() != epoch {
		return errs.ErrSessionSuperseded
	}
	raw, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.persist.Put(ctx, map[string]string{
		storage.KeyToken: sess.Token,
		storage.KeyUser:  string(raw),
	}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.commit(State{Session: sess})
	return nil
}

// Restore adopts the persisted session if it is complete and well formed.
// A partial, unparsable or expired session is cleared and the store starts
// signed out. When storage cannot be read the store also starts signed out,
// leaves the stored keys alone and returns the read error. The store leaves
// the loading state in every case.
// A login or logout that commits first takes precedence over the stored state.
func (s *Store) Restore(ctx context.Context) error {
	sess, err := s.load(ctx)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.Current().Loading {
		return nil
	}
	if err == nil {
		var st State
		if sess != nil {
			st.Session = *sess
		}
		s.commit(st)
		return nil
	}

	if !errors.Is(err, errs.ErrCorruptState) {
		// Storage unreachable: start signed out but keep what is stored.
		s.log.Warn("persisted session unavailable", zap.Error(err))
		s.commit(State{})
		return err
	}
	s.log.Warn("discarding persisted session", zap.Error(err))
	s.commit(State{})
	if derr := s.persist.Delete(ctx, storage.SessionKeys...); derr != nil {
		return fmt.Errorf("clear persisted session: %w", derr)
	}
	return nil
}

// load returns the persisted session, or nil when nothing is stored.
// Unusable stored state is reported as errs.ErrCorruptState.
func (s *Store) load(ctx context.Context) (*model.Session, error) {
	kv, err := s.persist.Get(ctx, storage.SessionKeys...)
	if err != nil {
		if errors.Is(err, errs.ErrCorruptState) {
			return nil, err
		}
		return nil, fmt.Errorf("read persisted session: %w", err)
	}
	tok, hasTok := kv[storage.KeyToken]
	raw, hasUser := kv[storage.KeyUser]
	switch {
	case !hasTok && !hasUser:
		return nil, nil
	case !hasTok || !hasUser || tok == "":
		return nil, fmt.Errorf("%w: partial session", errs.ErrCorruptState)
	}
	var u model.UserRecord
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("%w: user: %v", errs.ErrCorruptState, err)
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptState, err)
	}
	sess := newSession(tok, &u)
	if sess.Expired(s.now()) {
		return nil, fmt.Errorf("%w: token expired at %s", errs.ErrCorruptState, sess.ExpiresAt.Format(time.RFC3339))
	}
	return &sess, nil
}

// Login signs in. On failure the previous state is kept and the backend
// error is returned. A logout issued while the call is in flight wins, and
// Login then returns errs.ErrSessionSuperseded.
func (s *Store) Login(ctx context.Context, email, password string) (*model.UserRecord, error) {
	epoch := s.currentEpoch()
	resp, err := s.auth.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.User == nil {
		return nil, fmt.Errorf("login: %w: missing user", errs.ErrBadResponse)
	}
	sess := newSession(resp.Token, resp.User)
	if err := s.adopt(ctx, epoch, sess); err != nil {
		return nil, err
	}
	u := *sess.User
	return &u, nil
}

// Register creates an account. When the backend returns a token the new
// user is signed in as by Login; otherwise the state does not change.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) (*model.UserRecord, error) {
	epoch := s.currentEpoch()
	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.User == nil {
		return nil, fmt.Errorf("register: %w: missing user", errs.ErrBadResponse)
	}
	u := *resp.User
	if resp.Token == "" {
		return &u, nil
	}
	if err := s.adopt(ctx, epoch, newSession(resp.Token, resp.User)); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout signs out. The backend is told on a best-effort basis, bounded by
// the logout timeout; local state is cleared whatever the outcome.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.epoch++
	hadToken := s.state.Session.Token != ""
	s.mu.Unlock()

	if hadToken {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.logoutTimeout)
		if err := s.auth.Logout(bctx); err != nil {
			s.log.Warn("backend logout failed", zap.Error(err))
		}
		cancel()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.commit(State{})
	if err := s.persist.Delete(context.WithoutCancel(ctx), storage.SessionKeys...); err != nil {
		return fmt.Errorf("clear persisted session: %w", err)
	}
	return nil
}

// UpdateProfile merges upd into the current user and commits the result
// locally only after the backend acknowledges it.
func (s *Store) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*model.UserRecord, error) {
	s.mu.Lock()
	cur := copyState(s.state).Session
	epoch := s.epoch
	s.mu.Unlock()
	if !cur.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}

	merged := *cur.User
	if upd.Nom != nil {
		merged.Nom = *upd.Nom
	}
	if upd.Email != nil {
		merged.Email = *upd.Email
	}
	ack, err := s.auth.UpdateProfile(ctx, &merged)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sameToken := s.state.Session.Token == cur.Token
	s.mu.Unlock()
	if !sameToken {
		return nil, errs.ErrSessionSuperseded
	}
	next := cur
	next.User = ack
	if err := s.adopt(ctx, epoch, next); err != nil {
		return nil, err
	}
	u := *ack
	return &u, nil
}
