package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Store holds the current session and keeps it durable through Storage. All
// mutations are whole-object replacements performed under one lock and
// persisted synchronously; subscribers are notified with a snapshot before
// the mutating call returns. Construct isolated instances in tests; nothing
// here is global.
type Store struct {
	mu      sync.Mutex
	session Session
	storage Storage
	log     zerolog.Logger
	subs    map[int]func(Session)
	nextSub int
}

// NewStore creates a store and restores any persisted session. A corrupt or
// unreadable persisted session is discarded rather than propagated: the user
// just has to log in again.
func NewStore(storage Storage, log zerolog.Logger) *Store {
	s := &Store{
		storage: storage,
		log:     log,
		subs:    make(map[int]func(Session)),
	}

	sess, err := storage.Load()
	if err != nil {
		if err != ErrNoSession {
			log.Warn().Err(err).Msg("Discarding unreadable persisted session")
			_ = storage.Clear()
		}
		return s
	}

	// Re-derive the flag instead of trusting the persisted value
	sess.IsAuthenticated = sess.Token != ""
	s.session = sess
	return s
}

// Get returns a snapshot of the current session.
func (s *Store) Get() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// SetToken sets the token and recomputes the authenticated flag. The user is
// left untouched, so this can produce the transient token-but-no-user state
// the gateway resolves.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	s.session.Token = token
	s.session.IsAuthenticated = token != ""
	s.notify(s.commit())
}

// SetUser replaces the user without touching token or authenticated flag.
func (s *Store) SetUser(user *User) {
	s.mu.Lock()
	s.session.User = user
	s.notify(s.commit())
}

// SetAuth atomically installs a fully authenticated session. This is the only
// mutation that leaves the store in a consistent logged-in state.
func (s *Store) SetAuth(token string, user *User) {
	s.mu.Lock()
	s.session = Session{
		Token:           token,
		User:            user,
		IsAuthenticated: true,
		AuthenticatedAt: time.Now().Unix(),
	}
	s.notify(s.commit())
}

// Logout atomically clears the session and its persisted copy.
func (s *Store) Logout() {
	s.mu.Lock()
	s.session = Session{}
	if err := s.storage.Clear(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to clear persisted session")
	}
	s.notify(s.snapshotLocked())
}

// Subscribe registers fn to be called synchronously with a session snapshot
// after every mutation. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// commit persists the current session while the lock is held and returns the
// snapshot to publish.
func (s *Store) commit() Session {
	if err := s.storage.Save(s.session); err != nil {
		s.log.Warn().Err(err).Msg("Failed to persist session")
	}
	return s.session
}

func (s *Store) snapshotLocked() Session {
	return s.session
}

// notify releases the lock and delivers the snapshot to subscribers. Delivery
// is synchronous with the mutation but outside the lock, so callbacks may
// read the store without deadlocking.
func (s *Store) notify(snapshot Session) {
	subs := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
