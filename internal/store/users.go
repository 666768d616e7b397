package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/BTreeMap/MealMate/internal/models"
)

// ErrEmptyUserID is returned when a user operation is given no identity.
var ErrEmptyUserID = errors.New("user id cannot be empty")

// UserStore keeps every user's conversation state in memory.
// Access is serialized per user; different users never block each other.
type UserStore struct {
	mu    sync.Mutex
	users map[string]*userSlot
}

type userSlot struct {
	lock  chan struct{} // capacity 1; holding the token is holding the lock
	state models.UserState
}

// NewUserStore creates an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*userSlot)}
}

func (s *UserStore) slot(userID string) *userSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.users[userID]
	if !ok {
		sl = &userSlot{lock: make(chan struct{}, 1)}
		s.users[userID] = sl
	}
	return sl
}

// WithUser runs fn with exclusive access to the user's state, creating an empty
// state on first use. fn must not block on I/O. Waiting for the lock honours ctx.
func (s *UserStore) WithUser(ctx context.Context, userID string, fn func(*models.UserState) error) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	sl := s.slot(userID)
	select {
	case sl.lock <- struct{}{}:
	case <-ctx.Done():
		slog.Warn("UserStore.WithUser: gave up waiting for user lock", "userID", userID, "error", ctx.Err())
		return ctx.Err()
	}
	defer func() { <-sl.lock }()
	return fn(&sl.state)
}

// ForEachUser visits every known user, one at a time, under that user's lock.
func (s *UserStore) ForEachUser(ctx context.Context, fn func(userID string, st *models.UserState)) error {
	for _, id := range s.UserIDs() {
		err := s.WithUser(ctx, id, func(st *models.UserState) error {
			fn(id, st)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// UserIDs returns the known user ids in sorted order.
func (s *UserStore) UserIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
