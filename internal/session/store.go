package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/standup-bot/internal/persistence"
)

// Store persists whole session records.
type Store interface {
	// Load returns the record for identity, or false when none exists.
	Load(ctx context.Context, identity string) (Session, bool, error)
	// Save replaces the record for s.Identity.
	Save(ctx context.Context, s Session) error
	// Delete removes the record. Removing a missing record succeeds.
	Delete(ctx context.Context, identity string) error
	// IdleSince lists identities whose last activity is before cutoff.
	IdleSince(ctx context.Context, cutoff time.Time) ([]string, error)
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Load(_ context.Context, identity string) (Session, bool, error) {
	m.mu.RLock()
	s, ok := m.sessions[identity]
	m.mu.RUnlock()
	if !ok {
		return Session{}, false, nil
	}
	return s.Clone(), true, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	if s.Identity == "" {
		return errors.New("session: identity is required")
	}
	m.mu.Lock()
	m.sessions[s.Identity] = s.Clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, identity string) error {
	m.mu.Lock()
	delete(m.sessions, identity)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) IdleSince(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var identities []string
	for identity, s := range m.sessions {
		if s.LastActivity.Before(cutoff) {
			identities = append(identities, identity)
		}
	}
	return identities, nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RepositoryStore adapts a persistence.ConversationRepository so several
// processes can share sessions through one database.
type RepositoryStore struct {
	repo persistence.ConversationRepository
}

// NewRepositoryStore wraps repo.
func NewRepositoryStore(repo persistence.ConversationRepository) *RepositoryStore {
	return &RepositoryStore{repo: repo}
}

func (r *RepositoryStore) Load(ctx context.Context, identity string) (Session, bool, error) {
	record, err := r.repo.GetConversation(ctx, identity)
	if errors.Is(err, persistence.ErrNotFound) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	s := Session{
		Identity:     record.Identity,
		State:        State(record.State),
		Step:         record.Step,
		LastActivity: record.LastActivity,
	}
	if len(record.Data) > 0 {
		if err := json.Unmarshal(record.Data, &s.Fields); err != nil {
			return Session{}, false, fmt.Errorf("decode session %q: %w", identity, err)
		}
	}
	return s, true, nil
}

func (r *RepositoryStore) Save(ctx context.Context, s Session) error {
	fields := s.Fields
	if fields == nil {
		fields = []Field{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", s.Identity, err)
	}
	return r.repo.SaveConversation(ctx, persistence.Conversation{
		Identity:     s.Identity,
		State:        string(s.State),
		Step:         s.Step,
		Data:         data,
		LastActivity: s.LastActivity,
	})
}

func (r *RepositoryStore) Delete(ctx context.Context, identity string) error {
	return r.repo.DeleteConversation(ctx, identity)
}

func (r *RepositoryStore) IdleSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	return r.repo.ListIdleConversations(ctx, cutoff)
}
