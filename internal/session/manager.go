package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/standup-bot/internal/logging"
)

// Manager serializes session mutations per identity on top of a Store.
type Manager struct {
	store  Store
	locks  *Locker
	now    func() time.Time
	logger *slog.Logger
}

// NewManager creates a manager over store. A nil now defaults to time.Now.
func NewManager(store Store, now func() time.Time, logger *slog.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, locks: NewLocker(), now: now, logger: logger}
}

func (m *Manager) loggerFor(ctx context.Context, operation, identity string) *slog.Logger {
	return logging.FromContextOr(ctx, m.logger).With("component", "session", "operation", operation, "identity", identity)
}

// Tx is the view of one identity's session during a Turn. Changes are
// written back as a single record when the turn function returns.
type Tx struct {
	session Session
	now     time.Time
	dirty   bool
}

// Session returns a copy of the current record.
func (tx *Tx) Session() Session { return tx.session.Clone() }

// State returns the current state.
func (tx *Tx) State() State { return tx.session.State }

// Step returns the current step.
func (tx *Tx) Step() int { return tx.session.Step }

// IsActive reports whether a conversation is in progress.
func (tx *Tx) IsActive() bool { return tx.session.IsActive() }

func (tx *Tx) touch() {
	tx.session.LastActivity = tx.now
	tx.dirty = true
}

// SetState moves to state and rewinds the step to zero.
func (tx *Tx) SetState(state State) {
	tx.session.State = state
	tx.session.Step = 0
	tx.touch()
}

// AdvanceStep moves to the next step.
func (tx *Tx) AdvanceStep() {
	tx.session.Step++
	tx.touch()
}

// JumpTo moves to step within the current state.
func (tx *Tx) JumpTo(step int) {
	if step < 0 {
		step = 0
	}
	tx.session.Step = step
	tx.touch()
}

// Put stores a captured value.
func (tx *Tx) Put(key, value string) {
	tx.session.Put(key, value)
	tx.touch()
}

// Get returns a captured value.
func (tx *Tx) Get(key string) (string, bool) { return tx.session.Get(key) }

// PutLines stores a list of values under key.
func (tx *Tx) PutLines(key string, lines []string) {
	tx.session.PutLines(key, lines)
	tx.touch()
}

// Lines returns a list stored with PutLines.
func (tx *Tx) Lines(key string) []string { return tx.session.Lines(key) }

// Reset returns the session to idle with no data.
func (tx *Tx) Reset() {
	tx.session.State = StateIdle
	tx.session.Step = 0
	tx.session.Fields = nil
	tx.touch()
}

// Turn runs fn with exclusive access to identity's session and saves the
// result if fn changed it. The record is saved even when fn fails so that a
// reset performed before the failure is kept. A record that cannot be read
// fails the turn without running fn, leaving the stored record untouched.
func (m *Manager) Turn(ctx context.Context, identity string, fn func(*Tx) error) error {
	if identity == "" {
		return fmt.Errorf("session: identity is required")
	}
	unlock, err := m.locks.Lock(ctx, identity)
	if err != nil {
		return fmt.Errorf("session: lock %q: %w", identity, err)
	}
	defer unlock()

	current, found, err := m.load(ctx, identity)
	if err != nil {
		m.loggerFor(ctx, "Turn", identity).ErrorContext(ctx, "failed to load session", "error", err)
		return fmt.Errorf("session: load %q: %w", identity, err)
	}
	tx := &Tx{session: current, now: m.now()}
	if !found {
		tx.dirty = true
	}

	fnErr := fn(tx)
	if tx.dirty {
		if err := m.store.Save(ctx, tx.session); err != nil {
			m.loggerFor(ctx, "Turn", identity).ErrorContext(ctx, "failed to save session", "error", err)
			if fnErr == nil {
				fnErr = fmt.Errorf("session: save %q: %w", identity, err)
			}
		}
	}
	return fnErr
}

// load yields a fresh idle session when no record exists.
func (m *Manager) load(ctx context.Context, identity string) (Session, bool, error) {
	s, ok, err := m.store.Load(ctx, identity)
	if err != nil {
		return Session{}, false, err
	}
	if !ok {
		return New(identity, m.now()), false, nil
	}
	return s, true, nil
}

// GetOrCreate returns the session for identity, creating an idle one if needed.
func (m *Manager) GetOrCreate(ctx context.Context, identity string) Session {
	var out Session
	if err := m.Turn(ctx, identity, func(tx *Tx) error {
		out = tx.Session()
		return nil
	}); err != nil {
		m.loggerFor(ctx, "GetOrCreate", identity).WarnContext(ctx, "session lookup degraded", "error", err)
		return New(identity, m.now())
	}
	return out
}

// SetState moves identity to state, rewinding the step.
func (m *Manager) SetState(ctx context.Context, identity string, state State) error {
	return m.Turn(ctx, identity, func(tx *Tx) error {
		tx.SetState(state)
		return nil
	})
}

// AdvanceStep moves identity to the next step.
func (m *Manager) AdvanceStep(ctx context.Context, identity string) error {
	return m.Turn(ctx, identity, func(tx *Tx) error {
		tx.AdvanceStep()
		return nil
	})
}

// PutField stores a captured value for identity.
func (m *Manager) PutField(ctx context.Context, identity, key, value string) error {
	return m.Turn(ctx, identity, func(tx *Tx) error {
		tx.Put(key, value)
		return nil
	})
}

// GetField returns a captured value for identity.
func (m *Manager) GetField(ctx context.Context, identity, key string) (string, bool) {
	return m.GetOrCreate(ctx, identity).Get(key)
}

// Reset returns identity to idle with no data.
func (m *Manager) Reset(ctx context.Context, identity string) error {
	return m.Turn(ctx, identity, func(tx *Tx) error {
		tx.Reset()
		return nil
	})
}

// IsActive reports whether identity is mid-conversation.
func (m *Manager) IsActive(ctx context.Context, identity string) bool {
	return m.GetOrCreate(ctx, identity).IsActive()
}

// SweepExpired deletes every session whose last activity plus timeout is
// before now. Sessions with a turn in flight are skipped and picked up by a
// later sweep. It returns the number of deleted sessions.
func (m *Manager) SweepExpired(ctx context.Context, now time.Time, timeout time.Duration) (int, error) {
	candidates, err := m.store.IdleSince(ctx, now.Add(-timeout))
	if err != nil {
		return 0, fmt.Errorf("session: list idle: %w", err)
	}

	removed := 0
	for _, identity := range candidates {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		ok, err := m.sweepOne(ctx, identity, now, timeout)
		if err != nil {
			m.loggerFor(ctx, "SweepExpired", identity).WarnContext(ctx, "failed to expire session", "error", err)
			continue
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

func (m *Manager) sweepOne(ctx context.Context, identity string, now time.Time, timeout time.Duration) (bool, error) {
	unlock, ok := m.locks.TryLock(identity)
	if !ok {
		return false, nil
	}
	defer unlock()

	s, found, err := m.store.Load(ctx, identity)
	if err != nil || !found {
		return false, err
	}
	// A turn may have refreshed the record between listing and locking.
	if !s.Expired(now, timeout) {
		return false, nil
	}
	if err := m.store.Delete(ctx, identity); err != nil {
		return false, err
	}
	return true, nil
}
