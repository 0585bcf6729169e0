package sqlite

import (
	"context"
	"time"

	"github.com/example/standup-bot/internal/persistence"
)

// ConversationRepository stores chat sessions in the conversations table.
type ConversationRepository struct {
	q      querier
	mapper *ErrorMapper
	retry  *RetryHelper
}

var _ persistence.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a repository bound to pool.
func NewConversationRepository(pool *ConnectionPool) *ConversationRepository {
	return &ConversationRepository{
		q:      pool.DB(),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// GetConversation loads one session record.
func (r *ConversationRepository) GetConversation(ctx context.Context, identity string) (persistence.Conversation, error) {
	var (
		c     persistence.Conversation
		nanos int64
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT identity, state, step, data, last_activity FROM conversations WHERE identity = ?`, identity,
	).Scan(&c.Identity, &c.State, &c.Step, &c.Data, &nanos)
	if err != nil {
		return persistence.Conversation{}, r.mapper.MapError(err)
	}
	c.LastActivity = time.Unix(0, nanos).UTC()
	return c, nil
}

// SaveConversation writes the whole record, replacing any previous version.
func (r *ConversationRepository) SaveConversation(ctx context.Context, c persistence.Conversation) error {
	if c.Identity == "" {
		return persistence.ErrConstraintViolation
	}
	data := c.Data
	if data == nil {
		data = []byte{}
	}
	return r.retry.WithRetry(ctx, func() error {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO conversations (identity, state, step, data, last_activity)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(identity) DO UPDATE SET
				state = excluded.state,
				step = excluded.step,
				data = excluded.data,
				last_activity = excluded.last_activity`,
			c.Identity, c.State, c.Step, data, c.LastActivity.UnixNano(),
		)
		return r.mapper.MapError(err)
	})
}

// DeleteConversation removes a record. Deleting a missing record is not an error.
func (r *ConversationRepository) DeleteConversation(ctx context.Context, identity string) error {
	return r.retry.WithRetry(ctx, func() error {
		_, err := r.q.ExecContext(ctx, `DELETE FROM conversations WHERE identity = ?`, identity)
		return r.mapper.MapError(err)
	})
}

// ListIdleConversations returns identities whose last activity is before cutoff.
func (r *ConversationRepository) ListIdleConversations(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT identity FROM conversations WHERE last_activity < ? ORDER BY last_activity`, cutoff.UnixNano())
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var identities []string
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, r.mapper.MapError(err)
		}
		identities = append(identities, identity)
	}
	return identities, r.mapper.MapError(rows.Err())
}
