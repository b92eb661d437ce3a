package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/wizard"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session is one visitor's wizard.
type Session struct {
	ID        uuid.UUID    `json:"id"`
	Embed     bool         `json:"embed"`
	State     wizard.State `json:"state"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// UpdateFunc mutates a loaded session. Returning an error aborts the update
// without writing.
type UpdateFunc func(s *Session) error

// Store persists sessions in Redis. Every write refreshes the TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a session store. A non-positive ttl selects DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl, now: time.Now}
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// Create stores a new session holding the initial wizard state.
func (s *Store) Create(ctx context.Context, embed bool) (*Session, error) {
	const op = "session.create"

	now := s.now().UTC()
	sess := &Session{
		ID:        uuid.New(),
		Embed:     embed,
		State:     wizard.Reduce(wizard.Initial(), wizard.SetEmbedMode{Embed: embed}),
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode session")
	}
	if err := s.client.Set(ctx, key(sess.ID), data, s.ttl).Err(); err != nil {
		return nil, domain.FromContext(err, op, "failed to store session")
	}
	return sess, nil
}

// Get loads a session. It returns domain.ENOTFOUND for unknown or expired ids.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	const op = "session.get"

	data, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.NotFound(op, "session", id.String())
	}
	if err != nil {
		return nil, domain.FromContext(err, op, "failed to load session")
	}
	return decode(op, data)
}

// Update applies fn to the stored session inside an optimistic transaction.
// Concurrent writers cause a retry; once retries are exhausted it returns
// domain.ECONFLICT.
func (s *Store) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*Session, error) {
	const op = "session.update"
	k := key(id)

	var result *Session
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.NotFound(op, "session", id.String())
		}
		if err != nil {
			return err
		}
		sess, err := decode(op, data)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
		sess.UpdatedAt = s.now().UTC()

		out, err := json.Marshal(sess)
		if err != nil {
			return domain.Internal(err, op, "failed to encode session")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, out, s.ttl)
			return nil
		})
		if err == nil {
			result = sess
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := s.client.Watch(ctx, txf, k)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		var derr *domain.Error
		var verr *domain.ValidationError
		if errors.As(err, &derr) || errors.As(err, &verr) {
			return nil, err
		}
		return nil, domain.FromContext(err, op, "failed to update session")
	}
	return nil, domain.Conflict(op, "session was modified concurrently")
}

// Delete removes a session. It returns domain.ENOTFOUND if nothing was removed.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "session.delete"

	n, err := s.client.Del(ctx, key(id)).Result()
	if err != nil {
		return domain.FromContext(err, op, "failed to delete session")
	}
	if n == 0 {
		return domain.NotFound(op, "session", id.String())
	}
	return nil
}

func decode(op string, data []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, domain.Internal(err, op, "failed to decode session")
	}
	return &sess, nil
}
