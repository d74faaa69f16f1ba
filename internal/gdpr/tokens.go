// internal/gdpr/tokens.go
//
// One-time confirmation tokens for the forget flow.
//
// Context
//   An owner first asks for a token, then posts it back to confirm the
//   deletion.  Each tenant holds at most one pending token; issuing a new
//   one replaces the old.  Stores keep only the SHA-256 of the token, and
//   Take removes the entry in the same step it reads it, so a token can be
//   presented once whether or not it matched.
//
//   MemoryTokens serves single-instance deployments; RedisTokens uses
//   GETDEL so concurrent instances cannot both consume the same token.
//
//------------------------------------------------------------------------------

package gdpr

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore keeps the pending token hash per tenant.
type TokenStore interface {
	Put(ctx context.Context, tenantID string, hash []byte, ttl time.Duration) error
	// Take returns and removes the pending hash.  nil means none pending.
	Take(ctx context.Context, tenantID string) ([]byte, error)
}

//
// memory
//

type memToken struct {
	hash    []byte
	expires time.Time
}

// MemoryTokens is an in-process TokenStore.
type MemoryTokens struct {
	mu  sync.Mutex
	m   map[string]memToken
	now func() time.Time
}

func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{m: make(map[string]memToken), now: time.Now}
}

func (s *MemoryTokens) Put(_ context.Context, tenantID string, hash []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[tenantID] = memToken{hash: hash, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryTokens) Take(_ context.Context, tenantID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.m[tenantID]
	if !ok {
		return nil, nil
	}
	delete(s.m, tenantID)
	if s.now().After(t.expires) {
		return nil, nil
	}
	return t.hash, nil
}

//
// redis
//

// RedisTokens keeps hashes under <prefix>:<tenant> with a native TTL.
type RedisTokens struct {
	client *redis.Client
	prefix string
}

func NewRedisTokens(client *redis.Client, prefix string) *RedisTokens {
	return &RedisTokens{client: client, prefix: prefix}
}

func (s *RedisTokens) key(tenantID string) string { return s.prefix + ":" + tenantID }

func (s *RedisTokens) Put(ctx context.Context, tenantID string, hash []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(tenantID), hash, ttl).Err()
}

func (s *RedisTokens) Take(ctx context.Context, tenantID string) ([]byte, error) {
	b, err := s.client.GetDel(ctx, s.key(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}
