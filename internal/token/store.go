package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store holds the live join tokens per session: the current one and the
// immediately superseded one. Anything older is gone for good.
type Store interface {
	// Install makes tok the current token for the session, demoting the
	// prior current token to previous.
	Install(ctx context.Context, sessionID, tok string) error
	// Valid reports whether tok matches the session's current or previous
	// token. The one-rotation grace covers students who scanned just before
	// a rotation.
	Valid(ctx context.Context, sessionID, tok string) (bool, error)
}

// Generate returns a fresh high-entropy urlsafe token. 32 random bytes; no
// relationship to any previously issued value.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// installScript shifts current to previous and sets the new current token in
// one atomic step, so a concurrently validating check-in never observes a
// half-rotated state.
var installScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'cur')
if cur then
  redis.call('HSET', KEYS[1], 'prev', cur)
end
redis.call('HSET', KEYS[1], 'cur', ARGV[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return 1
`)

// RedisStore keeps tokens in a redis hash per session.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store; ttl bounds how long tokens outlive the last
// rotation once the instructor walks away.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return "rollcall:jointoken:" + sessionID
}

// Install makes tok the current token for the session.
func (s *RedisStore) Install(ctx context.Context, sessionID, tok string) error {
	return installScript.Run(ctx, s.client, []string{s.key(sessionID)}, tok, int(s.ttl.Seconds())).Err()
}

// Valid checks tok against the current and previous tokens.
func (s *RedisStore) Valid(ctx context.Context, sessionID, tok string) (bool, error) {
	if tok == "" {
		return false, nil
	}
	vals, err := s.client.HMGet(ctx, s.key(sessionID), "cur", "prev").Result()
	if err != nil {
		return false, err
	}
	for _, v := range vals {
		if str, ok := v.(string); ok && str == tok {
			return true, nil
		}
	}
	return false, nil
}

// MemStore is an in-memory Store for development and tests.
type MemStore struct {
	mu     sync.Mutex
	tokens map[string][2]string // session id -> {current, previous}
}

// NewMemStore creates an empty in-memory token store.
func NewMemStore() *MemStore {
	return &MemStore{tokens: make(map[string][2]string)}
}

// Install makes tok the current token for the session.
func (s *MemStore) Install(_ context.Context, sessionID, tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := s.tokens[sessionID]
	s.tokens[sessionID] = [2]string{tok, pair[0]}
	return nil
}

// Valid checks tok against the current and previous tokens.
func (s *MemStore) Valid(_ context.Context, sessionID, tok string) (bool, error) {
	if tok == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := s.tokens[sessionID]
	return tok == pair[0] || (pair[1] != "" && tok == pair[1]), nil
}
