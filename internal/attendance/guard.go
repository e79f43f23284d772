package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Guard keeps a teacher from having two marks in flight at once.
type Guard interface {
	// Acquire returns ErrMarkInProgress if the teacher already holds the
	// guard. release is safe to call more than once.
	Acquire(ctx context.Context, teacherID string) (release func(), err error)
}

// MemoryGuard is an in-process in-flight flag per teacher.
type MemoryGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewMemoryGuard creates an empty guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inflight: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(ctx context.Context, teacherID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[teacherID]; busy {
		return nil, ErrMarkInProgress
	}
	g.inflight[teacherID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, teacherID)
			g.mu.Unlock()
		})
	}, nil
}

// RedisGuard shares the in-flight flag between service replicas with
// SET NX PX. The TTL bounds how long a crashed holder blocks the teacher.
type RedisGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisGuard builds a guard storing keys under prefix.
func NewRedisGuard(client *redis.Client, prefix string, ttl time.Duration) *RedisGuard {
	if prefix == "" {
		prefix = "attendance:inflight:"
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisGuard{client: client, prefix: prefix, ttl: ttl, log: zerolog.Nop()}
}

// WithLogger sets where failed releases are reported.
func (g *RedisGuard) WithLogger(l zerolog.Logger) *RedisGuard {
	g.log = l
	return g
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (g *RedisGuard) Acquire(ctx context.Context, teacherID string) (func(), error) {
	key := g.prefix + teacherID
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMarkInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
				// The key stays until its TTL runs out.
				g.log.Error().Err(err).
					Str("teacher_id", teacherID).
					Dur("ttl", g.ttl).
					Msg("release in-flight guard")
			}
		})
	}, nil
}
