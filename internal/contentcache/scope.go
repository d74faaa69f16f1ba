package contentcache

import (
	"context"
	"net/http"
	"sync"

	"github.com/yanizio/sitewerk/internal/metrics"
)

type scopeKey struct{}

type call struct {
	done chan struct{}
	val  []byte
	err  error
}

// scope memoises computations for the lifetime of one request.  Unlike the
// shared store it also remembers failures, so a render pass sees one
// consistent answer per key.
type scope struct {
	mu    sync.Mutex
	calls map[string]*call
}

// WithRequestScope returns a context carrying a fresh request memo.
func WithRequestScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, &scope{calls: make(map[string]*call)})
}

// RequestScope is middleware that installs a memo on every request.
func RequestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithRequestScope(r.Context())))
	})
}

func scopeFrom(ctx context.Context) *scope {
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}

func (s *scope) do(key string, fn func() ([]byte, error)) ([]byte, error) {
	s.mu.Lock()
	if c, ok := s.calls[key]; ok {
		s.mu.Unlock()
		<-c.done
		metrics.ContentCacheTotal.WithLabelValues("memo").Inc()
		return c.val, c.err
	}
	c := &call{done: make(chan struct{})}
	s.calls[key] = c
	s.mu.Unlock()

	c.val, c.err = fn()
	close(c.done)
	return c.val, c.err
}
