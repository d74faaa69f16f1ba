// internal/middleware/accesslog.go
//
// One structured zap line per request: method, host, path, status, bytes,
// duration, tenant, and the bot flag from requestinfo.  5xx responses log at
// ERROR, 4xx at WARN, everything else at INFO.
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yanizio/sitewerk/internal/requestinfo"
	"github.com/yanizio/sitewerk/internal/tenant"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusWriter) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusWriter) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// AccessLog logs every request through log.  The tenant and request info
// are read back from the request seen by inner handlers, so AccessLog can
// sit outermost.
func AccessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			probe := &requestProbe{}
			next.ServeHTTP(sw, r.WithContext(withProbe(r.Context(), probe)))

			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			lvl := zapcore.InfoLevel
			switch {
			case sw.status >= 500:
				lvl = zapcore.ErrorLevel
			case sw.status >= 400:
				lvl = zapcore.WarnLevel
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("host", r.Host),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Int("bytes", sw.bytes),
				zap.Duration("dur", time.Since(start)),
			}
			if probe.tenant != "" {
				fields = append(fields, zap.String("tenant", probe.tenant))
			}
			if probe.bot {
				fields = append(fields, zap.Bool("bot", true))
			}
			log.Log(lvl, "http request", fields...)
		})
	}
}

// Probe copies tenant and bot flag into the access-log probe.  Mount it
// after tenant resolution.
func Probe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := probeFrom(r.Context()); p != nil {
			if t := tenant.FromContext(r.Context()); t != nil {
				p.tenant = t.ID
			}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				p.bot = info.UA.IsBot
			}
		}
		next.ServeHTTP(w, r)
	})
}
