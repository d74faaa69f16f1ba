package middleware

import "context"

// requestProbe is filled by inner middleware and read by AccessLog.
type requestProbe struct {
	tenant string
	bot    bool
}

type probeKey struct{}

func withProbe(ctx context.Context, p *requestProbe) context.Context {
	return context.WithValue(ctx, probeKey{}, p)
}

func probeFrom(ctx context.Context) *requestProbe {
	p, _ := ctx.Value(probeKey{}).(*requestProbe)
	return p
}
