// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web imports the
// components for their side effect, calls Init(deps) on each, and mounts
// Routes() on the root router: tenant-scoped components behind the tenant
// middleware, global ones (webhook, dashboard) on the bare router.

package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Scope tells the router where to mount a component.
type Scope int

const (
	// ScopeTenant routes run after host resolution; tenant.FromContext is
	// always non-nil inside them.
	ScopeTenant Scope = iota
	// ScopeGlobal routes are host-independent.  Tenancy comes from the
	// request body or the bearer token.
	ScopeGlobal
)

// Component contract.
//
// Init receives the shared services once at startup; a component that
// cannot work with what it is given (e.g. no database) returns
// ErrUnavailable and is skipped.  Routes mounts BOTH page and API
// endpoints on r.
type Component interface {
	Name() string
	Scope() Scope
	Init(*Deps) error
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name, so mount order
// is stable across runs.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
