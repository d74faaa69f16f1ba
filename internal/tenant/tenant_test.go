package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/sitewerk/internal/cms"
	"github.com/yanizio/sitewerk/internal/metrics"
	"github.com/yanizio/sitewerk/internal/section"
)

// fakeCMS answers tenantByDomain/tenantByID from a map and counts calls.
type fakeCMS struct {
	mu      sync.Mutex
	calls   int32
	err     error
	tenants map[string]Tenant // domain or "id:"+id
}

func (f *fakeCMS) FetchByQuery(_ context.Context, q cms.Query, p cms.Params) (json.RawMessage, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := p["domain"]
	if q == cms.QueryTenantByID {
		key = "id:" + p["id"]
	}
	t, ok := f.tenants[key]
	if !ok {
		return nil, nil
	}
	return json.Marshal(t)
}

// gatedCMS reads its answer from the wrapped fake, then holds the first
// call until release is closed.
type gatedCMS struct {
	*fakeCMS
	held    atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedCMS) FetchByQuery(ctx context.Context, q cms.Query, p cms.Params) (json.RawMessage, error) {
	raw, err := g.fakeCMS.FetchByQuery(ctx, q, p)
	if g.held.CompareAndSwap(false, true) {
		close(g.entered)
		<-g.release
	}
	return raw, err
}

func TestNormalizeHost(t *testing.T) {
	cases := map[string]string{
		"MuellerBau.DE":        "muellerbau.de",
		"muellerbau.de:8080":   "muellerbau.de",
		" www.muellerbau.de. ": "www.muellerbau.de",
		"[::1]:443":            "::1",
		"[::1]":                "::1",
		"":                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeHost(in), "input %q", in)
	}
}

func TestResolver_CMSWinsOverDirectory(t *testing.T) {
	f := &fakeCMS{tenants: map[string]Tenant{
		"schmidt-dach.de": {ID: "schmidt", Name: "Schmidt Dach"},
	}}
	r := &Resolver{
		CMS:       f,
		Directory: NewDirectory([]Tenant{{ID: "other", Domains: []string{"schmidt-dach.de"}}}),
	}

	got, err := r.Resolve(context.Background(), "Schmidt-Dach.de:443")
	require.NoError(t, err)
	assert.Equal(t, "schmidt", got.ID)
	assert.Equal(t, SourceCMS, got.DataSource, "data source defaults to cms")
}

func TestResolver_FallsBackToDirectoryOnCMSError(t *testing.T) {
	r := &Resolver{
		CMS: &fakeCMS{err: errors.New("dial tcp: timeout")},
		Directory: NewDirectory([]Tenant{{
			ID:         "mueller",
			Domains:    []string{"MuellerBau.de"},
			DataSource: "STATIC",
			StaticFile: "static-mueller.json",
			Sections:   []section.Type{"hero", "carousel3d", "cta"},
		}}),
	}

	got, err := r.Resolve(context.Background(), "muellerbau.de")
	require.NoError(t, err)
	assert.Equal(t, "mueller", got.ID)
	assert.True(t, got.IsStatic())
	assert.Equal(t, []section.Type{section.TypeHero, "carousel3d", section.TypeCTA}, got.Sections)
}

func TestDirectory_UnknownOnlyAllowListRendersNothing(t *testing.T) {
	d := NewDirectory([]Tenant{{ID: "m", Domains: []string{"m.de"}, Sections: []section.Type{"Hero"}}})
	ten, ok := d.ByHost("m.de")
	require.True(t, ok)
	require.NotEmpty(t, ten.Sections, "a configured allow-list is never widened")

	body := section.DecodeList([]json.RawMessage{
		json.RawMessage(`{"_type":"hero","_key":"h"}`),
		json.RawMessage(`{"_type":"faq","_key":"f"}`),
		json.RawMessage(`{"_type":"team","_key":"t"}`),
	})
	require.Len(t, body, 3)
	assert.Empty(t, section.Compose(body, ten.Sections))
}

func TestResolver_NotFound(t *testing.T) {
	r := &Resolver{CMS: &fakeCMS{}, Directory: NewDirectory(nil)}

	_, err := r.Resolve(context.Background(), "unknown.example")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_LocalhostAlias(t *testing.T) {
	r := &Resolver{
		Directory:      NewDirectory([]Tenant{{ID: "demo", Domains: []string{"demo.sitewerk.dev"}}}),
		LocalhostAlias: "demo.sitewerk.dev",
	}
	got, err := r.Resolve(context.Background(), "localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.ID)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tenants:
  - id: mueller
    name: Müller Bau GmbH
    domains: [muellerbau.de, www.muellerbau.de]
    data_source: static
    static_file: static-mueller.json
    sections: [hero, services]
  - id: ""
    name: skipped
`), 0o600))

	d, err := LoadDirectory(path)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())

	m, ok := d.ByHost("www.muellerbau.de")
	require.True(t, ok)
	assert.Equal(t, "static-mueller.json", m.StaticFile)
	assert.Equal(t, []section.Type{section.TypeHero, section.TypeServices}, m.Sections)

	empty, err := LoadDirectory(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

func TestCache_DedupesAndForgets(t *testing.T) {
	f := &fakeCMS{tenants: map[string]Tenant{
		"a.de":     {ID: "a", Domains: []string{"a.de", "www.a.de"}},
		"www.a.de": {ID: "a", Domains: []string{"a.de", "www.a.de"}},
	}}
	c := NewCache(&Resolver{CMS: f}, time.Minute, 10)
	defer c.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Get(ctx, "a.de")
		}()
	}
	wg.Wait()
	_, err := c.Get(ctx, "www.a.de")
	require.NoError(t, err)

	calls := atomic.LoadInt32(&f.calls)
	assert.LessOrEqual(t, calls, int32(8))
	assert.Equal(t, 2, c.Len())

	assert.Equal(t, 2, c.Forget("a"))
	assert.Zero(t, c.Len())

	_, _ = c.Get(ctx, "a.de")
	assert.Greater(t, atomic.LoadInt32(&f.calls), calls, "forgotten host resolves again")
}

func TestCache_ForgetDuringResolveIsNotLost(t *testing.T) {
	f := &fakeCMS{tenants: map[string]Tenant{"s.de": {ID: "s", Name: "old"}}}
	g := &gatedCMS{fakeCMS: f, entered: make(chan struct{}), release: make(chan struct{})}
	c := NewCache(&Resolver{CMS: g}, time.Minute, 10)
	defer c.Close()
	ctx := context.Background()

	first := make(chan *Tenant, 1)
	go func() {
		ten, err := c.Get(ctx, "s.de")
		assert.NoError(t, err)
		first <- ten
	}()

	<-g.entered
	assert.Zero(t, c.Forget("s"), "nothing cached yet")

	f.mu.Lock()
	f.tenants["s.de"] = Tenant{ID: "s", Name: "new"}
	f.mu.Unlock()
	close(g.release)

	assert.Equal(t, "old", (<-first).Name, "in-flight callers still get their answer")
	assert.Zero(t, c.Len(), "superseded resolve is not stored")

	got, err := c.Get(ctx, "s.de")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
}

func TestCache_ForgetCountsOnlyWhatItRemoves(t *testing.T) {
	f := &fakeCMS{tenants: map[string]Tenant{
		"a.de":     {ID: "a"},
		"www.a.de": {ID: "a"},
	}}
	c := NewCache(&Resolver{CMS: f}, time.Minute, 10)
	defer c.Close()
	ctx := context.Background()

	before := testutil.ToFloat64(metrics.ActiveTenants)
	for _, h := range []string{"a.de", "www.a.de"} {
		_, err := c.Get(ctx, h)
		require.NoError(t, err)
	}
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.ActiveTenants))

	// The evictor got to one key first.
	_, ok := c.m.LoadAndDelete("a.de")
	require.True(t, ok)
	metrics.ActiveTenants.Dec()

	assert.Equal(t, 1, c.Forget("a"))
	assert.Zero(t, c.Forget("a"))
	assert.Equal(t, before, testutil.ToFloat64(metrics.ActiveTenants))
}

func TestCache_MissesAreNotStored(t *testing.T) {
	f := &fakeCMS{tenants: map[string]Tenant{}}
	c := NewCache(&Resolver{CMS: f}, time.Minute, 10)
	defer c.Close()

	_, err := c.Get(context.Background(), "new.de")
	assert.ErrorIs(t, err, ErrNotFound)

	f.mu.Lock()
	f.tenants["new.de"] = Tenant{ID: "new"}
	f.mu.Unlock()

	got, err := c.Get(context.Background(), "new.de")
	require.NoError(t, err)
	assert.Equal(t, "new", got.ID)
}

func TestCache_EvictIdleAndLRU(t *testing.T) {
	f := &fakeCMS{tenants: map[string]Tenant{
		"a.de": {ID: "a"}, "b.de": {ID: "b"}, "c.de": {ID: "c"},
	}}
	c := NewCache(&Resolver{CMS: f}, time.Hour, 2)
	defer c.Close()
	ctx := context.Background()

	for _, h := range []string{"a.de", "b.de", "c.de"} {
		_, err := c.Get(ctx, h)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	c.evict(time.Now())
	assert.Equal(t, 2, c.Len())
	_, stillThere := c.m.Load("a.de")
	assert.False(t, stillThere, "oldest entry evicted first")

	c.evict(time.Now().Add(2 * time.Hour))
	assert.Zero(t, c.Len())
}

func TestMiddleware_HostAndPathTenancy(t *testing.T) {
	c := NewCache(&Resolver{Directory: NewDirectory([]Tenant{
		{ID: "mueller", Domains: []string{"muellerbau.de"}},
	})}, time.Minute, 10)
	defer c.Close()

	var gotTenant, gotPath string
	h := Middleware(c, "/sites", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = FromContext(r.Context()).ID
		gotPath = r.URL.Path
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://muellerbau.de/leistungen", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mueller", gotTenant)
	assert.Equal(t, "/leistungen", gotPath)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://preview.sitewerk.dev/sites/mueller/projekte/halle", nil))
	assert.Equal(t, "mueller", gotTenant)
	assert.Equal(t, "/projekte/halle", gotPath)

	gotTenant = ""
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://nobody.example/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, gotTenant)
}

func TestMiddleware_PathTenancyUnderMountedRouter(t *testing.T) {
	c := NewCache(&Resolver{Directory: NewDirectory([]Tenant{{ID: "mueller"}})}, time.Minute, 10)
	defer c.Close()

	site := chi.NewRouter()
	site.Use(Middleware(c, "/sites", nil))
	site.Get("/leistungen/{slug}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(FromContext(r.Context()).ID + ":" + chi.URLParam(r, "slug")))
	})
	root := chi.NewRouter()
	root.Get("/metrics", func(http.ResponseWriter, *http.Request) {})
	root.Mount("/", site)

	rec := httptest.NewRecorder()
	root.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://preview.sitewerk.dev/sites/mueller/leistungen/dach", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mueller:dach", rec.Body.String())
}
