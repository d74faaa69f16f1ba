package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "10.0.0.7", ClientIP(r, false).String(), "headers ignored without trust")
	assert.Equal(t, "203.0.113.9", ClientIP(r, true).String())

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-Ip", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", ClientIP(r, true).String())
}

func TestEnricher_AttachesInfo(t *testing.T) {
	var got *RequestInfo
	h := (&Enricher{}).Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/leistungen", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	r.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	r.Header.Set("Accept-Language", "de-DE;q=0.9, en;q=0.5")
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.NotNil(t, got)
	assert.True(t, got.UA.IsBot)
	assert.Equal(t, "de-de", got.UA.PrimaryLang)
	assert.Equal(t, "192.0.2.1", got.Geo.IP.String())
	assert.Empty(t, got.Geo.CountryISO, "no GeoDB configured")
}

func TestParseUA_Desktop(t *testing.T) {
	ua := ParseUA("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36", "")
	assert.Equal(t, "Chrome", ua.Browser)
	assert.Equal(t, "124", ua.Version)
	assert.Equal(t, "Desktop", ua.Device)
	assert.False(t, ua.IsBot)
}
