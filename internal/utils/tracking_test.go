package utils

import (
	"net"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/mortgage-simulator/internal/models"
)

func TestExtractUTM(t *testing.T) {
	q, _ := url.ParseQuery("utm_source=instagram&utm_medium=social&utm_campaign=spring&other=1&utm_content=" + strings.Repeat("x", 150))
	utm := ExtractUTM(q)

	assert.Equal(t, "instagram", utm.Source)
	assert.Equal(t, "social", utm.Medium)
	assert.Equal(t, "spring", utm.Campaign)
	assert.Empty(t, utm.Term)
	assert.Len(t, utm.Content, 100)
}

func TestMergeUTM(t *testing.T) {
	got := MergeUTM(models.UTMParams{Source: "form"}, models.UTMParams{Source: "query", Medium: "cpc"})
	assert.Equal(t, models.UTMParams{Source: "form", Medium: "cpc"}, got)
}

func TestExtractUTM_KeepsRunesWhole(t *testing.T) {
	q := url.Values{"utm_campaign": {"a" + strings.Repeat("é", 60)}}
	utm := ExtractUTM(q)

	assert.True(t, utf8.ValidString(utm.Campaign))
	assert.Len(t, utm.Campaign, 99)
	assert.Empty(t, truncate("é", 1))
}

func TestClientIP(t *testing.T) {
	_, proxies, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)
	trusted := []*net.IPNet{proxies}

	tests := []struct {
		name    string
		remote  string
		xff     string
		trusted []*net.IPNet
		want    string
	}{
		{"no header", "192.0.2.10:5555", "", trusted, "192.0.2.10"},
		{"header from untrusted peer is ignored", "192.0.2.10:5555", "203.0.113.7", trusted, "192.0.2.10"},
		{"header ignored without trusted proxies", "10.0.0.1:5555", "203.0.113.7", nil, "10.0.0.1"},
		{"trusted proxy", "10.0.0.1:5555", "203.0.113.7", trusted, "203.0.113.7"},
		{"spoofed leftmost entry", "10.0.0.1:5555", "1.2.3.4, 203.0.113.7", trusted, "203.0.113.7"},
		{"chained trusted proxies", "10.0.0.1:5555", "203.0.113.7, 10.0.0.2", trusted, "203.0.113.7"},
		{"garbage entry", "10.0.0.1:5555", "203.0.113.7, not-an-ip", trusted, "10.0.0.1"},
		{"remote without port", "192.0.2.10", "", trusted, "192.0.2.10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, ClientIP(r, tt.trusted))
		})
	}
}

func TestHashIP(t *testing.T) {
	a := HashIP("203.0.113.7", "secret")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashIP("203.0.113.7", "secret"))
	assert.NotEqual(t, a, HashIP("203.0.113.7", "other"))
	assert.Empty(t, HashIP("", "secret"))
}
