package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Dan9191/mortgage-simulator/internal/models"
)

// ExtractUTM reads utm_* parameters from a query string
func ExtractUTM(q url.Values) models.UTMParams {
	return models.UTMParams{
		Source:   truncate(q.Get("utm_source"), 100),
		Medium:   truncate(q.Get("utm_medium"), 100),
		Campaign: truncate(q.Get("utm_campaign"), 100),
		Term:     truncate(q.Get("utm_term"), 100),
		Content:  truncate(q.Get("utm_content"), 100),
	}
}

// MergeUTM fills empty fields of p from fallback
func MergeUTM(p, fallback models.UTMParams) models.UTMParams {
	if p.Source == "" {
		p.Source = fallback.Source
	}
	if p.Medium == "" {
		p.Medium = fallback.Medium
	}
	if p.Campaign == "" {
		p.Campaign = fallback.Campaign
	}
	if p.Term == "" {
		p.Term = fallback.Term
	}
	if p.Content == "" {
		p.Content = fallback.Content
	}
	return p
}

// ClientIP returns the address of the client behind r. X-Forwarded-For is
// only honoured when the connection comes from one of the trusted proxies;
// the header is then walked right to left, skipping trusted hops.
func ClientIP(r *http.Request, trusted []*net.IPNet) string {
	client, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		client = r.RemoteAddr
	}

	hops := forwardedFor(r)
	for i := len(hops) - 1; i >= 0 && isTrusted(client, trusted); i-- {
		if net.ParseIP(hops[i]) == nil {
			break
		}
		client = hops[i]
	}
	return client
}

func forwardedFor(r *http.Request) []string {
	var hops []string
	for _, header := range r.Header.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(header, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}

func isTrusted(addr string, trusted []*net.IPNet) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, block := range trusted {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// HashIP pseudonymises an IP address with HMAC-SHA256
func HashIP(ip, secret string) string {
	if ip == "" {
		return ""
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
