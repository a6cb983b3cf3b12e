// Package middleware provides request plumbing shared by the HTTP handlers.
package middleware

import (
	"net"
	"net/http"
)

// ExtractIP returns the client IP for a request, used as the rate-limit key.
// It prefers X-Forwarded-For, then X-Real-IP, then RemoteAddr.
func ExtractIP(r *http.Request) string {
	// リバースプロキシ経由なら X-Forwarded-For の先頭がクライアント
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP parses the first address of a comma-separated list.
func parseFirstIP(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			if ip := net.ParseIP(s[:i]); ip != nil {
				return ip.String()
			}
			return ""
		}
	}
	if ip := net.ParseIP(s); ip != nil {
		return ip.String()
	}
	return ""
}
