package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/smartmarks/internal/logger"
	"github.com/MrSnakeDoc/smartmarks/internal/utils"
)

// EnforceHost allows requests only if the Host header matches one of the
// allowed hosts. Patterns may carry a port ("localhost:8080") or a leading
// wildcard ("*.example.com"); a pattern without a port matches any port.
// If allowedHosts is empty, it acts as a passthrough.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		log.Debug("EnforceHost: empty allowedHosts, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	patterns := make([]string, len(allowedHosts))
	for i, h := range allowedHosts {
		patterns[i] = strings.ToLower(h)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hostAllowed(strings.ToLower(r.Host), patterns) {
				log.Warn("host rejected",
					logger.String("host", r.Host),
					logger.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hostAllowed(host string, patterns []string) bool {
	bare := utils.ParseHostNoPort(host)
	for _, p := range patterns {
		if matchHost(host, p) || matchHost(bare, p) {
			return true
		}
	}
	return false
}

// matchHost checks if host matches pattern (supports wildcard *.example.com)
func matchHost(host, pattern string) bool {
	if host == pattern {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	return false
}
