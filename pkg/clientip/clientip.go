// Package clientip identifies the caller of an HTTP request for rate limiting
// and logging.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the host part of r.RemoteAddr. Behind a trusted proxy
// mount chi's middleware.RealIP first so RemoteAddr carries the forwarded
// address; proxy headers are never read here.
func RealClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	// fe80::1%eth0 -> fe80::1
	if i := strings.IndexByte(host, '%'); i >= 0 {
		host = host[:i]
	}
	return host
}
