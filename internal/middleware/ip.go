package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// checked in order, the first public address wins
var forwardingHeaders = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// ClientIP returns the visitor address, or "" when none can be parsed.
// Forwarding headers are only consulted behind a trusted proxy, and
// private or loopback addresses in them are ignored so they cannot be
// spoofed from outside.
func ClientIP(r *http.Request, trustedProxy bool) string {
	if trustedProxy {
		for _, h := range forwardingHeaders {
			// X-Forwarded-For lists the client first
			first, _, _ := strings.Cut(r.Header.Get(h), ",")
			addr, err := netip.ParseAddr(strings.TrimSpace(first))
			if err != nil || !isPublic(addr) {
				continue
			}
			return addr.String()
		}
	}
	return remoteIP(r.RemoteAddr)
}

func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(host))
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return !addr.IsPrivate() && !addr.IsLoopback() && !addr.IsLinkLocalUnicast() && !addr.IsUnspecified()
}
