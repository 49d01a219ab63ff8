package provider

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RealIP replaces r.RemoteAddr with the address reported in X-Real-IP or
// X-Forwarded-For, but only when the request arrives from a trusted proxy.
// With no trusted proxies it passes requests through untouched.
func RealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			peer, ok := parseIP(clientIP(r))
			if ok && isTrusted(peer, trusted) {
				if ip, ok := forwardedFor(r, trusted); ok {
					r.RemoteAddr = net.JoinHostPort(ip.String(), "0")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// forwardedFor prefers X-Real-IP, then the right-most X-Forwarded-For hop
// that is not itself a trusted proxy.
func forwardedFor(r *http.Request, trusted []netip.Prefix) (netip.Addr, bool) {
	if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
		return ip, true
	}

	xff := r.Header.Values("X-Forwarded-For")
	var hops []string
	for _, v := range xff {
		hops = append(hops, strings.Split(v, ",")...)
	}

	var first netip.Addr
	for i := len(hops) - 1; i >= 0; i-- {
		ip, ok := parseIP(hops[i])
		if !ok {
			return netip.Addr{}, false
		}
		if !isTrusted(ip, trusted) {
			return ip, true
		}
		first = ip
	}
	return first, first.IsValid()
}

func parseIP(s string) (netip.Addr, bool) {
	ip, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

func isTrusted(ip netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
