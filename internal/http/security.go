package http

import (
	"mime"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"
)

// securityMetrics counts rejected and flagged requests. Read with
// snapshot; the counters are updated atomically.
type securityMetrics struct {
	rateLimitHits      int64
	suspiciousRequests int64
}

func (m *securityMetrics) snapshot() (rateLimitHits, suspicious int64) {
	return atomic.LoadInt64(&m.rateLimitHits), atomic.LoadInt64(&m.suspiciousRequests)
}

// trustedProxies may set X-Forwarded-For and X-Real-IP.
var trustedProxies = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
}

func isTrustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// extractClientIP returns the address rate limits and logs are keyed on.
// Forwarding headers count only when the peer is a trusted proxy; the
// X-Forwarded-For chain is walked from the right, skipping trusted hops,
// so a client cannot pick its own address by prepending entries.
func extractClientIP(r *http.Request) string {
	peer, err := netip.ParseAddrPort(r.RemoteAddr)
	var direct netip.Addr
	if err == nil {
		direct = peer.Addr()
	} else if direct, err = netip.ParseAddr(r.RemoteAddr); err != nil {
		return r.RemoteAddr
	}
	if !isTrustedProxy(direct) {
		return direct.Unmap().String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				return direct.Unmap().String()
			}
			if !isTrustedProxy(hop) || i == 0 {
				return hop.Unmap().String()
			}
		}
	}
	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.Unmap().String()
	}
	return direct.Unmap().String()
}

// probePatterns never appear in a legitimate request to this API, which
// has no file paths and takes no query parameters.
var probePatterns = []string{
	"../", "..\\", "%2e%2e", "/.", "wp-", ".php",
	"<script", "javascript:", "union select", "etc/passwd", "cmd.exe",
}

var scannerAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab",
}

// jsonRoutes take a JSON body on POST and PUT.
var jsonRoutes = map[string]bool{
	"/api/transactions": true,
	"/api/budgets":      true,
}

// suspicionReason names the first sign that r is a probe rather than a
// client of the ledger API, or returns "" for ordinary traffic. Flagged
// requests are still served; they are counted and logged.
func suspicionReason(r *http.Request) string {
	path := strings.ToLower(r.URL.EscapedPath())
	query := strings.ToLower(r.URL.RawQuery)

	for _, p := range probePatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return "probe pattern " + p
		}
	}

	switch {
	case path == "/healthz", path == "/readyz", strings.HasPrefix(path, "/api/"):
	default:
		return "outside api"
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
	default:
		return "unusual method " + r.Method
	}

	ua := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(ua, a) {
			return "scanner user agent"
		}
	}

	if (r.Method == http.MethodPost || r.Method == http.MethodPut) && jsonRoutes[path] {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
				return "non-json body"
			}
		}
	}

	if len(r.URL.String()) > 2048 {
		return "oversized url"
	}
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return "long forwarding chain"
	}
	return ""
}

// detectSuspiciousRequest counts r in metrics when suspicionReason flags it.
func detectSuspiciousRequest(r *http.Request, metrics *securityMetrics) string {
	reason := suspicionReason(r)
	if reason != "" && metrics != nil {
		atomic.AddInt64(&metrics.suspiciousRequests, 1)
	}
	return reason
}
