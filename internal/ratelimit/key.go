package ratelimit

import "fmt"

// TrustedEdgeHeader is the single-valued header set by the trusted
// ingress proxy. Client-settable headers (X-Forwarded-For, X-Real-IP)
// must never be consulted here — per spec §4.E, accepting them lets a
// client bypass the limiter by varying the header per request.
const TrustedEdgeHeader = "X-Envoy-External-Address"

// Key derives the admission key for a request: an authenticated
// principal always wins; otherwise the trusted IP, preferring the edge
// header over the raw transport peer address.
func Key(userID int64, authenticated bool, edgeHeaderValue, peerAddr string) string {
	if authenticated {
		return fmt.Sprintf("user:%d", userID)
	}
	trustedIP := edgeHeaderValue
	if trustedIP == "" {
		trustedIP = peerAddr
	}
	return "ip:" + trustedIP
}
