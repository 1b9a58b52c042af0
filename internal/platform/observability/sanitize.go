package observability

import "strings"

const maxLoggedRouteLength = 256

// SanitizeRoute trims a route pattern for logging. Query strings and
// fragments never belong in logs.
func SanitizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	if len(route) > maxLoggedRouteLength {
		route = route[:maxLoggedRouteLength]
	}
	if route == "" {
		return "unknown"
	}
	return route
}

// SanitizeMethod upper-cases an HTTP method and bounds its length.
func SanitizeMethod(method string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" || len(method) > 16 {
		return "UNKNOWN"
	}
	return method
}

// SanitizeSessionID reduces a cart session ID to a loggable prefix so full
// tokens never land in logs.
func SanitizeSessionID(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ""
	}
	if len(sessionID) <= 8 {
		return sessionID
	}
	return sessionID[:8] + "…"
}
