package audit

import (
	"strings"
)

// extractResource returns the resource family of an API path.
// /api/upload/ is "payout", /api/aop/... is "aop", /api/accounts/... is
// "accounts", /api/auth/... is "auth".
func extractResource(path string) string {
	parts := splitPath(path)
	if len(parts) < 2 || parts[0] != "api" {
		return ""
	}
	switch parts[1] {
	case "upload", "raw-data", "summary", "pdf", "latest-file":
		return "payout"
	}
	return parts[1]
}

// extractResourceIDs returns the ids addressed by a path, such as the target
// id in /api/aop/{id}/.
func extractResourceIDs(path string) []string {
	parts := splitPath(path)
	if len(parts) < 3 || parts[0] != "api" {
		return nil
	}
	switch parts[1] {
	case "aop":
		if parts[2] != "upload" {
			return []string{parts[2]}
		}
	case "pdf":
		return []string{parts[2]}
	}
	return nil
}

// extractAction returns a human-readable action name from the HTTP method and path.
func extractAction(method, path string) string {
	parts := splitPath(path)
	if len(parts) >= 2 && parts[0] == "api" {
		last := parts[len(parts)-1]
		switch {
		case last == "upload" && parts[1] == "accounts":
			return "upload-roster"
		case last == "upload":
			return "upload"
		case parts[1] == "auth":
			return last
		}
	}

	switch method {
	case "POST":
		return "create"
	case "PUT":
		return "update"
	case "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

// isAuditedRequest returns true if the request should be audited. Mutating
// methods are audited; reads are not.
func isAuditedRequest(method, path string) bool {
	if isHealthEndpoint(path) {
		return false
	}
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

// isHealthEndpoint returns true for health-check paths.
func isHealthEndpoint(path string) bool {
	switch path {
	case "/livez", "/readyz", "/healthz", "/metrics":
		return true
	}
	return false
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
