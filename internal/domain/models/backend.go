package models

import (
	"fmt"
	"strings"
)

// Backend selects which storage implementation feeds the dashboard.
type Backend string

const (
	BackendLocal  Backend = "local"
	BackendRemote Backend = "remote"
)

// ParseBackend resolves the configured backend name.
func ParseBackend(value string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(value))) {
	case BackendLocal:
		return BackendLocal, nil
	case BackendRemote:
		return BackendRemote, nil
	default:
		return "", fmt.Errorf("unsupported storage backend %q", value)
	}
}
