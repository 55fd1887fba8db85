package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const sessionTimeLayout = "20060102_150405"

// Session captures a conversation transcript keyed by a creation-time derived id.
type Session struct {
	ID    string `json:"id"`
	Turns []Turn `json:"turns"`
}

// NewSessionID derives a session id from t. The random suffix keeps ids distinct when two
// sessions start within the same second.
func NewSessionID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return t.UTC().Format(sessionTimeLayout) + "_" + suffix
}

// ValidSessionID reports whether id is safe to use as a storage key.
func ValidSessionID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
