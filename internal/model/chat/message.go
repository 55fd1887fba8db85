package chat

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one utterance in a session transcript. Sentiment is only set on user turns.
type Turn struct {
	Text      string     `json:"text"`
	Role      Role       `json:"role"`
	Timestamp time.Time  `json:"timestamp"`
	Sentiment *Sentiment `json:"sentiment,omitempty"`
}

// FormattedMessage is the display projection of a turn.
type FormattedMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
