package chatview

// Message roles as they appear in a session's history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single transcript entry. Timestamp is an RFC 3339 string, or
// empty for entries the server has not stamped yet.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// identity is the deduplication key for a message. Session history carries no
// server-assigned message ids, so identity is the full content tuple.
type identity struct {
	role      string
	content   string
	timestamp string
}

func (m Message) identity() identity {
	return identity{role: m.Role, content: m.Content, timestamp: m.Timestamp}
}
