package oracle

//go:generate mockgen -destination=mock/mock_client.go -package=mockoracle . Client

import "context"

// Role is the author of a conversation message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn sent to the narration oracle
type Message struct {
	Role    Role
	Content string
}

// Client is the narration oracle. It returns the oracle's raw text reply.
type Client interface {
	Generate(ctx context.Context, messages []Message, systemPrompt string) (string, error)
}

// UserPrompt is shorthand for a single user turn
func UserPrompt(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}
