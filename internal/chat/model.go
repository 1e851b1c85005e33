package chat

import "time"

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultTitle names a conversation until its first message is summarized.
const DefaultTitle = "New Conversation"

// Conversation groups the messages of one chat thread.
type Conversation struct {
	ID        int64
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is an immutable turn in a conversation.
type Message struct {
	ID                  int64
	ConversationID      int64
	Role                Role
	Content             string
	DocumentsReferenced []int64
	CreatedAt           time.Time
}

// Citation points an answer at one of the user's documents.
type Citation struct {
	DocumentID int64  `json:"documentId"`
	Relevance  string `json:"relevance"`
}

// Turn is the outcome of SendMessage.
type Turn struct {
	Conversation     Conversation
	UserMessage      Message
	AssistantMessage Message
	Citations        []Citation
}
