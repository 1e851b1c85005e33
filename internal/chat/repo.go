package chat

import "context"

// Repo hands out per-user views of conversations and their messages.
type Repo interface {
	ForUser(userID string) Scoped
	// ClaimGuest moves every conversation of guestUserID to userID.
	ClaimGuest(ctx context.Context, guestUserID, userID string) (int, error)
}

// Scoped is the chat store restricted to one owner. Conversations of other
// users are reported as ErrNotFound.
type Scoped interface {
	CreateConversation(ctx context.Context, title string) (Conversation, error)
	GetConversation(ctx context.Context, id int64) (Conversation, error)
	// ListConversations returns the owner's conversations, most recently updated first.
	ListConversations(ctx context.Context) ([]Conversation, error)
	UpdateTitle(ctx context.Context, id int64, title string) error
	// DeleteConversation removes the conversation and its messages.
	DeleteConversation(ctx context.Context, id int64) error

	// AppendMessage stores msg and bumps the conversation's updated time.
	AppendMessage(ctx context.Context, msg Message) (Message, error)
	// ListMessages returns every message in ascending order.
	ListMessages(ctx context.Context, conversationID int64) ([]Message, error)
	// RecentMessages returns up to limit messages older than beforeID, in
	// ascending order.
	RecentMessages(ctx context.Context, conversationID, beforeID int64, limit int) ([]Message, error)
}
