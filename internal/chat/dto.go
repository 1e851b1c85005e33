package chat

import "time"

type sendMessageRequest struct {
	ConversationID *int64 `json:"conversationId"`
	Message        string `json:"message"`
}

// MessageResponse is the outward-facing representation of a message.
type MessageResponse struct {
	ID                  int64     `json:"id"`
	ConversationID      int64     `json:"conversationId"`
	Role                string    `json:"role"`
	Content             string    `json:"content"`
	DocumentsReferenced []int64   `json:"documentsReferenced"`
	CreatedAt           time.Time `json:"createdAt"`
}

// ConversationResponse is the outward-facing representation of a conversation.
type ConversationResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TurnResponse is the body of POST /chat/message.
type TurnResponse struct {
	ConversationID   int64           `json:"conversationId"`
	Title            string          `json:"title"`
	UserMessage      MessageResponse `json:"userMessage"`
	AssistantMessage MessageResponse `json:"assistantMessage"`
	Citations        []Citation      `json:"citations"`
}

func toMessageResponse(m Message) MessageResponse {
	refs := m.DocumentsReferenced
	if refs == nil {
		refs = []int64{}
	}
	return MessageResponse{
		ID:                  m.ID,
		ConversationID:      m.ConversationID,
		Role:                string(m.Role),
		Content:             m.Content,
		DocumentsReferenced: refs,
		CreatedAt:           m.CreatedAt,
	}
}

func toConversationResponse(c Conversation) ConversationResponse {
	return ConversationResponse{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func toTurnResponse(t Turn) TurnResponse {
	citations := t.Citations
	if citations == nil {
		citations = []Citation{}
	}
	return TurnResponse{
		ConversationID:   t.Conversation.ID,
		Title:            t.Conversation.Title,
		UserMessage:      toMessageResponse(t.UserMessage),
		AssistantMessage: toMessageResponse(t.AssistantMessage),
		Citations:        citations,
	}
}
