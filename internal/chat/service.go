package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"medvault-backend/internal/documents"
	"medvault-backend/internal/llm"
	"medvault-backend/internal/shared/metrics"
	"medvault-backend/internal/shared/telemetry"
	"medvault-backend/internal/usage"
)

const (
	historyLimit  = 10
	titleMaxRunes = 50
)

// Quota charges model calls against a user's allowance.
type Quota interface {
	Consume(ctx context.Context, userID string, n int) (usage.Usage, error)
}

// Service answers questions about a user's documents.
type Service struct {
	Repo      Repo
	Documents documents.Repo
	LLM       llm.Client
	Model     string
	// Usage is optional; nil means unmetered.
	Usage Quota
}

// SendMessage runs one chat turn. When conversationID is nil a new
// conversation is started. The user message is stored before the model is
// called, so it survives a model failure; the assistant message does not.
func (s *Service) SendMessage(ctx context.Context, userID string, conversationID *int64, content string) (Turn, error) {
	content = strings.TrimSpace(content)
	if userID == "" || content == "" {
		return Turn{}, ErrInvalidInput
	}
	scoped := s.Repo.ForUser(userID)

	var conv Conversation
	if conversationID != nil {
		var err error
		if conv, err = scoped.GetConversation(ctx, *conversationID); err != nil {
			return Turn{}, err
		}
	}

	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, userID, 1); err != nil {
			if errors.Is(err, usage.ErrLimitReached) {
				metrics.IncChatTurn("limit_reached")
			}
			return Turn{}, err
		}
	}

	if conversationID == nil {
		var err error
		if conv, err = scoped.CreateConversation(ctx, DefaultTitle); err != nil {
			return Turn{}, err
		}
	}

	userMsg, err := scoped.AppendMessage(ctx, Message{ConversationID: conv.ID, Role: RoleUser, Content: content})
	if err != nil {
		return Turn{}, err
	}
	turn := Turn{Conversation: conv, UserMessage: userMsg}

	var (
		history []Message
		docs    []documents.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = scoped.RecentMessages(gctx, conv.ID, userMsg.ID, historyLimit)
		return err
	})
	g.Go(func() error {
		var err error
		docs, err = s.Documents.ForUser(userID).ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return turn, fmt.Errorf("load chat context: %w", err)
	}

	client := s.LLM
	if client == nil {
		client = llm.Disabled{}
	}
	resp, err := client.Generate(ctx, llm.Request{
		Operation: "chat",
		Model:     s.Model,
		System:    buildSystemPrompt(docs),
		Messages:  toLLMMessages(history, content),
		JSON:      true,
	})
	if err != nil {
		metrics.IncChatTurn("model_error")
		telemetry.Error("chat.model_failed", map[string]any{
			"user_id":         userID,
			"conversation_id": conv.ID,
			"error":           err.Error(),
		})
		return turn, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	answer, cited := parseAnswer(resp.Text)
	citations := validateCitations(cited, docs)
	refs := make([]int64, 0, len(citations))
	for _, c := range citations {
		refs = append(refs, c.DocumentID)
	}

	assistantMsg, err := scoped.AppendMessage(ctx, Message{
		ConversationID:      conv.ID,
		Role:                RoleAssistant,
		Content:             answer,
		DocumentsReferenced: refs,
	})
	if err != nil {
		return turn, err
	}
	turn.AssistantMessage = assistantMsg
	turn.Citations = citations

	if len(history) == 0 {
		title := deriveTitle(content)
		if err := scoped.UpdateTitle(ctx, conv.ID, title); err != nil {
			telemetry.Warn("chat.title_update_failed", map[string]any{
				"conversation_id": conv.ID,
				"error":           err.Error(),
			})
		} else {
			turn.Conversation.Title = title
		}
	}

	metrics.IncChatTurn("ok")
	telemetry.Info("chat.turn", map[string]any{
		"user_id":         userID,
		"conversation_id": conv.ID,
		"documents":       len(docs),
		"history":         len(history),
		"citations":       len(citations),
		"dropped":         len(cited) - len(citations),
	})
	return turn, nil
}

// ListConversations returns the user's conversations, most recent first.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ForUser(userID).ListConversations(ctx)
}

// Messages returns a conversation's messages in the order they were written.
func (s *Service) Messages(ctx context.Context, userID string, conversationID int64) ([]Message, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ForUser(userID).ListMessages(ctx, conversationID)
}

// DeleteConversation removes a conversation and all of its messages.
func (s *Service) DeleteConversation(ctx context.Context, userID string, conversationID int64) error {
	if userID == "" {
		return ErrInvalidInput
	}
	return s.Repo.ForUser(userID).DeleteConversation(ctx, conversationID)
}

func toLLMMessages(history []Message, content string) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.TextMessage(role, m.Content))
	}
	return append(out, llm.TextMessage(llm.RoleUser, content))
}

type modelAnswer struct {
	Answer    string          `json:"answer"`
	Citations []modelCitation `json:"citations"`
}

type modelCitation struct {
	DocumentID json.RawMessage `json:"documentId"`
	Relevance  string          `json:"relevance"`
}

// parseAnswer reads the model's JSON reply. Anything unparseable becomes the
// answer verbatim, without citations.
func parseAnswer(raw string) (string, []Citation) {
	text := strings.TrimSpace(raw)
	obj, ok := llm.ExtractJSONObject(text)
	if !ok {
		return text, nil
	}
	var parsed modelAnswer
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return text, nil
	}
	answer := strings.TrimSpace(parsed.Answer)
	if answer == "" {
		return text, nil
	}
	citations := make([]Citation, 0, len(parsed.Citations))
	for _, c := range parsed.Citations {
		id, ok := parseDocumentID(c.DocumentID)
		if !ok {
			continue
		}
		citations = append(citations, Citation{DocumentID: id, Relevance: strings.TrimSpace(c.Relevance)})
	}
	return answer, citations
}

// parseDocumentID accepts a JSON number or a numeric string.
func parseDocumentID(raw json.RawMessage) (int64, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		id, err := n.Int64()
		return id, err == nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return id, err == nil
}

// validateCitations keeps the first citation of each document that was in
// the model's context.
func validateCitations(cited []Citation, docs []documents.Document) []Citation {
	known := make(map[int64]bool, len(docs))
	for _, d := range docs {
		known[d.ID] = true
	}
	seen := make(map[int64]bool, len(cited))
	out := make([]Citation, 0, len(cited))
	for _, c := range cited {
		if !known[c.DocumentID] || seen[c.DocumentID] {
			continue
		}
		seen[c.DocumentID] = true
		out = append(out, c)
	}
	return out
}

func deriveTitle(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= titleMaxRunes {
		return string(runes)
	}
	return string(runes[:titleMaxRunes]) + "..."
}
