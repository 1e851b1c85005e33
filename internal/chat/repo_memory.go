package chat

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu            sync.RWMutex
	nextConvID    int64
	nextMsgID     int64
	conversations map[int64]Conversation
	messages      map[int64][]Message
	now           func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		conversations: make(map[int64]Conversation),
		messages:      make(map[int64][]Message),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) ForUser(userID string) Scoped {
	return memoryScoped{repo: r, userID: userID}
}

// ClaimGuest reassigns conversations owned by a guest user to an authenticated user.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := 0
	for id, conv := range r.conversations {
		if conv.UserID == guestUserID {
			conv.UserID = userID
			r.conversations[id] = conv
			moved++
		}
	}
	return moved, nil
}

type memoryScoped struct {
	repo   *MemoryRepo
	userID string
}

// owned must be called with the lock held.
func (s memoryScoped) owned(id int64) (Conversation, bool) {
	conv, ok := s.repo.conversations[id]
	if !ok || conv.UserID != s.userID {
		return Conversation{}, false
	}
	return conv, true
}

func (s memoryScoped) CreateConversation(ctx context.Context, title string) (Conversation, error) {
	if err := ctx.Err(); err != nil {
		return Conversation{}, err
	}
	if title == "" {
		title = DefaultTitle
	}
	r := s.repo
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextConvID++
	now := r.now()
	conv := Conversation{ID: r.nextConvID, UserID: s.userID, Title: title, CreatedAt: now, UpdatedAt: now}
	r.conversations[conv.ID] = conv
	return conv, nil
}

func (s memoryScoped) GetConversation(ctx context.Context, id int64) (Conversation, error) {
	if err := ctx.Err(); err != nil {
		return Conversation{}, err
	}
	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()
	conv, ok := s.owned(id)
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return conv, nil
}

func (s memoryScoped) ListConversations(ctx context.Context) ([]Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.repo.mu.RLock()
	out := make([]Conversation, 0)
	for _, conv := range s.repo.conversations {
		if conv.UserID == s.userID {
			out = append(out, conv)
		}
	}
	s.repo.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s memoryScoped) UpdateTitle(ctx context.Context, id int64, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()
	conv, ok := s.owned(id)
	if !ok {
		return ErrNotFound
	}
	conv.Title = title
	conv.UpdatedAt = s.repo.now()
	s.repo.conversations[id] = conv
	return nil
}

func (s memoryScoped) DeleteConversation(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()
	if _, ok := s.owned(id); !ok {
		return ErrNotFound
	}
	delete(s.repo.conversations, id)
	delete(s.repo.messages, id)
	return nil
}

func (s memoryScoped) AppendMessage(ctx context.Context, msg Message) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	r := s.repo
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := s.owned(msg.ConversationID)
	if !ok {
		return Message{}, ErrNotFound
	}
	r.nextMsgID++
	now := r.now()
	msg.ID = r.nextMsgID
	msg.CreatedAt = now
	msg.DocumentsReferenced = append([]int64{}, msg.DocumentsReferenced...)
	r.messages[conv.ID] = append(r.messages[conv.ID], msg)
	conv.UpdatedAt = now
	r.conversations[conv.ID] = conv
	return msg, nil
}

func (s memoryScoped) ListMessages(ctx context.Context, conversationID int64) ([]Message, error) {
	return s.RecentMessages(ctx, conversationID, 0, 0)
}

func (s memoryScoped) RecentMessages(ctx context.Context, conversationID, beforeID int64, limit int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()
	if _, ok := s.owned(conversationID); !ok {
		return nil, ErrNotFound
	}
	out := make([]Message, 0)
	for _, msg := range s.repo.messages[conversationID] {
		if beforeID > 0 && msg.ID >= beforeID {
			continue
		}
		out = append(out, msg)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
