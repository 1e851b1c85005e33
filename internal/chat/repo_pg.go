package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *PGRepo) ForUser(userID string) Scoped {
	return pgScoped{db: r.DB, userID: userID}
}

// ClaimGuest reassigns conversations owned by a guest user to an authenticated user.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, userID string) (int, error) {
	return claimGuest(ctx, r.DB, guestUserID, userID)
}

// ClaimGuestTx is ClaimGuest inside a caller-owned transaction.
func (r *PGRepo) ClaimGuestTx(ctx context.Context, tx *sql.Tx, guestUserID, userID string) (int, error) {
	return claimGuest(ctx, tx, guestUserID, userID)
}

func claimGuest(ctx context.Context, db execer, guestUserID, userID string) (int, error) {
	res, err := db.ExecContext(ctx, `UPDATE chat_conversations SET user_id = $1 WHERE user_id = $2`, userID, guestUserID)
	if err != nil {
		return 0, fmt.Errorf("claim guest conversations: %w", err)
	}
	updated, _ := res.RowsAffected()
	return int(updated), nil
}

type pgScoped struct {
	db     *sql.DB
	userID string
}

func (s pgScoped) CreateConversation(ctx context.Context, title string) (Conversation, error) {
	if title == "" {
		title = DefaultTitle
	}
	conv := Conversation{UserID: s.userID, Title: title}
	err := s.db.QueryRowContext(ctx, `
INSERT INTO chat_conversations (user_id, title)
VALUES ($1, $2)
RETURNING id, created_at, updated_at`, s.userID, title).
		Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return conv, nil
}

func (s pgScoped) GetConversation(ctx context.Context, id int64) (Conversation, error) {
	var conv Conversation
	err := s.db.QueryRowContext(ctx, `
SELECT id, user_id, title, created_at, updated_at
FROM chat_conversations
WHERE id = $1 AND user_id = $2`, id, s.userID).
		Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

func (s pgScoped) ListConversations(ctx context.Context) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, title, created_at, updated_at
FROM chat_conversations
WHERE user_id = $1
ORDER BY updated_at DESC, id DESC`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := make([]Conversation, 0)
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}

func (s pgScoped) UpdateTitle(ctx context.Context, id int64, title string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE chat_conversations SET title = $1, updated_at = now()
WHERE id = $2 AND user_id = $3`, title, id, s.userID)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return requireRow(res)
}

func (s pgScoped) DeleteConversation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_conversations WHERE id = $1 AND user_id = $2`, id, s.userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return requireRow(res)
}

// AppendMessage inserts only when the conversation belongs to the owner and
// bumps its updated_at in the same statement.
func (s pgScoped) AppendMessage(ctx context.Context, msg Message) (Message, error) {
	refs := msg.DocumentsReferenced
	if refs == nil {
		refs = []int64{}
	}
	payload, err := json.Marshal(refs)
	if err != nil {
		return Message{}, err
	}
	const query = `
WITH owned AS (
    UPDATE chat_conversations SET updated_at = now()
    WHERE id = $1 AND user_id = $2
    RETURNING id
)
INSERT INTO chat_messages (conversation_id, role, content, documents_referenced)
SELECT id, $3, $4, $5 FROM owned
RETURNING id, created_at`
	err = s.db.QueryRowContext(ctx, query, msg.ConversationID, s.userID, string(msg.Role), msg.Content, payload).
		Scan(&msg.ID, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	msg.DocumentsReferenced = refs
	return msg, nil
}

func (s pgScoped) ListMessages(ctx context.Context, conversationID int64) ([]Message, error) {
	return s.RecentMessages(ctx, conversationID, 0, 0)
}

func (s pgScoped) RecentMessages(ctx context.Context, conversationID, beforeID int64, limit int) ([]Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	query := `
SELECT id, conversation_id, role, content, documents_referenced, created_at
FROM chat_messages
WHERE conversation_id = $1`
	args := []any{conversationID}
	if beforeID > 0 {
		args = append(args, beforeID)
		query += fmt.Sprintf(" AND id < $%d", len(args))
	}
	if limit > 0 {
		args = append(args, limit)
		query = fmt.Sprintf("SELECT * FROM (%s ORDER BY created_at DESC, id DESC LIMIT $%d) recent", query, len(args))
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var (
			msg  Message
			role string
			refs []byte
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &refs, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Role = Role(role)
		if len(refs) > 0 {
			if err := json.Unmarshal(refs, &msg.DocumentsReferenced); err != nil {
				return nil, fmt.Errorf("decode documents_referenced: %w", err)
			}
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
