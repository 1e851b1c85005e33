package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"medvault-backend/internal/chat"
	"medvault-backend/internal/documents"
	"medvault-backend/internal/shared/storage/db"
	"medvault-backend/internal/shared/telemetry"
)

type Service struct {
	DocRepo  documents.Repo
	ChatRepo chat.Repo
}

type ClaimResult struct {
	MigratedDocuments     int `json:"migratedDocuments"`
	MigratedConversations int `json:"migratedConversations"`
}

var errMissingIDs = errors.New("guestUserID and authedUserID are required")

func NewService(docRepo documents.Repo, chatRepo chat.Repo) *Service {
	return &Service{DocRepo: docRepo, ChatRepo: chatRepo}
}

// ClaimGuest moves a guest's documents and conversations to an authenticated
// user. Both moves share one transaction when both repos are Postgres.
func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	if strings.TrimSpace(guestUserID) == "" || strings.TrimSpace(authedUserID) == "" {
		return ClaimResult{}, errMissingIDs
	}

	var (
		result ClaimResult
		err    error
	)
	docPG, docOK := s.DocRepo.(*documents.PGRepo)
	chatPG, chatOK := s.ChatRepo.(*chat.PGRepo)
	if docOK && chatOK && docPG != nil && chatPG != nil && docPG.DB != nil {
		result, err = claimWithTx(ctx, docPG, chatPG, guestUserID, authedUserID)
	} else {
		result, err = s.claimEach(ctx, guestUserID, authedUserID)
	}
	if err != nil {
		return ClaimResult{}, err
	}

	telemetry.Info("account.guest_claimed", map[string]any{
		"user_id":       authedUserID,
		"documents":     result.MigratedDocuments,
		"conversations": result.MigratedConversations,
	})
	return result, nil
}

func claimWithTx(ctx context.Context, docPG *documents.PGRepo, chatPG *chat.PGRepo, guestUserID, authedUserID string) (ClaimResult, error) {
	var result ClaimResult
	err := db.WithTx(ctx, docPG.DB, func(tx *sql.Tx) error {
		var err error
		if result.MigratedDocuments, err = docPG.ClaimGuestTx(ctx, tx, guestUserID, authedUserID); err != nil {
			return err
		}
		result.MigratedConversations, err = chatPG.ClaimGuestTx(ctx, tx, guestUserID, authedUserID)
		return err
	})
	if err != nil {
		return ClaimResult{}, err
	}
	return result, nil
}

func (s *Service) claimEach(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	var result ClaimResult
	var err error
	if s.DocRepo != nil {
		if result.MigratedDocuments, err = s.DocRepo.ClaimGuest(ctx, guestUserID, authedUserID); err != nil {
			return ClaimResult{}, err
		}
	}
	if s.ChatRepo != nil {
		if result.MigratedConversations, err = s.ChatRepo.ClaimGuest(ctx, guestUserID, authedUserID); err != nil {
			return ClaimResult{}, err
		}
	}
	return result, nil
}
