package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"medvault-backend/internal/classify"
)

func TestMemoryRepoScopesAndOrders(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	alice := repo.ForUser("alice")
	first, _ := alice.Create(ctx, Document{Title: "a", DocumentType: classify.LabReport, CreatedAt: base})
	second, _ := alice.Create(ctx, Document{Title: "b", DocumentType: "unknown", CreatedAt: base})
	third, _ := alice.Create(ctx, Document{Title: "c", DocumentType: classify.LabReport, CreatedAt: base.Add(time.Hour)})
	if _, err := repo.ForUser("bob").Create(ctx, Document{Title: "bob"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if second.DocumentType != classify.OtherType || second.ClinicalType != classify.OtherUnclassified {
		t.Fatalf("expected normalized enums, got %q %q", second.DocumentType, second.ClinicalType)
	}

	all, err := alice.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int64{third.ID, second.ID, first.ID}
	if len(all) != len(want) {
		t.Fatalf("expected %d docs, got %d", len(want), len(all))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Fatalf("position %d: expected %d, got %d", i, id, all[i].ID)
		}
	}

	labs, err := alice.List(ctx, Filter{DocumentType: classify.LabReport})
	if err != nil || len(labs) != 2 {
		t.Fatalf("expected 2 labs, got %d (%v)", len(labs), err)
	}
	if _, err := alice.List(ctx, Filter{ClinicalType: "surgery"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid filter error, got %v", err)
	}

	if _, err := repo.ForUser("bob").Get(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found across users, got %v", err)
	}
	if _, err := repo.ForUser("bob").Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found deleting across users, got %v", err)
	}
}

func TestMemoryRepoClaimGuest(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	doc, _ := repo.ForUser("guest:1").Create(ctx, Document{Title: "x"})

	moved, err := repo.ClaimGuest(ctx, "guest:1", "user-9")
	if err != nil || moved != 1 {
		t.Fatalf("expected 1 moved, got %d (%v)", moved, err)
	}
	if _, err := repo.ForUser("user-9").Get(ctx, doc.ID); err != nil {
		t.Fatalf("claimed doc not visible: %v", err)
	}
	if _, err := repo.ForUser("guest:1").Get(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("guest should no longer see doc")
	}
}
