package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]Document
	now    func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[int64]Document),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) ForUser(userID string) Scoped {
	return memoryScoped{repo: r, userID: userID}
}

// ClaimGuest reassigns documents owned by a guest user to an authenticated user.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := 0
	for id, doc := range r.data {
		if doc.UserID == guestUserID {
			doc.UserID = userID
			doc.UpdatedAt = r.now()
			r.data[id] = doc
			moved++
		}
	}
	return moved, nil
}

type memoryScoped struct {
	repo   *MemoryRepo
	userID string
}

func (s memoryScoped) UserID() string { return s.userID }

func (s memoryScoped) Create(ctx context.Context, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r := s.repo
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	doc.ID = r.nextID
	doc.UserID = s.userID
	doc.normalize()
	now := r.now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	r.data[doc.ID] = doc
	return doc, nil
}

func (s memoryScoped) Get(ctx context.Context, id int64) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.repo.mu.RLock()
	defer s.repo.mu.RUnlock()
	doc, ok := s.repo.data[id]
	if !ok || doc.UserID != s.userID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (s memoryScoped) List(ctx context.Context, filter Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	s.repo.mu.RLock()
	out := make([]Document, 0)
	for _, doc := range s.repo.data {
		if doc.UserID == s.userID && filter.Matches(doc) {
			out = append(out, doc)
		}
	}
	s.repo.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s memoryScoped) ListAll(ctx context.Context) ([]Document, error) {
	return s.List(ctx, Filter{})
}

func (s memoryScoped) Delete(ctx context.Context, id int64) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()
	doc, ok := s.repo.data[id]
	if !ok || doc.UserID != s.userID {
		return Document{}, ErrNotFound
	}
	delete(s.repo.data, id)
	return doc, nil
}

var _ Repo = (*MemoryRepo)(nil)
