package documents

import "context"

// Repo hands out per-user views of the document table. Every read or write
// goes through a Scoped view, so ownership is part of each call's shape.
type Repo interface {
	ForUser(userID string) Scoped
	// ClaimGuest moves every document of guestUserID to userID.
	ClaimGuest(ctx context.Context, guestUserID, userID string) (int, error)
}

// Scoped is the document store restricted to one owner. Documents of other
// users are reported as ErrNotFound.
type Scoped interface {
	UserID() string
	Create(ctx context.Context, doc Document) (Document, error)
	Get(ctx context.Context, id int64) (Document, error)
	// List returns matching documents, newest first.
	List(ctx context.Context, filter Filter) ([]Document, error)
	ListAll(ctx context.Context) ([]Document, error)
	// Delete removes the row and returns it so callers can clean up storage.
	Delete(ctx context.Context, id int64) (Document, error)
}
