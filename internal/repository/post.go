package repository

import (
	"context"

	"blog-backend/internal/domain"
)

// PostRepository exposes persistence operations for Post records.
type PostRepository interface {
	// CreateForAuthor resolves the author by email and inserts the post in
	// one transaction. ErrNotFound is returned when no such author exists.
	CreateForAuthor(ctx context.Context, post *domain.Post, authorEmail string) error
	Get(ctx context.Context, id int64) (*domain.Post, error)
	IncrementViews(ctx context.Context, id int64) (*domain.Post, error)
	Publish(ctx context.Context, id int64) (*domain.Post, error)
	Delete(ctx context.Context, id int64) (*domain.Post, error)
	ListDrafts(ctx context.Context, authorID int64) ([]domain.Post, error)
	List(ctx context.Context) ([]domain.Post, error)
	Feed(ctx context.Context, query domain.FeedQuery) ([]domain.Post, error)
}
