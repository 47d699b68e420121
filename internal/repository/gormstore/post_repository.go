package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"blog-backend/internal/domain"
	"blog-backend/internal/repository"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) CreateForAuthor(ctx context.Context, post *domain.Post, authorEmail string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author domain.User
		if err := tx.Where("email = ?", authorEmail).First(&author).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("author %s: %w", authorEmail, repository.ErrNotFound)
			}
			return fmt.Errorf("query author: %w", err)
		}

		post.AuthorID = author.ID
		post.Published = false
		post.ViewCount = 0
		if err := tx.Omit("Author").Create(post).Error; err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		return nil
	})
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	var post domain.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, postError(err)
	}
	return &post, nil
}

// IncrementViews bumps the counter with a single UPDATE so concurrent
// callers never lose an increment.
func (r *PostRepository) IncrementViews(ctx context.Context, id int64) (*domain.Post, error) {
	return r.updateAndFetch(ctx, id, map[string]interface{}{
		"view_count": gorm.Expr("view_count + ?", 1),
	})
}

func (r *PostRepository) Publish(ctx context.Context, id int64) (*domain.Post, error) {
	return r.updateAndFetch(ctx, id, map[string]interface{}{
		"published": true,
	})
}

func (r *PostRepository) updateAndFetch(ctx context.Context, id int64, values map[string]interface{}) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		values["updated_at"] = tx.NowFunc()
		res := tx.Model(&domain.Post{}).Where("id = ?", id).Updates(values)
		if res.Error != nil {
			return fmt.Errorf("update post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("post %d: %w", id, repository.ErrNotFound)
		}
		if err := tx.First(&post, id).Error; err != nil {
			return postError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepository) Delete(ctx context.Context, id int64) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return postError(err)
		}
		if err := tx.Delete(&domain.Post{}, id).Error; err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepository) ListDrafts(ctx context.Context, authorID int64) ([]domain.Post, error) {
	posts := []domain.Post{}
	err := r.db.WithContext(ctx).
		Where("author_id = ? AND published = ?", authorID, false).
		Order("id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("query drafts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) List(ctx context.Context) ([]domain.Post, error) {
	posts := []domain.Post{}
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) Feed(ctx context.Context, query domain.FeedQuery) ([]domain.Post, error) {
	posts := []domain.Post{}
	tx := applyFeedQuery(r.db.WithContext(ctx).Model(&domain.Post{}), query)
	if err := tx.Preload("Author").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}
	return posts, nil
}

func postError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("post: %w", repository.ErrNotFound)
	}
	return fmt.Errorf("query post: %w", err)
}
