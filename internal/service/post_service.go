package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"blog-backend/internal/domain"
	"blog-backend/internal/repository"
)

var (
	// ErrPostNotFound indicates that the addressed post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrAuthorNotFound is returned when creating a post for an unknown email.
	ErrAuthorNotFound = errors.New("author not found")
)

// PostService describes post lifecycle and read operations.
type PostService interface {
	CreatePost(ctx context.Context, title string, content *string, authorEmail string) (*domain.Post, error)
	GetPost(ctx context.Context, id int64) (*domain.Post, error)
	IncrementViews(ctx context.Context, id int64) (*domain.Post, error)
	Publish(ctx context.Context, id int64) (*domain.Post, error)
	DeletePost(ctx context.Context, id int64) (*domain.Post, error)
	Drafts(ctx context.Context, authorID int64) ([]domain.Post, error)
	Feed(ctx context.Context, params FeedParams) ([]domain.Post, error)
}

type postService struct {
	posts       repository.PostRepository
	users       repository.UserRepository
	defaultTake int
	logger      *logrus.Logger
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, defaultTake int, logger *logrus.Logger) PostService {
	if defaultTake < 0 {
		defaultTake = DefaultFeedTake
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &postService{
		posts:       posts,
		users:       users,
		defaultTake: defaultTake,
		logger:      logger,
	}
}

func (s *postService) CreatePost(ctx context.Context, title string, content *string, authorEmail string) (*domain.Post, error) {
	authorEmail = strings.TrimSpace(authorEmail)
	if authorEmail == "" {
		return nil, ErrAuthorNotFound
	}
	if title == "" {
		return nil, errors.New("title is required")
	}

	post := &domain.Post{
		Title:   title,
		Content: content,
	}
	if err := s.posts.CreateForAuthor(ctx, post, authorEmail); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAuthorNotFound, authorEmail)
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"post_id":   post.ID,
		"author_id": post.AuthorID,
	}).Info("post created")
	return post, nil
}

// GetPost returns nil without error when the post does not exist.
func (s *postService) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) IncrementViews(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.posts.IncrementViews(ctx, id)
	return post, mapPostError(err)
}

func (s *postService) Publish(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.posts.Publish(ctx, id)
	if err != nil {
		return nil, mapPostError(err)
	}
	s.logger.WithField("post_id", id).Info("post published")
	return post, nil
}

func (s *postService) DeletePost(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.posts.Delete(ctx, id)
	if err != nil {
		return nil, mapPostError(err)
	}
	s.logger.WithField("post_id", id).Info("post deleted")
	return post, nil
}

func (s *postService) Drafts(ctx context.Context, authorID int64) ([]domain.Post, error) {
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.posts.ListDrafts(ctx, authorID)
}

func (s *postService) Feed(ctx context.Context, params FeedParams) ([]domain.Post, error) {
	query := ParseFeedQuery(params, s.defaultTake)
	s.logger.WithFields(logrus.Fields{
		"search": query.Search,
		"skip":   query.Skip,
		"take":   query.Take,
		"order":  query.Order,
	}).Debug("fetching feed")
	return s.posts.Feed(ctx, query)
}

func mapPostError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPostNotFound
	}
	return err
}
