package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"blog-backend/internal/domain"
	"blog-backend/internal/repository"
	"blog-backend/internal/storage"
)

// ExportOptions locates snapshots in object storage.
type ExportOptions struct {
	Bucket    string
	KeyPrefix string
}

// ExportService writes full JSON snapshots of users and posts to object storage.
type ExportService interface {
	Export(ctx context.Context) (string, error)
	List(ctx context.Context) ([]storage.ObjectInfo, error)
}

// Snapshot is the document written by Export.
type Snapshot struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Users       []SnapshotUser `json:"users"`
	Posts       []SnapshotPost `json:"posts"`
}

type SnapshotUser struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

type SnapshotPost struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Title     string    `json:"title"`
	Content   *string   `json:"content"`
	Published bool      `json:"published"`
	ViewCount int64     `json:"viewCount"`
	AuthorID  int64     `json:"authorId"`
}

type exportService struct {
	users   repository.UserRepository
	posts   repository.PostRepository
	storage storage.Service
	opts    ExportOptions
	logger  *logrus.Logger
	now     func() time.Time
}

func NewExportService(users repository.UserRepository, posts repository.PostRepository, store storage.Service, opts ExportOptions, logger *logrus.Logger) ExportService {
	if logger == nil {
		logger = logrus.New()
	}
	return &exportService{
		users:   users,
		posts:   posts,
		storage: store,
		opts:    opts,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *exportService) Export(ctx context.Context) (string, error) {
	if s.storage == nil || s.opts.Bucket == "" {
		return "", fmt.Errorf("storage service not configured")
	}

	snapshot, err := s.buildSnapshot(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := s.snapshotKey(snapshot.GeneratedAt)
	location, err := s.storage.Upload(ctx, bytes.NewReader(body), storage.UploadOptions{
		Bucket:      s.opts.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return "", err
	}

	drafts := lo.CountBy(snapshot.Posts, func(p SnapshotPost) bool { return !p.Published })
	s.logger.WithFields(logrus.Fields{
		"location": location,
		"users":    len(snapshot.Users),
		"posts":    len(snapshot.Posts),
		"drafts":   drafts,
	}).Info("snapshot exported")
	return location, nil
}

func (s *exportService) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.storage == nil || s.opts.Bucket == "" {
		return nil, fmt.Errorf("storage service not configured")
	}
	prefix := strings.Trim(s.opts.KeyPrefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return s.storage.ListObjects(ctx, s.opts.Bucket, prefix)
}

func (s *exportService) buildSnapshot(ctx context.Context) (*Snapshot, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return &Snapshot{
		GeneratedAt: s.now(),
		Users: lo.Map(users, func(u domain.User, _ int) SnapshotUser {
			return SnapshotUser{ID: u.ID, Email: u.Email, Name: u.Name}
		}),
		Posts: lo.Map(posts, func(p domain.Post, _ int) SnapshotPost {
			return SnapshotPost{
				ID:        p.ID,
				CreatedAt: p.CreatedAt,
				UpdatedAt: p.UpdatedAt,
				Title:     p.Title,
				Content:   p.Content,
				Published: p.Published,
				ViewCount: p.ViewCount,
				AuthorID:  p.AuthorID,
			}
		}),
	}, nil
}

func (s *exportService) snapshotKey(at time.Time) string {
	name := fmt.Sprintf("snapshot-%s.json", at.UTC().Format("20060102T150405Z"))
	prefix := strings.Trim(s.opts.KeyPrefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
