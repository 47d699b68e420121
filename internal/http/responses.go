package http

import (
	"time"

	"github.com/samber/lo"

	"blog-backend/internal/domain"
)

type UserResponse struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

type PostResponse struct {
	ID        int64         `json:"id"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
	Title     string        `json:"title"`
	Content   *string       `json:"content"`
	Published bool          `json:"published"`
	ViewCount int64         `json:"viewCount"`
	AuthorID  int64         `json:"authorId"`
	Author    *UserResponse `json:"author,omitempty"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
}

func usersToResponse(users []domain.User) []UserResponse {
	return lo.Map(users, func(u domain.User, _ int) UserResponse {
		return userToResponse(u)
	})
}

func postToResponse(post domain.Post) PostResponse {
	resp := PostResponse{
		ID:        post.ID,
		CreatedAt: post.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: post.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Title:     post.Title,
		Content:   post.Content,
		Published: post.Published,
		ViewCount: post.ViewCount,
		AuthorID:  post.AuthorID,
	}
	if post.Author != nil {
		author := userToResponse(*post.Author)
		resp.Author = &author
	}
	return resp
}

func postsToResponse(posts []domain.Post) []PostResponse {
	return lo.Map(posts, func(p domain.Post, _ int) PostResponse {
		return postToResponse(p)
	})
}
