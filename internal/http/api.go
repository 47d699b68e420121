package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"blog-backend/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	posts  service.PostService
	users  service.UserService
	logger *logrus.Logger
}

func NewHandler(posts service.PostService, users service.UserService, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		posts:  posts,
		users:  users,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestIDMiddleware(), requestLogger(h.logger), metricsMiddleware(), corsMiddleware())

	router.POST("/signup", h.signup)
	router.POST("/post", h.createPost)
	router.PUT("/post/:id/views", h.incrementViews)
	router.PUT("/publish/:id", h.publishPost)
	router.DELETE("/post/:id", h.deletePost)
	router.GET("/users", h.listUsers)
	router.GET("/user/:id/drafts", h.listDrafts)
	router.GET("/post/:id", h.getPost)
	router.GET("/feed", h.feed)

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

type signupRequest struct {
	Email string  `json:"email" binding:"required"`
	Name  *string `json:"name"`
}

type createPostRequest struct {
	Title       string  `json:"title" binding:"required"`
	Content     *string `json:"content"`
	AuthorEmail string  `json:"authorEmail" binding:"required"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, err, "Error creating user")
		return
	}

	user, err := h.users.Signup(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		h.fail(c, err, "Error creating user")
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) createPost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, err, "Error creating post")
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), req.Title, req.Content, req.AuthorEmail)
	if err != nil {
		h.fail(c, err, "Error creating post")
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) incrementViews(c *gin.Context) {
	idStr := c.Param("id")
	id, ok := parseID(idStr)
	if !ok {
		h.fail(c, nil, postNotFoundMessage(idStr))
		return
	}

	post, err := h.posts.IncrementViews(c.Request.Context(), id)
	if err != nil {
		h.failPost(c, err, idStr, "Error updating post")
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) publishPost(c *gin.Context) {
	idStr := c.Param("id")
	id, ok := parseID(idStr)
	if !ok {
		h.fail(c, nil, postNotFoundMessage(idStr))
		return
	}

	post, err := h.posts.Publish(c.Request.Context(), id)
	if err != nil {
		h.failPost(c, err, idStr, "Error updating post")
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) deletePost(c *gin.Context) {
	idStr := c.Param("id")
	id, ok := parseID(idStr)
	if !ok {
		h.fail(c, nil, postNotFoundMessage(idStr))
		return
	}

	post, err := h.posts.DeletePost(c.Request.Context(), id)
	if err != nil {
		h.failPost(c, err, idStr, "Error deleting post")
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Error fetching users")
		return
	}
	c.JSON(http.StatusOK, usersToResponse(users))
}

func (h *Handler) listDrafts(c *gin.Context) {
	idStr := c.Param("id")
	notFound := fmt.Sprintf("User with ID %s does not exist in the database", idStr)
	id, ok := parseID(idStr)
	if !ok {
		h.fail(c, nil, notFound)
		return
	}

	drafts, err := h.posts.Drafts(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			h.fail(c, err, notFound)
			return
		}
		h.fail(c, err, "Error fetching drafts")
		return
	}
	c.JSON(http.StatusOK, postsToResponse(drafts))
}

func (h *Handler) getPost(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		h.fail(c, nil, "Error fetching post")
		return
	}

	post, err := h.posts.GetPost(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Error fetching post")
		return
	}
	if post == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) feed(c *gin.Context) {
	posts, err := h.posts.Feed(c.Request.Context(), service.FeedParams{
		SearchString: c.Query("searchString"),
		Skip:         c.Query("skip"),
		Take:         c.Query("take"),
		OrderBy:      c.Query("orderBy"),
	})
	if err != nil {
		h.fail(c, err, "Error fetching feed")
		return
	}
	c.JSON(http.StatusOK, postsToResponse(posts))
}

// fail logs the underlying error and answers 400 with a client-safe message.
func (h *Handler) fail(c *gin.Context, err error, message string) {
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"route":      c.FullPath(),
		}).Warnf("%s: %v", message, err)
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func (h *Handler) failPost(c *gin.Context, err error, idStr, fallback string) {
	if errors.Is(err, service.ErrPostNotFound) {
		h.fail(c, err, postNotFoundMessage(idStr))
		return
	}
	h.fail(c, err, fallback)
}

func postNotFoundMessage(id string) string {
	return fmt.Sprintf("Post with ID %s does not exist in the database", id)
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
