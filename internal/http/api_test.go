package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apphttp "blog-backend/internal/http"
	"blog-backend/internal/repository/gormstore"
	"blog-backend/internal/repository/migrations"
	"blog-backend/internal/service"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

type postBody struct {
	ID        int64     `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`
	Title     string    `json:"title"`
	Content   *string   `json:"content"`
	Published bool      `json:"published"`
	ViewCount int64     `json:"viewCount"`
	AuthorID  int64     `json:"authorId"`
	Author    *userBody `json:"author"`
}

type userBody struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	path := filepath.Join(t.TempDir(), "blog.db")
	require.NoError(t, migrations.Up("sqlite", path, logger))
	db, err := gormstore.Open(context.Background(), gormstore.Options{
		Driver:         "sqlite",
		DSN:            path,
		ConnectTimeout: 5 * time.Second,
		Logger:         logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = gormstore.Close(db) })

	userRepo := gormstore.NewUserRepository(db)
	posts := service.NewPostService(gormstore.NewPostRepository(db), userRepo, service.DefaultFeedTake, logger)
	users := service.NewUserService(userRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	apphttp.NewHandler(posts, users, logger).RegisterRoutes(router)
	return &testServer{router: router, db: db}
}

func (s *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signup(t *testing.T, email string) userBody {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/signup", map[string]any{"email": email, "name": strings.Split(email, "@")[0]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user userBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	return user
}

func (s *testServer) createPost(t *testing.T, title, content, email string) postBody {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/post", map[string]any{"title": title, "content": content, "authorEmail": email})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var post postBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	return post
}

func (s *testServer) publish(t *testing.T, id int64) postBody {
	t.Helper()
	rec := s.do(t, http.MethodPut, fmt.Sprintf("/publish/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var post postBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	return post
}

func (s *testServer) feed(t *testing.T, query string) []postBody {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/feed"+query, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var posts []postBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	return posts
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestCreatePost(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice@example.com")

	post := s.createPost(t, "Hello", "world", "alice@example.com")
	assert.NotZero(t, post.ID)
	assert.Equal(t, alice.ID, post.AuthorID)
	assert.False(t, post.Published)
	assert.Zero(t, post.ViewCount)
	require.NotNil(t, post.Content)
	assert.Equal(t, "world", *post.Content)
}

func TestCreatePostWithoutContent(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice@example.com")

	rec := s.do(t, http.MethodPost, "/post", map[string]any{"title": "Title only", "authorEmail": "alice@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	var post postBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Nil(t, post.Content)
}

func TestCreatePostFailures(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice@example.com")

	tests := []struct {
		name string
		body any
	}{
		{name: "unknown author", body: map[string]any{"title": "Hello", "authorEmail": "nobody@example.com"}},
		{name: "missing author", body: map[string]any{"title": "Hello"}},
		{name: "missing title", body: map[string]any{"authorEmail": "alice@example.com"}},
		{name: "malformed body", body: "not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/post", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Error creating post", errorMessage(t, rec))
		})
	}

	var count int64
	require.NoError(t, s.db.Table("posts").Count(&count).Error)
	assert.Zero(t, count)
}

func TestIncrementViews(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice@example.com")
	post := s.createPost(t, "Hello", "world", "alice@example.com")

	for i := 1; i <= 2; i++ {
		rec := s.do(t, http.MethodPut, fmt.Sprintf("/post/%d/views", post.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var updated postBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.EqualValues(t, i, updated.ViewCount)
	}
}

func TestMissingPostMessages(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		target string
		id     string
	}{
		{method: http.MethodPut, target: "/post/%s/views", id: "42"},
		{method: http.MethodPut, target: "/publish/%s", id: "42"},
		{method: http.MethodDelete, target: "/post/%s", id: "42"},
		{method: http.MethodPut, target: "/post/%s/views", id: "abc"},
		{method: http.MethodDelete, target: "/post/%s", id: "-1"},
	}

	for _, tt := range tests {
		target := fmt.Sprintf(tt.target, tt.id)
		t.Run(tt.method+" "+target, func(t *testing.T) {
			rec := s.do(t, tt.method, target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, fmt.Sprintf("Post with ID %s does not exist in the database", tt.id), errorMessage(t, rec))
		})
	}
}

func TestPublishIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice@example.com")
	post := s.createPost(t, "Hello", "world", "alice@example.com")

	assert.True(t, s.publish(t, post.ID).Published)
	assert.True(t, s.publish(t, post.ID).Published)
}

func TestDeleteThenGet(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice@example.com")
	post := s.createPost(t, "Hello", "world", "alice@example.com")

	rec := s.do(t, http.MethodGet, fmt.Sprintf("/post/%d", post.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched postBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, post.ID, fetched.ID)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/post/%d", post.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted postBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, "Hello", deleted.Title)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/post/%d", post.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/post/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Error fetching post", errorMessage(t, rec))
}

func TestUsersAndSignup(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	s.signup(t, "alice@example.com")
	s.signup(t, "bob@example.com")

	rec = s.do(t, http.MethodPost, "/signup", map[string]any{"email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Error creating user", errorMessage(t, rec))

	rec = s.do(t, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []userBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "alice@example.com", users[0].Email)
	assert.Equal(t, "bob@example.com", users[1].Email)
}

func TestDrafts(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice@example.com")
	draft := s.createPost(t, "Draft", "", "alice@example.com")
	published := s.createPost(t, "Live", "", "alice@example.com")
	s.publish(t, published.ID)

	rec := s.do(t, http.MethodGet, fmt.Sprintf("/user/%d/drafts", alice.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var drafts []postBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drafts))
	require.Len(t, drafts, 1)
	assert.Equal(t, draft.ID, drafts[0].ID)

	rec = s.do(t, http.MethodGet, "/user/999/drafts", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User with ID 999 does not exist in the database", errorMessage(t, rec))
}

func TestFeed(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice@example.com")
	s.signup(t, "bob@example.com")

	for i := 0; i < 8; i++ {
		email := "alice@example.com"
		if i%2 == 1 {
			email = "bob@example.com"
		}
		title := fmt.Sprintf("Post %d", i)
		content := "plain"
		if i%3 == 0 {
			content = "All about FOOD"
		}
		post := s.createPost(t, title, content, email)
		s.publish(t, post.ID)
	}
	s.createPost(t, "Unpublished foo", "foo", "alice@example.com")

	t.Run("published only with authors", func(t *testing.T) {
		posts := s.feed(t, "")
		assert.Len(t, posts, 8)
		for _, p := range posts {
			assert.True(t, p.Published)
			require.NotNil(t, p.Author)
			assert.Equal(t, p.AuthorID, p.Author.ID)
		}
	})

	t.Run("absent search equals empty search", func(t *testing.T) {
		assert.Equal(t, s.feed(t, ""), s.feed(t, "?searchString="))
	})

	t.Run("search", func(t *testing.T) {
		posts := s.feed(t, "?searchString=foo")
		require.Len(t, posts, 3)
		for _, p := range posts {
			text := strings.ToLower(p.Title + " " + *p.Content)
			assert.Contains(t, text, "foo")
		}
	})

	t.Run("default order is newest first", func(t *testing.T) {
		for _, query := range []string{"", "?orderBy=desc", "?orderBy=garbage"} {
			posts := s.feed(t, query)
			for i := 1; i < len(posts); i++ {
				assert.False(t, posts[i].UpdatedAt.After(posts[i-1].UpdatedAt), query)
			}
		}
	})

	t.Run("ascending order", func(t *testing.T) {
		posts := s.feed(t, "?orderBy=asc")
		for i := 1; i < len(posts); i++ {
			assert.False(t, posts[i].UpdatedAt.Before(posts[i-1].UpdatedAt))
		}
	})

	t.Run("skip and take", func(t *testing.T) {
		all := s.feed(t, "")
		page := s.feed(t, "?skip=5&take=2")
		require.Len(t, page, 2)
		assert.Equal(t, all[5:7], page)
	})

	t.Run("invalid paging uses defaults", func(t *testing.T) {
		assert.Equal(t, s.feed(t, ""), s.feed(t, "?skip=x&take=y"))
	})

	t.Run("empty result is an empty array", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/feed?searchString=nothing-matches", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestFeedDefaultPageSize(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice@example.com")
	for i := 0; i < service.DefaultFeedTake+3; i++ {
		post := s.createPost(t, fmt.Sprintf("Post %d", i), "", "alice@example.com")
		s.publish(t, post.ID)
	}

	assert.Len(t, s.feed(t, ""), service.DefaultFeedTake)
	assert.Len(t, s.feed(t, "?take=50"), service.DefaultFeedTake+3)
}

func TestFeedStorageFailure(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, gormstore.Close(s.db))

	rec := s.do(t, http.MethodGet, "/feed", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Error fetching feed", errorMessage(t, rec))
	assert.NotContains(t, rec.Body.String(), "sql")
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/users", nil)

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "blog_http_requests_total")
}
