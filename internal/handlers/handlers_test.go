package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/auth"
	"pulse/internal/content"
	"pulse/internal/identity"
	"pulse/internal/models"
	"pulse/internal/storage"
)

type testServer struct {
	router   http.Handler
	identity *identity.Store
	content  *content.Store
	cookies  []*http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "t.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ident := identity.New(store, identity.AcceptAll)
	ident.SeedDefaults()
	cont := content.New(store, ident)
	sessions := auth.NewManager(time.Hour)

	h := New(ident, cont, sessions)
	return &testServer{
		router:   WithRecover(h.Router()),
		identity: ident,
		content:  cont,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	for _, c := range ts.cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, r)
	if cs := w.Result().Cookies(); len(cs) > 0 {
		ts.cookies = cs
	}
	return w
}

func (ts *testServer) login(t *testing.T, username string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/login", map[string]string{
		"username": username,
		"password": "anything",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestRegisterLoginLogout(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/register", map[string]string{
		"username": "newbie", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	u := decodeBody[models.User](t, w)
	assert.Equal(t, "newbie", u.Username)
	assert.Equal(t, models.RoleUser, u.Role)

	w = ts.do(t, http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/register", map[string]string{
		"username": "admin", "password": "pw",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_MissingFields(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/register", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecode_UnvalidatableBodyRejected(t *testing.T) {
	h := &Handler{check: validator.New()}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("5"))
	w := httptest.NewRecorder()
	var n int
	ok := h.decode(w, r, &n)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_UnknownUser(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/login", map[string]string{
		"username": "ghost", "password": "pw",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePost_RequiresSession(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/posts", map[string]string{
		"title": "x", "content": "y", "categoryId": "1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePostAndFeed(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "johnsmith")

	w := ts.do(t, http.MethodPost, "/api/posts", map[string]string{
		"title": "Hi", "content": "Hello", "categoryId": "1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	p := decodeBody[models.Post](t, w)
	assert.Equal(t, "johnsmith", p.Author.Username)
	assert.Empty(t, p.Likes)

	w = ts.do(t, http.MethodGet, "/api/feed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decodeBody[struct {
		Posts []models.Post `json:"posts"`
	}](t, w)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, p.ID, feed.Posts[0].ID)
}

func TestCreatePost_InvalidDraft(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "johnsmith")

	w := ts.do(t, http.MethodPost, "/api/posts", map[string]string{"title": "no content"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeed_CategoryFilter(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "johnsmith")

	ts.do(t, http.MethodPost, "/api/posts", map[string]string{
		"title": "tech", "content": "x", "categoryId": "1",
	})
	ts.do(t, http.MethodPost, "/api/posts", map[string]string{
		"title": "food", "content": "x", "categoryId": "3",
	})

	w := ts.do(t, http.MethodGet, "/api/feed?category=3", nil)
	feed := decodeBody[struct {
		Posts    []models.Post `json:"posts"`
		Selected string        `json:"selectedCategory"`
	}](t, w)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, "food", feed.Posts[0].Title)
	assert.Equal(t, "3", feed.Selected)

	// clearing the filter
	w = ts.do(t, http.MethodGet, "/api/feed?category=", nil)
	feed = decodeBody[struct {
		Posts    []models.Post `json:"posts"`
		Selected string        `json:"selectedCategory"`
	}](t, w)
	assert.Len(t, feed.Posts, 2)
}

func TestPostDetailAndThread(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "johnsmith")

	w := ts.do(t, http.MethodPost, "/api/posts", map[string]string{
		"title": "Hi", "content": "Hello", "categoryId": "1",
	})
	p := decodeBody[models.Post](t, w)

	w = ts.do(t, http.MethodPost, "/api/posts/"+p.ID+"/comments", map[string]string{
		"content": "nice",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	c := decodeBody[models.Comment](t, w)

	ts.login(t, "sarahjones")
	w = ts.do(t, http.MethodPost, "/api/posts/"+p.ID+"/comments", map[string]string{
		"content": "thanks", "parentId": c.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodGet, "/api/posts/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decodeBody[struct {
		Post   models.Post          `json:"post"`
		Thread []models.CommentNode `json:"thread"`
	}](t, w)
	require.Len(t, detail.Thread, 1)
	assert.Equal(t, "nice", detail.Thread[0].Content)
	require.Len(t, detail.Thread[0].Replies, 1)
	assert.Equal(t, "thanks", detail.Thread[0].Replies[0].Content)
	assert.Equal(t, "sarahjones", detail.Thread[0].Replies[0].Author.Username)
}

func TestComment_BadParent(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "johnsmith")

	w := ts.do(t, http.MethodPost, "/api/posts", map[string]string{
		"title": "Hi", "content": "Hello", "categoryId": "1",
	})
	p := decodeBody[models.Post](t, w)

	w = ts.do(t, http.MethodPost, "/api/posts/"+p.ID+"/comments", map[string]string{
		"content": "orphan", "parentId": "nope",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikeUnlikePost(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "johnsmith")

	w := ts.do(t, http.MethodPost, "/api/posts", map[string]string{
		"title": "Hi", "content": "Hello", "categoryId": "1",
	})
	p := decodeBody[models.Post](t, w)

	w = ts.do(t, http.MethodPost, "/api/posts/"+p.ID+"/like", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	got, ok := ts.content.PostByID(p.ID)
	require.True(t, ok)
	assert.Len(t, got.Likes, 1)

	w = ts.do(t, http.MethodDelete, "/api/posts/"+p.ID+"/like", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	got, _ = ts.content.PostByID(p.ID)
	assert.Empty(t, got.Likes)
}

func TestLikePost_Unknown(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "johnsmith")

	w := ts.do(t, http.MethodPost, "/api/posts/nope/like", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "johnsmith")

	ts.do(t, http.MethodPost, "/api/posts", map[string]string{
		"title": "The Future of AI", "content": "x", "categoryId": "1",
	})

	w := ts.do(t, http.MethodGet, "/api/search?q=future", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody[struct {
		Posts []models.Post `json:"posts"`
	}](t, w)
	require.Len(t, res.Posts, 1)

	w = ts.do(t, http.MethodGet, "/api/search?q=", nil)
	res = decodeBody[struct {
		Posts []models.Post `json:"posts"`
	}](t, w)
	assert.Len(t, res.Posts, 1, "blank query returns the full list")
}

func TestProfile(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "johnsmith")
	ts.do(t, http.MethodPost, "/api/posts", map[string]string{
		"title": "mine", "content": "x", "categoryId": "1",
	})

	w := ts.do(t, http.MethodGet, "/api/users/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	prof := decodeBody[struct {
		User  models.User   `json:"user"`
		Posts []models.Post `json:"posts"`
	}](t, w)
	assert.Equal(t, "johnsmith", prof.User.Username)
	require.Len(t, prof.Posts, 1)
	assert.Equal(t, "mine", prof.Posts[0].Title)

	w = ts.do(t, http.MethodGet, "/api/users/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostByID_NotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/posts/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategories(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cats := decodeBody[[]models.Category](t, w)
	require.Len(t, cats, 4)
	assert.Equal(t, "Technology", cats[0].Name)
}
