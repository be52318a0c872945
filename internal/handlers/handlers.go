package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"pulse/internal/auth"
	"pulse/internal/content"
	"pulse/internal/identity"
	"pulse/internal/models"
)

type Handler struct {
	identity *identity.Store
	content  *content.Store
	sessions *auth.Manager
	check    *validator.Validate
}

func New(ident *identity.Store, cont *content.Store, sessions *auth.Manager) *Handler {
	return &Handler{identity: ident, content: cont, sessions: sessions, check: validator.New()}
}

// Router wires every API route. Mutating routes sit behind RequireAuth.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	api.HandleFunc("/me", h.Me).Methods(http.MethodGet)

	api.HandleFunc("/feed", h.Feed).Methods(http.MethodGet)
	api.HandleFunc("/search", h.Search).Methods(http.MethodGet)
	api.HandleFunc("/categories", h.Categories).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", h.Profile).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", h.PostByID).Methods(http.MethodGet)

	api.HandleFunc("/posts", h.RequireAuth(h.CreatePost)).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}/like", h.RequireAuth(h.LikePost)).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}/like", h.RequireAuth(h.UnlikePost)).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{id}/comments", h.RequireAuth(h.CreateComment)).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}/comments/{commentID}/like", h.RequireAuth(h.LikeComment)).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}/comments/{commentID}/like", h.RequireAuth(h.UnlikeComment)).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
	return r
}

func (h *Handler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.sessions.CurrentUserID(r); !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// -------- Auth

type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !h.decode(w, r, &c) {
		return
	}
	u, err := h.identity.Register(c.Username, c.Password)
	if errors.Is(err, identity.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	h.sessions.Create(w, u.ID)
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !h.decode(w, r, &c) {
		return
	}
	u, err := h.identity.Login(c.Username, c.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "wrong username or password")
		return
	}
	h.sessions.Create(w, u.ID)
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w, r)
	h.identity.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identity.Current()
	if !ok {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        u,
		"isAdmin":     h.identity.IsAdmin(),
		"isModerator": h.identity.IsModerator(),
	})
}

// -------- Posts

// Feed returns the filtered, most-recent-first post list. A category query
// parameter replaces the selected-category filter; omitting it keeps the
// current selection.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	if vs, ok := r.URL.Query()["category"]; ok {
		h.content.SelectCategory(vs[0])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":            h.content.Feed(),
		"selectedCategory": h.content.SelectedCategory(),
	})
}

func (h *Handler) PostByID(w http.ResponseWriter, r *http.Request) {
	p, ok := h.content.PostByID(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"post":   p,
		"thread": content.Thread(p.Comments),
	})
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var draft models.PostDraft
	if !h.decode(w, r, &draft) {
		return
	}
	p, err := h.content.CreatePost(draft)
	if err != nil {
		h.contentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, h.content.LikePost(mux.Vars(r)["id"]))
}

func (h *Handler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, h.content.UnlikePost(mux.Vars(r)["id"]))
}

// -------- Comments

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content  string `json:"content"`
		ParentID string `json:"parentId"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	c, err := h.content.AddComment(mux.Vars(r)["id"], body.Content, body.ParentID)
	if err != nil {
		h.contentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) LikeComment(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	h.toggle(w, h.content.LikeComment(v["id"], v["commentID"]))
}

func (h *Handler) UnlikeComment(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	h.toggle(w, h.content.UnlikeComment(v["id"], v["commentID"]))
}

// -------- Queries

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, map[string]any{
		"query": q,
		"posts": h.content.SearchPosts(q),
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	u, ok := h.identity.UserByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  u,
		"posts": h.content.PostsByAuthor(id),
	})
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.content.Categories())
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "no such route")
}

// -------- helpers

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	if err := h.check.Struct(v); err != nil {
		// Any validation failure rejects the payload, including the
		// non-field errors the validator reports for unvalidatable values.
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, "invalid request: "+verr.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid request")
		}
		return false
	}
	return true
}

func (h *Handler) toggle(w http.ResponseWriter, err error) {
	if err != nil {
		h.contentError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) contentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, content.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
