package content

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"pulse/internal/models"
	"pulse/internal/storage"
)

var (
	ErrUnauthenticated = errors.New("content: no authenticated user")
	ErrNotFound        = errors.New("content: not found")
)

// Recorder is the slice of the snapshot store the content store needs.
type Recorder interface {
	Put(key string, v any) error
	Get(key string, v any) error
}

// Who resolves the acting user. New posts, comments and likes are
// attributed to whoever this reports; mutators fail with
// ErrUnauthenticated when it reports nobody.
type Who interface {
	Current() (models.User, bool)
}

// Store owns the post list, the category list and the selected-category
// filter. The post list is mirrored to storage in full after every
// mutation; the category record is written once if absent and never
// touched again. The filter is in-memory only.
type Store struct {
	mu      sync.RWMutex
	persist Recorder
	who     Who
	check   *validator.Validate

	posts      []models.Post
	categories []models.Category
	selected   string // category id, "" = no filter
}

func New(persist Recorder, who Who) *Store {
	s := &Store{
		persist: persist,
		who:     who,
		check:   validator.New(),
	}
	if err := persist.Get(storage.KeyPosts, &s.posts); err != nil {
		if !errors.Is(err, storage.ErrNoRecord) {
			log.Printf("content: discarding post record: %v", err)
		}
		s.posts = nil
	}
	if err := persist.Get(storage.KeyCategories, &s.categories); err != nil {
		if !errors.Is(err, storage.ErrNoRecord) {
			log.Printf("content: discarding category record: %v", err)
		}
		s.categories = defaultCategories()
		if err := persist.Put(storage.KeyCategories, s.categories); err != nil {
			log.Printf("content: write category record: %v", err)
		}
	}
	return s
}

// persistPosts mirrors the full post list. Failures are logged and the
// in-memory state stands; there is no rollback. Callers hold the lock.
func (s *Store) persistPosts() {
	if err := s.persist.Put(storage.KeyPosts, s.posts); err != nil {
		log.Printf("content: write post record: %v", err)
	}
}

// CreatePost validates the draft and prepends a new post authored by the
// current user. The feed invariant is most-recent-first, so prepend.
func (s *Store) CreatePost(draft models.PostDraft) (models.Post, error) {
	u, ok := s.who.Current()
	if !ok {
		return models.Post{}, ErrUnauthenticated
	}
	if err := s.check.Struct(draft); err != nil {
		return models.Post{}, fmt.Errorf("content: invalid draft: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Post{
		ID:         uuid.NewString(),
		Title:      draft.Title,
		Content:    draft.Content,
		ImageURL:   draft.ImageURL,
		CategoryID: draft.CategoryID,
		AuthorID:   u.ID,
		Author:     u, // snapshot at creation, not a live reference
		Likes:      []string{},
		Comments:   []models.Comment{},
		CreatedAt:  time.Now().UTC(),
	}
	s.posts = append([]models.Post{p}, s.posts...)
	s.persistPosts()
	return p, nil
}

func (s *Store) LikePost(postID string) error   { return s.togglePostLike(postID, true) }
func (s *Store) UnlikePost(postID string) error { return s.togglePostLike(postID, false) }

func (s *Store) togglePostLike(postID string, on bool) error {
	u, ok := s.who.Current()
	if !ok {
		return ErrUnauthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID != postID {
			continue
		}
		s.posts[i].Likes = toggle(s.posts[i].Likes, u.ID, on)
		s.persistPosts()
		return nil
	}
	return ErrNotFound
}

// AddComment appends a comment to the post's flat comment list. A non-empty
// parentID must name an existing comment on the same post; otherwise the
// tree is left untouched and ErrNotFound is returned.
func (s *Store) AddComment(postID, text, parentID string) (models.Comment, error) {
	u, ok := s.who.Current()
	if !ok {
		return models.Comment{}, ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return models.Comment{}, fmt.Errorf("content: empty comment")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID != postID {
			continue
		}
		if parentID != "" && !hasComment(s.posts[i].Comments, parentID) {
			return models.Comment{}, ErrNotFound
		}
		c := models.Comment{
			ID:        uuid.NewString(),
			PostID:    postID,
			ParentID:  parentID,
			Content:   text,
			AuthorID:  u.ID,
			Author:    u, // snapshot at creation
			Likes:     []string{},
			CreatedAt: time.Now().UTC(),
		}
		s.posts[i].Comments = append(s.posts[i].Comments, c)
		s.persistPosts()
		return c, nil
	}
	return models.Comment{}, ErrNotFound
}

func (s *Store) LikeComment(postID, commentID string) error {
	return s.toggleCommentLike(postID, commentID, true)
}

func (s *Store) UnlikeComment(postID, commentID string) error {
	return s.toggleCommentLike(postID, commentID, false)
}

// Comments and replies live in one flat list, so one scan covers both.
func (s *Store) toggleCommentLike(postID, commentID string, on bool) error {
	u, ok := s.who.Current()
	if !ok {
		return ErrUnauthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID != postID {
			continue
		}
		cs := s.posts[i].Comments
		for j := range cs {
			if cs[j].ID != commentID {
				continue
			}
			cs[j].Likes = toggle(cs[j].Likes, u.ID, on)
			s.persistPosts()
			return nil
		}
		return ErrNotFound
	}
	return ErrNotFound
}

// -------- Read queries

// Read queries hand out deep copies: a returned Post must stay valid after
// the store mutates, and like toggles write comment slices in place. Handing
// out the backing arrays would let a reader race a later mutation.

func (s *Store) PostByID(id string) (models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.ID == id {
			return clonePost(p), true
		}
	}
	return models.Post{}, false
}

func (s *Store) Posts() []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Post, len(s.posts))
	for i, p := range s.posts {
		out[i] = clonePost(p)
	}
	return out
}

func (s *Store) PostsByCategory(categoryID string) []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Post
	for _, p := range s.posts {
		if p.CategoryID == categoryID {
			out = append(out, clonePost(p))
		}
	}
	return out
}

func (s *Store) PostsByAuthor(userID string) []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Post
	for _, p := range s.posts {
		if p.AuthorID == userID {
			out = append(out, clonePost(p))
		}
	}
	return out
}

// SearchPosts matches the query as a case-insensitive substring of title or
// content. A blank query returns the full list in feed order.
func (s *Store) SearchPosts(query string) []models.Post {
	if strings.TrimSpace(query) == "" {
		return s.Posts()
	}
	q := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Post
	for _, p := range s.posts {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Content), q) {
			out = append(out, clonePost(p))
		}
	}
	return out
}

func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

func (s *Store) CategoryByID(id string) (models.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

// SelectCategory sets the feed filter; "" clears it. The filter is not a
// persisted record.
func (s *Store) SelectCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

func (s *Store) SelectedCategory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Feed returns the post list narrowed by the selected category.
func (s *Store) Feed() []models.Post {
	if id := s.SelectedCategory(); id != "" {
		return s.PostsByCategory(id)
	}
	return s.Posts()
}

// -------- helpers

// clonePost deep-copies the slices a mutation may later rewrite: the liker
// set, the comment list and each comment's liker set.
func clonePost(p models.Post) models.Post {
	p.Likes = cloneStrings(p.Likes)
	if p.Comments != nil {
		cs := make([]models.Comment, len(p.Comments))
		copy(cs, p.Comments)
		for i := range cs {
			cs[i].Likes = cloneStrings(cs[i].Likes)
		}
		p.Comments = cs
	}
	return p
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// toggle adds or removes id, keeping membership unique. Liking twice or
// unliking a non-liker changes nothing.
func toggle(likes []string, id string, on bool) []string {
	for i, l := range likes {
		if l != id {
			continue
		}
		if on {
			return likes
		}
		return append(likes[:i:i], likes[i+1:]...)
	}
	if on {
		return append(likes, id)
	}
	return likes
}

func hasComment(cs []models.Comment, id string) bool {
	for _, c := range cs {
		if c.ID == id {
			return true
		}
	}
	return false
}
