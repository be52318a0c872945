package models

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Category is static reference data; nothing in the API creates or edits one.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Post holds its comments as a flat list; a comment's ParentID points at
// another comment on the same post. Threads are grouped at read time.
//
// Author is a snapshot of the user at creation time and is never refreshed
// when the roster record changes later.
type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	CategoryID string    `json:"categoryId"`
	AuthorID   string    `json:"authorId"`
	Author     User      `json:"author"`
	Likes      []string  `json:"likes"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Comment's Author is a creation-time snapshot, same as Post.Author.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	ParentID  string    `json:"parentId,omitempty"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	Author    User      `json:"author"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentNode is the read-time thread view: a comment plus its replies,
// nested to whatever depth the parent links form.
type CommentNode struct {
	Comment
	Replies []CommentNode `json:"replies,omitempty"`
}

// PostDraft is the create-post input.
type PostDraft struct {
	Title      string `json:"title" validate:"required"`
	Content    string `json:"content" validate:"required"`
	ImageURL   string `json:"imageUrl" validate:"omitempty,url"`
	CategoryID string `json:"categoryId" validate:"required"`
}
