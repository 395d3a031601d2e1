package comments

import "time"

// Comment is a flat comment row as stored. ParentID nil means a root comment;
// non-nil means a reply to another comment on the same post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	ParentID  *string   `json:"parent_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author Author `json:"author"`
	Likes  []Like `json:"likes"`
}

// Author is the user summary embedded in fetched comments
type Author struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image"`
}

// Like is a single like row on a comment
type Like struct {
	ID        string    `json:"id"`
	CommentID string    `json:"comment_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Counts carries per-node aggregates for the tree
type Counts struct {
	Replies int `json:"replies"`
	Likes   int `json:"likes"`
}

// Node is a comment within the in-memory reply tree. The tree is rebuilt from
// the flat rows on every read; nothing here is persisted.
type Node struct {
	Comment
	Replies []*Node `json:"replies"`
	Counts  Counts  `json:"_count"`
}

type CreateCommentRequest struct {
	PostID   string  `json:"post_id" binding:"required"`
	Content  string  `json:"content" binding:"required"`
	ParentID *string `json:"parent_id,omitempty"`
}

// Pagination describes a page over the top-level comment list
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Page is the result of paginating root comments
type Page struct {
	Comments   []*Node    `json:"comments"`
	Pagination Pagination `json:"pagination"`
}
