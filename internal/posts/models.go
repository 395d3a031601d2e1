package posts

import "time"

// Post is a user post. Content and image are both optional but not both empty;
// privacy defaults to public.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   *string   `json:"content"`
	Image     *string   `json:"image"`
	Privacy   string    `json:"privacy"`
	Feeling   *string   `json:"feeling"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author Author `json:"author"`
	Counts Counts `json:"_count"`
	Liked  bool   `json:"liked"`
}

// Author is the user summary embedded in fetched posts
type Author struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Image *string `json:"image"`
}

// Counts carries like/comment aggregates for a post
type Counts struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
}

type CreatePostRequest struct {
	Content *string `json:"content,omitempty" binding:"omitempty,max=5000"`
	Image   *string `json:"image,omitempty"`
	Privacy string  `json:"privacy,omitempty" binding:"omitempty,oneof=public friends private"`
	Feeling *string `json:"feeling,omitempty"`
}

type UpdatePostRequest struct {
	Content *string `json:"content,omitempty" binding:"omitempty,max=5000"`
	Image   *string `json:"image,omitempty"`
	Privacy *string `json:"privacy,omitempty" binding:"omitempty,oneof=public friends private"`
	Feeling *string `json:"feeling,omitempty"`
}

// PaginatedPostsResponse wraps a page of posts
type PaginatedPostsResponse struct {
	Posts      []Post `json:"posts"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalCount int64  `json:"total_count"`
	TotalPages int    `json:"total_pages"`
}
