package posts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service handles business logic for posts
type Service struct {
	repo *Repository

	now   func() time.Time
	newID func() string
}

// NewService creates a new posts service
func NewService(repo *Repository) *Service {
	return &Service{
		repo:  repo,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// CreatePost creates a new post for the authenticated user
func (s *Service) CreatePost(ctx context.Context, userID string, req CreatePostRequest) (*Post, error) {
	hasContent := req.Content != nil && *req.Content != ""
	hasImage := req.Image != nil && *req.Image != ""
	if !hasContent && !hasImage {
		return nil, ErrEmptyPost
	}
	return s.repo.Create(ctx, s.newID(), userID, req, s.now())
}

// GetPost retrieves a post by ID
func (s *Service) GetPost(ctx context.Context, postID, viewerID string) (*Post, error) {
	return s.repo.GetByID(ctx, postID, viewerID)
}

// GetAllPosts retrieves public posts with pagination
func (s *Service) GetAllPosts(ctx context.Context, viewerID string, page, pageSize int) (*PaginatedPostsResponse, error) {
	posts, totalCount, err := s.repo.GetAll(ctx, viewerID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return paginated(posts, page, pageSize, totalCount), nil
}

// GetUserPosts retrieves posts authored by a specific user
func (s *Service) GetUserPosts(ctx context.Context, userID, viewerID string, page, pageSize int) (*PaginatedPostsResponse, error) {
	posts, totalCount, err := s.repo.GetByUserID(ctx, userID, viewerID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return paginated(posts, page, pageSize, totalCount), nil
}

// GetFeed retrieves posts from users the viewer follows
func (s *Service) GetFeed(ctx context.Context, viewerID string, page, pageSize int) (*PaginatedPostsResponse, error) {
	posts, totalCount, err := s.repo.GetFeed(ctx, viewerID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return paginated(posts, page, pageSize, totalCount), nil
}

// UpdatePost applies a partial update to an owned post
func (s *Service) UpdatePost(ctx context.Context, postID, userID string, req UpdatePostRequest) (*Post, error) {
	return s.repo.Update(ctx, postID, userID, req, s.now())
}

// DeletePost removes an owned post
func (s *Service) DeletePost(ctx context.Context, postID, userID string) error {
	return s.repo.Delete(ctx, postID, userID)
}

func paginated(posts []Post, page, pageSize int, totalCount int64) *PaginatedPostsResponse {
	page, pageSize = clampPagination(page, pageSize)

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize != 0 {
		totalPages++
	}

	return &PaginatedPostsResponse{
		Posts:      posts,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
