package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pulse/internal/database"

	"github.com/jackc/pgx/v5"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrUnauthorized = errors.New("unauthorized to modify this post")
	ErrEmptyPost    = errors.New("post needs content or an image")
)

// Repository handles all database operations for posts
type Repository struct {
	db database.Service
}

// NewRepository creates a new posts repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

// postColumns selects a post with its author and aggregates. $viewer is bound
// as the last argument of every query using it.
const postColumns = `
	p.id, p.author_id, p.content, p.image, p.privacy, p.feeling, p.created_at, p.updated_at,
	u.id, u.name, u.image,
	(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
	EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = $viewer)
`

// Create inserts a new post
func (r *Repository) Create(ctx context.Context, id, authorID string, req CreatePostRequest, now time.Time) (*Post, error) {
	privacy := req.Privacy
	if privacy == "" {
		privacy = "public"
	}

	const q = `
		INSERT INTO posts (id, author_id, content, image, privacy, feeling, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	_, err := r.db.Exec(ctx, q, id, authorID, req.Content, req.Image, privacy, req.Feeling, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	return r.GetByID(ctx, id, authorID)
}

// GetByID retrieves a single post with author, counts, and whether the viewer
// has liked it. An empty viewerID simply yields liked=false.
func (r *Repository) GetByID(ctx context.Context, postID, viewerID string) (*Post, error) {
	q := withViewer(`
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`, 2)

	var p Post
	err := scanPost(r.db.QueryRow(ctx, q, postID, viewerID), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

// GetAll retrieves public posts, newest first, with pagination
func (r *Repository) GetAll(ctx context.Context, viewerID string, page, pageSize int) ([]Post, int64, error) {
	page, pageSize = clampPagination(page, pageSize)
	offset := (page - 1) * pageSize

	var totalCount int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE privacy = 'public'`).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	q := withViewer(`
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.privacy = 'public'
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2
	`, 3)

	posts, err := r.queryRows(ctx, q, pageSize, offset, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return posts, totalCount, nil
}

// GetByUserID retrieves a user's posts with pagination
func (r *Repository) GetByUserID(ctx context.Context, userID, viewerID string, page, pageSize int) ([]Post, int64, error) {
	page, pageSize = clampPagination(page, pageSize)
	offset := (page - 1) * pageSize

	var totalCount int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE author_id = $1`, userID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("count user posts: %w", err)
	}

	q := withViewer(`
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`, 4)

	posts, err := r.queryRows(ctx, q, userID, pageSize, offset, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return posts, totalCount, nil
}

// GetFeed retrieves posts authored by users the viewer follows, newest first
func (r *Repository) GetFeed(ctx context.Context, viewerID string, page, pageSize int) ([]Post, int64, error) {
	page, pageSize = clampPagination(page, pageSize)
	offset := (page - 1) * pageSize

	var totalCount int64
	const countQ = `
		SELECT COUNT(*) FROM posts p
		WHERE p.author_id IN (SELECT followee_id FROM follows WHERE follower_id = $1)
	`
	if err := r.db.QueryRow(ctx, countQ, viewerID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("count feed: %w", err)
	}

	q := withViewer(`
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.author_id IN (SELECT followee_id FROM follows WHERE follower_id = $1)
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`, 1)

	posts, err := r.queryRows(ctx, q, viewerID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	return posts, totalCount, nil
}

// Update modifies an existing post (only if the user owns it)
func (r *Repository) Update(ctx context.Context, postID, userID string, req UpdatePostRequest, now time.Time) (*Post, error) {
	existing, err := r.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != userID {
		return nil, ErrUnauthorized
	}

	updates := map[string]any{}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.Privacy != nil {
		updates["privacy"] = *req.Privacy
	}
	if req.Feeling != nil {
		updates["feeling"] = *req.Feeling
	}
	if len(updates) == 0 {
		return existing, nil
	}

	q := `UPDATE posts SET `
	args := []any{}
	argPos := 1
	for field, value := range updates {
		if argPos > 1 {
			q += ", "
		}
		q += fmt.Sprintf("%s = $%d", field, argPos)
		args = append(args, value)
		argPos++
	}
	q += fmt.Sprintf(", updated_at = $%d WHERE id = $%d AND author_id = $%d", argPos, argPos+1, argPos+2)
	args = append(args, now, postID, userID)

	if _, err := r.db.Exec(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	return r.GetByID(ctx, postID, userID)
}

// Delete removes a post (only if the user owns it); comments and likes go with
// it via the schema's cascade rules.
func (r *Repository) Delete(ctx context.Context, postID, userID string) error {
	existing, err := r.GetByID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if existing.AuthorID != userID {
		return ErrUnauthorized
	}

	res, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND author_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *Repository) queryRows(ctx context.Context, q string, args ...any) ([]Post, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := scanPost(rows, &p); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	return posts, nil
}

func scanPost(row pgx.Row, p *Post) error {
	return row.Scan(
		&p.ID, &p.AuthorID, &p.Content, &p.Image, &p.Privacy, &p.Feeling, &p.CreatedAt, &p.UpdatedAt,
		&p.Author.ID, &p.Author.Name, &p.Author.Image,
		&p.Counts.Likes, &p.Counts.Comments, &p.Liked,
	)
}

// withViewer binds the $viewer placeholder in postColumns to a positional
// argument. An empty viewer id matches no like row, so liked comes back false.
func withViewer(q string, pos int) string {
	return strings.Replace(q, "$viewer", fmt.Sprintf("$%d", pos), 1)
}

func clampPagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
