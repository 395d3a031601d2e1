package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pulse/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrParentNotFound  = errors.New("parent comment not found")
	ErrParentMismatch  = errors.New("parent comment does not belong to the specified post")
	ErrEmptyContent    = errors.New("comment content cannot be empty")
	ErrNotCommentOwner = errors.New("comment does not belong to this user")
)

type Service interface {
	ListForPost(ctx context.Context, postID string) ([]Comment, error)
	TreeForPost(ctx context.Context, postID string) ([]*Node, error)
	Create(ctx context.Context, authorID string, req CreateCommentRequest) (*Comment, error)
	Delete(ctx context.Context, userID, commentID string) error
	RootComments(ctx context.Context, postID string, limit, offset int) ([]*Node, error)
	Replies(ctx context.Context, commentID string, limit, offset int) ([]*Node, error)
	Thread(ctx context.Context, commentID string) (*Node, error)
}

type service struct {
	db database.Service

	// injected so tests can pin timestamps and ids
	now   func() time.Time
	newID func() string
}

func NewService(db database.Service) Service {
	return &service{
		db:    db,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

const commentColumns = `
	c.id, c.post_id, c.author_id, c.parent_id, c.content, c.created_at, c.updated_at,
	u.id, u.name, u.email, u.image
`

// ListForPost returns every comment on the post, ascending by creation time,
// with author summaries and like rows attached. This is the flat input the
// tree builder works from.
func (s *service) ListForPost(ctx context.Context, postID string) ([]Comment, error) {
	if err := s.ensurePostExists(ctx, postID); err != nil {
		return nil, err
	}

	const q = `
		SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
	`
	rows, err := s.db.Query(ctx, q, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := []Comment{}
	index := map[string]int{}
	for rows.Next() {
		var c Comment
		if err := scanComment(rows, &c); err != nil {
			return nil, err
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	const lq = `
		SELECT l.id, l.comment_id, l.user_id, l.created_at
		FROM comment_likes l
		JOIN comments c ON c.id = l.comment_id
		WHERE c.post_id = $1
	`
	likeRows, err := s.db.Query(ctx, lq, postID)
	if err != nil {
		return nil, fmt.Errorf("list comment likes: %w", err)
	}
	defer likeRows.Close()

	for likeRows.Next() {
		var l Like
		if err := likeRows.Scan(&l.ID, &l.CommentID, &l.UserID, &l.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[l.CommentID]; ok {
			out[i].Likes = append(out[i].Likes, l)
		}
	}
	if err := likeRows.Err(); err != nil {
		return nil, fmt.Errorf("list comment likes: %w", err)
	}

	return out, nil
}

// TreeForPost rebuilds the nested reply tree for the post. The tree is derived
// on every call; there is no cache to go stale.
func (s *service) TreeForPost(ctx context.Context, postID string) ([]*Node, error) {
	flat, err := s.ListForPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return BuildTree(flat), nil
}

// Create inserts a root comment or a reply. Replies must reference an existing
// parent on the same post.
func (s *service) Create(ctx context.Context, authorID string, req CreateCommentRequest) (*Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	if err := s.ensurePostExists(ctx, req.PostID); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.getByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, ErrCommentNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		if parent.PostID != req.PostID {
			return nil, ErrParentMismatch
		}
	}

	now := s.now()
	const q = `
		INSERT INTO comments (id, post_id, author_id, parent_id, content, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`
	id := s.newID()
	if _, err := s.db.Exec(ctx, q, id, req.PostID, authorID, req.ParentID, content, now, now); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	return s.getByID(ctx, id)
}

// Delete removes the comment and its entire reply subtree. Only the author may
// delete. Descendants are collected level by level before anything is removed;
// like rows go first so no like ever references a missing comment.
func (s *service) Delete(ctx context.Context, userID, commentID string) error {
	c, err := s.getByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c.AuthorID != userID {
		return ErrNotCommentOwner
	}

	descendants, err := s.collectDescendants(ctx, commentID)
	if err != nil {
		return err
	}
	ids := append([]string{commentID}, descendants...)

	if _, err := s.db.Exec(ctx, `DELETE FROM comment_likes WHERE comment_id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete comment likes: %w", err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM comments WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}

	return nil
}

// RootComments is the flat access pattern: newest-first top-level comments
// with reply/like counts, paginated in the database.
func (s *service) RootComments(ctx context.Context, postID string, limit, offset int) ([]*Node, error) {
	if err := s.ensurePostExists(ctx, postID); err != nil {
		return nil, err
	}
	const q = `
		SELECT ` + commentColumns + `,
			(SELECT COUNT(*) FROM comments r WHERE r.parent_id = c.id),
			(SELECT COUNT(*) FROM comment_likes l WHERE l.comment_id = c.id)
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1 AND c.parent_id IS NULL
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3
	`
	return s.queryNodes(ctx, q, postID, limit, offset)
}

// Replies returns one page of direct replies, oldest first.
func (s *service) Replies(ctx context.Context, commentID string, limit, offset int) ([]*Node, error) {
	if _, err := s.getByID(ctx, commentID); err != nil {
		return nil, err
	}
	const q = `
		SELECT ` + commentColumns + `,
			(SELECT COUNT(*) FROM comments r WHERE r.parent_id = c.id),
			(SELECT COUNT(*) FROM comment_likes l WHERE l.comment_id = c.id)
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.parent_id = $1
		ORDER BY c.created_at ASC
		LIMIT $2 OFFSET $3
	`
	return s.queryNodes(ctx, q, commentID, limit, offset)
}

// Thread returns the subtree rooted at the given comment, built from the full
// tree of its post.
func (s *service) Thread(ctx context.Context, commentID string) (*Node, error) {
	c, err := s.getByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	tree, err := s.TreeForPost(ctx, c.PostID)
	if err != nil {
		return nil, err
	}

	node := FindByID(tree, commentID)
	if node == nil {
		return nil, ErrCommentNotFound
	}
	return node, nil
}

func (s *service) getByID(ctx context.Context, id string) (*Comment, error) {
	const q = `
		SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = $1
	`
	var c Comment
	err := scanComment(s.db.QueryRow(ctx, q, id), &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (s *service) ensurePostExists(ctx context.Context, postID string) error {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`
	if err := s.db.QueryRow(ctx, q, postID).Scan(&exists); err != nil {
		return fmt.Errorf("check post: %w", err)
	}
	if !exists {
		return ErrPostNotFound
	}
	return nil
}

// collectDescendants walks the reply graph depth-first, fetching each level
// before recursing into it. No depth guard here: the rows came from storage,
// and a partial delete would be worse than a long one.
func (s *service) collectDescendants(ctx context.Context, commentID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM comments WHERE parent_id = $1`, commentID)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}

	var direct []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		direct = append(direct, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}

	all := direct
	for _, id := range direct {
		nested, err := s.collectDescendants(ctx, id)
		if err != nil {
			return nil, err
		}
		all = append(all, nested...)
	}
	return all, nil
}

func (s *service) queryNodes(ctx context.Context, q string, args ...any) ([]*Node, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	out := []*Node{}
	for rows.Next() {
		var n Node
		if err := rows.Scan(
			&n.ID, &n.PostID, &n.AuthorID, &n.ParentID, &n.Content, &n.CreatedAt, &n.UpdatedAt,
			&n.Author.ID, &n.Author.Name, &n.Author.Email, &n.Author.Image,
			&n.Counts.Replies, &n.Counts.Likes,
		); err != nil {
			return nil, err
		}
		n.Replies = []*Node{}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	return out, nil
}

func scanComment(row pgx.Row, c *Comment) error {
	return row.Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.ParentID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
		&c.Author.ID, &c.Author.Name, &c.Author.Email, &c.Author.Image,
	)
}
