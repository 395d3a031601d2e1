package likes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pulse/internal/database"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("subject not found")
)

// Service toggles likes on posts and comments. The toggle relies on the
// (subject_id, user_id) unique constraint: an insert that conflicts means the
// like already exists, so the toggle flips to a delete. Concurrent toggles for
// the same pair cannot double-insert.
type Service interface {
	TogglePostLike(ctx context.Context, userID, postID string) (*ToggleResult, error)
	ToggleCommentLike(ctx context.Context, userID, commentID string) (*ToggleResult, error)
	PostLikeCount(ctx context.Context, postID string) (int64, error)
	CommentLikeCount(ctx context.Context, commentID string) (int64, error)
	IsPostLiked(ctx context.Context, userID, postID string) (bool, error)
}

type service struct {
	db database.Service

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

type likeTable struct {
	name    string
	subject string
	parent  string
}

var (
	postLikes    = likeTable{name: "post_likes", subject: "post_id", parent: "posts"}
	commentLikes = likeTable{name: "comment_likes", subject: "comment_id", parent: "comments"}
)

func (s *service) TogglePostLike(ctx context.Context, userID, postID string) (*ToggleResult, error) {
	return s.toggle(ctx, postLikes, userID, postID)
}

func (s *service) ToggleCommentLike(ctx context.Context, userID, commentID string) (*ToggleResult, error) {
	return s.toggle(ctx, commentLikes, userID, commentID)
}

func (s *service) toggle(ctx context.Context, t likeTable, userID, subjectID string) (*ToggleResult, error) {
	if userID == "" || subjectID == "" {
		return nil, ErrInvalidInput
	}
	if err := s.ensureSubjectExists(ctx, t, subjectID); err != nil {
		return nil, err
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (id, %s, user_id, created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (%s, user_id) DO NOTHING
	`, t.name, t.subject, t.subject)

	res, err := s.db.Exec(ctx, insert, s.newID(), subjectID, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("insert like: %w", err)
	}

	liked := res.RowsAffected() > 0
	if !liked {
		// conflict: the like already existed, flip it off
		del := fmt.Sprintf(`DELETE FROM %s WHERE %s=$1 AND user_id=$2`, t.name, t.subject)
		if _, err := s.db.Exec(ctx, del, subjectID, userID); err != nil {
			return nil, fmt.Errorf("delete like: %w", err)
		}
	}

	count, err := s.count(ctx, t, subjectID)
	if err != nil {
		return nil, err
	}

	result := &ToggleResult{Action: "unliked", Liked: false, Count: count}
	if liked {
		result.Action = "liked"
		result.Liked = true
	}
	return result, nil
}

func (s *service) PostLikeCount(ctx context.Context, postID string) (int64, error) {
	return s.count(ctx, postLikes, postID)
}

func (s *service) CommentLikeCount(ctx context.Context, commentID string) (int64, error) {
	return s.count(ctx, commentLikes, commentID)
}

func (s *service) IsPostLiked(ctx context.Context, userID, postID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id=$1 AND user_id=$2)`
	var liked bool
	if err := s.db.QueryRow(ctx, q, postID, userID).Scan(&liked); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return liked, nil
}

func (s *service) count(ctx context.Context, t likeTable, subjectID string) (int64, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s=$1`, t.name, t.subject)
	var cnt int64
	if err := s.db.QueryRow(ctx, q, subjectID).Scan(&cnt); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return cnt, nil
}

func (s *service) ensureSubjectExists(ctx context.Context, t likeTable, subjectID string) error {
	q := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id=$1)`, t.parent)
	var exists bool
	if err := s.db.QueryRow(ctx, q, subjectID).Scan(&exists); err != nil {
		return fmt.Errorf("check subject: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}
