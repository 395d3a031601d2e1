package follow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pulse/internal/database"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrUserNotFound     = errors.New("user not found")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
)

type Service interface {
	Follow(ctx context.Context, followerID, followeeID string) (*Follow, error)
	Unfollow(ctx context.Context, followerID, followeeID string) error
	Followers(ctx context.Context, userID string) ([]string, error)
	Following(ctx context.Context, userID string) ([]string, error)
	FollowersCount(ctx context.Context, userID string) (int64, error)
	FollowingCount(ctx context.Context, userID string) (int64, error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
}

type service struct {
	db  database.Service
	now func() time.Time
}

func NewService(db database.Service) Service {
	return &service{db: db, now: time.Now}
}

func (s *service) Follow(ctx context.Context, followerID, followeeID string) (*Follow, error) {
	if followerID == "" || followeeID == "" {
		return nil, ErrInvalidInput
	}
	if followerID == followeeID {
		return nil, ErrSelfFollow
	}
	if err := s.ensureUserExists(ctx, followeeID); err != nil {
		return nil, err
	}

	f := &Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  s.now(),
	}

	const q = `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	res, err := s.db.Exec(ctx, q, f.FollowerID, f.FolloweeID, f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert follow: %w", err)
	}
	if res.RowsAffected() == 0 {
		return nil, ErrAlreadyFollowing
	}

	return f, nil
}

func (s *service) Unfollow(ctx context.Context, followerID, followeeID string) error {
	const q = `DELETE FROM follows WHERE follower_id=$1 AND followee_id=$2`

	res, err := s.db.Exec(ctx, q, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFollowing
	}
	return nil
}

func (s *service) Followers(ctx context.Context, userID string) ([]string, error) {
	return s.listIDs(ctx, `SELECT follower_id FROM follows WHERE followee_id=$1 ORDER BY created_at DESC`, userID)
}

func (s *service) Following(ctx context.Context, userID string) ([]string, error) {
	return s.listIDs(ctx, `SELECT followee_id FROM follows WHERE follower_id=$1 ORDER BY created_at DESC`, userID)
}

func (s *service) FollowersCount(ctx context.Context, userID string) (int64, error) {
	const q = `SELECT COUNT(*) FROM follows WHERE followee_id=$1`

	var cnt int64
	err := s.db.QueryRow(ctx, q, userID).Scan(&cnt)
	return cnt, err
}

func (s *service) FollowingCount(ctx context.Context, userID string) (int64, error) {
	const q = `SELECT COUNT(*) FROM follows WHERE follower_id=$1`

	var cnt int64
	err := s.db.QueryRow(ctx, q, userID).Scan(&cnt)
	return cnt, err
}

func (s *service) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id=$1 AND followee_id=$2)`

	var following bool
	if err := s.db.QueryRow(ctx, q, followerID, followeeID).Scan(&following); err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return following, nil
}

func (s *service) ensureUserExists(ctx context.Context, userID string) error {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`

	var exists bool
	if err := s.db.QueryRow(ctx, q, userID).Scan(&exists); err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

func (s *service) listIDs(ctx context.Context, q, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list follows: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
