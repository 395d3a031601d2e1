package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pulse/internal/database"

	"github.com/jackc/pgx/v5"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is a user plus the aggregates their profile page shows
type Profile struct {
	User
	Counts struct {
		Posts     int64 `json:"posts"`
		Followers int64 `json:"followers"`
		Following int64 `json:"following"`
	} `json:"_count"`
}

type Service interface {
	GetByID(ctx context.Context, userID string) (*User, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}

type service struct {
	db database.Service
}

func NewService(db database.Service) Service {
	return &service{db: db}
}

func (s *service) GetByID(ctx context.Context, userID string) (*User, error) {
	const q = `
		SELECT id, name, email, image, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var u User
	err := s.db.QueryRow(ctx, q, userID).Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Profile{User: *u}

	const q = `
		SELECT
			(SELECT COUNT(*) FROM posts WHERE author_id = $1),
			(SELECT COUNT(*) FROM follows WHERE followee_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)
	`
	if err := s.db.QueryRow(ctx, q, userID).Scan(&p.Counts.Posts, &p.Counts.Followers, &p.Counts.Following); err != nil {
		return nil, fmt.Errorf("profile counts: %w", err)
	}

	return p, nil
}
