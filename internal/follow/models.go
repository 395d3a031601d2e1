package follow

import "time"

type Follow struct {
	FollowerID string    `json:"follower_id"`
	FolloweeID string    `json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type CountResponse struct {
	UserID string `json:"user_id"`
	Count  int64  `json:"count"`
}

type FollowingResponse struct {
	UserID    string `json:"user_id"`
	Following bool   `json:"following"`
}
