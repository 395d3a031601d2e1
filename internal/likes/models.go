package likes

import "time"

type Like struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToggleResult reports the state flip performed by a toggle call
type ToggleResult struct {
	Action string `json:"action"` // "liked" or "unliked"
	Liked  bool   `json:"liked"`
	Count  int64  `json:"count"`
}

type CountResponse struct {
	SubjectID string `json:"subject_id"`
	Count     int64  `json:"count"`
}

type LikedResponse struct {
	SubjectID string `json:"subject_id"`
	Liked     bool   `json:"liked"`
}
