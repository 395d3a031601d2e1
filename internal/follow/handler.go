package follow

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func getUserID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

// POST /follow/:user_id
func (h *Handler) Follow(c *gin.Context) {
	followerID := getUserID(c)
	if followerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	f, err := h.svc.Follow(c.Request.Context(), followerID, c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// DELETE /follow/:user_id
func (h *Handler) Unfollow(c *gin.Context) {
	followerID := getUserID(c)
	if followerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.svc.Unfollow(c.Request.Context(), followerID, c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// GET /users/:user_id/followers
func (h *Handler) Followers(c *gin.Context) {
	ids, err := h.svc.Followers(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": ids})
}

// GET /users/:user_id/following
func (h *Handler) Following(c *gin.Context) {
	ids, err := h.svc.Following(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": ids})
}

// GET /users/:user_id/followers/count
func (h *Handler) FollowersCount(c *gin.Context) {
	userID := c.Param("user_id")

	cnt, err := h.svc.FollowersCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{UserID: userID, Count: cnt})
}

// GET /users/:user_id/following/count
func (h *Handler) FollowingCount(c *gin.Context) {
	userID := c.Param("user_id")

	cnt, err := h.svc.FollowingCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{UserID: userID, Count: cnt})
}

// GET /follow/:user_id/status
func (h *Handler) IsFollowing(c *gin.Context) {
	followerID := getUserID(c)
	if followerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	followeeID := c.Param("user_id")
	following, err := h.svc.IsFollowing(c.Request.Context(), followerID, followeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, FollowingResponse{UserID: followeeID, Following: following})
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrSelfFollow), errors.Is(err, ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAlreadyFollowing), errors.Is(err, ErrNotFollowing):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
