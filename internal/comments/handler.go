package comments

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler { return &Handler{svc: svc} }

func getUserID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

// GET /posts/:post_id/comments
//
// Query parameters: sort (newest|oldest|mostLiked|mostReplies), page, limit,
// content, author, author_id, min_likes, max_depth, stats=true, display=true
// (+ display_max_depth, collapse_after_depth).
func (h *Handler) ListTree(c *gin.Context) {
	postID := c.Param("post_id")

	page, limit, ok := paginationParams(c)
	if !ok {
		return
	}

	sortBy := ParseSortCriterion(c.Query("sort"))

	filter := Filter{
		Content:    c.Query("content"),
		AuthorID:   c.Query("author_id"),
		AuthorName: c.Query("author"),
	}
	var ok2 bool
	if filter.MinLikes, ok2 = optionalIntParam(c, "min_likes"); !ok2 {
		return
	}
	if filter.MaxDepth, ok2 = optionalIntParam(c, "max_depth"); !ok2 {
		return
	}

	tree, err := h.svc.TreeForPost(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err)
		return
	}

	processed := Sort(tree, sortBy, true)
	if !filter.empty() {
		processed = FilterTree(processed, filter)
	}

	paged := Paginate(processed, page, limit)

	response := gin.H{
		"comments":   paged.Comments,
		"pagination": paged.Pagination,
	}

	if c.Query("stats") == "true" {
		response["stats"] = Stats(tree)
	}

	if c.Query("display") == "true" {
		opts := DisplayOptions{}
		if opts.MaxDepth, ok2 = optionalIntParam(c, "display_max_depth"); !ok2 {
			return
		}
		if opts.CollapseAfterDepth, ok2 = optionalIntParam(c, "collapse_after_depth"); !ok2 {
			return
		}
		response["display"] = FormatForDisplay(paged.Comments, opts)
	}

	c.JSON(http.StatusOK, response)
}

// GET /posts/:post_id/comments/roots
// Flat newest-first page of top-level comments, counts included.
func (h *Handler) ListRoots(c *gin.Context) {
	postID := c.Param("post_id")

	page, limit, ok := paginationParams(c)
	if !ok {
		return
	}

	roots, err := h.svc.RootComments(c.Request.Context(), postID, limit, (page-1)*limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": roots,
		"pagination": gin.H{
			"page":    page,
			"limit":   limit,
			"hasMore": len(roots) == limit,
		},
	})
}

// GET /comments/:id/replies
func (h *Handler) ListReplies(c *gin.Context) {
	commentID := c.Param("id")

	page, limit, ok := paginationParams(c)
	if !ok {
		return
	}

	replies, err := h.svc.Replies(c.Request.Context(), commentID, limit, (page-1)*limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"replies": replies,
		"pagination": gin.H{
			"page":    page,
			"limit":   limit,
			"hasMore": len(replies) == limit,
		},
	})
}

// GET /comments/:id/thread
func (h *Handler) GetThread(c *gin.Context) {
	thread, err := h.svc.Thread(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{"thread": thread}
	if c.Query("stats") == "true" {
		response["stats"] = Stats([]*Node{thread})
	}

	c.JSON(http.StatusOK, response)
}

// POST /comments
func (h *Handler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	comment, err := h.svc.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DELETE /comments/:id
func (h *Handler) Delete(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrCommentNotFound), errors.Is(err, ErrParentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotCommentOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrParentMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func paginationParams(c *gin.Context) (page, limit int, ok bool) {
	var err error
	page, err = strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page parameter"})
		return 0, 0, false
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
		return 0, 0, false
	}
	return page, limit, true
}

func optionalIntParam(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter"})
		return 0, false
	}
	return n, true
}
