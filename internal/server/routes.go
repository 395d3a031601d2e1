package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes builds the gin engine with all application routes.
// Read endpoints resolve the session when present so responses can be
// personalized; write endpoints require one.
func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", s.healthHandler)
	r.POST("/auth/logout", s.logoutHandler)

	api := r.Group("/api")
	api.Use(OptionalSessionMiddleware(s.sessions))

	authed := api.Group("")
	authed.Use(RequireSessionMiddleware(s.sessions))

	// posts
	api.GET("/posts", s.postsHandler.GetAllPosts)
	api.GET("/posts/:post_id", s.postsHandler.GetPost)
	authed.POST("/posts", s.postsHandler.CreatePost)
	authed.PATCH("/posts/:post_id", s.postsHandler.UpdatePost)
	authed.DELETE("/posts/:post_id", s.postsHandler.DeletePost)
	authed.GET("/feed", s.postsHandler.GetFeed)

	// comments
	api.GET("/posts/:post_id/comments", s.commentsHandler.ListTree)
	api.GET("/posts/:post_id/comments/roots", s.commentsHandler.ListRoots)
	api.GET("/comments/:id/replies", s.commentsHandler.ListReplies)
	api.GET("/comments/:id/thread", s.commentsHandler.GetThread)
	authed.POST("/comments", s.commentsHandler.Create)
	authed.DELETE("/comments/:id", s.commentsHandler.Delete)

	// likes
	api.GET("/posts/:post_id/likes", s.likesHandler.PostLikeCount)
	authed.GET("/posts/:post_id/liked", s.likesHandler.IsPostLiked)
	authed.POST("/posts/:post_id/like", s.likesHandler.TogglePostLike)
	authed.POST("/comments/:id/like", s.likesHandler.ToggleCommentLike)

	// follow graph
	authed.POST("/follow/:user_id", s.followHandler.Follow)
	authed.DELETE("/follow/:user_id", s.followHandler.Unfollow)
	authed.GET("/follow/:user_id/status", s.followHandler.IsFollowing)
	api.GET("/users/:user_id/followers", s.followHandler.Followers)
	api.GET("/users/:user_id/following", s.followHandler.Following)
	api.GET("/users/:user_id/followers/count", s.followHandler.FollowersCount)
	api.GET("/users/:user_id/following/count", s.followHandler.FollowingCount)

	// users
	api.GET("/users/:user_id", s.usersHandler.GetProfile)
	api.GET("/users/:user_id/posts", s.postsHandler.GetUserPosts)

	// file uploads are only routed when storage came up
	if s.storageHandler != nil {
		files := authed.Group("/files")
		{
			files.POST("/upload-url", s.storageHandler.GenerateUploadURL)
			files.POST("/download-url", s.storageHandler.GenerateDownloadURL)
			files.DELETE("/*key", s.storageHandler.DeleteFile)
		}
	}

	return r
}

func corsOrigins() []string {
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		return strings.Split(v, ",")
	}
	return []string{"http://localhost:5173"}
}

// logoutHandler revokes the caller's session. Issuing sessions is the auth
// service's job; revoking them happens here so the cookie dies with the app.
func (s *Server) logoutHandler(c *gin.Context) {
	sessionID, err := c.Cookie("session_id")
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
		return
	}

	if err := s.sessions.Delete(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to end session"})
		return
	}

	c.SetCookie("session_id", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) healthHandler(c *gin.Context) {
	response := make(map[string]any)
	response["database"] = s.db.Health()

	if s.sessionStore != nil {
		redisHealth := map[string]string{"status": "up"}
		if err := s.sessionStore.Health(c.Request.Context()); err != nil {
			redisHealth["status"] = "down"
			redisHealth["error"] = err.Error()
		}
		response["redis"] = redisHealth
	}

	if s.storage != nil {
		storageHealth := make(map[string]string)
		if err := s.storage.Health(c.Request.Context()); err != nil {
			storageHealth["status"] = "down"
			storageHealth["error"] = err.Error()
		} else {
			storageHealth["status"] = "up"
		}
		response["storage"] = storageHealth
	}

	c.JSON(http.StatusOK, response)
}
