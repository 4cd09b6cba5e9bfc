package routes

import (
	"github.com/gin-gonic/gin"

	"fitforge/internal/middleware"
	"fitforge/internal/models"
)

func AuthRoutes(r *gin.Engine, h handlers, d Deps) {
	auth := r.Group("/auth")
	auth.Use(middleware.RateLimit(d.AuthRate, d.AuthBurst))
	{
		auth.POST("/register", h.auth.Register)
		auth.POST("/login", h.auth.Login)
		auth.POST("/firebase", h.auth.FirebaseLogin)
	}

	// any signed-in role
	signedIn := r.Group("")
	signedIn.Use(middleware.RequireAuth(d.Tokens))
	{
		signedIn.GET("/me", h.auth.Me)
		signedIn.PUT("/profile", h.auth.UpdateProfile)
		signedIn.GET("/activity-log", h.applications.ActivityLog)
		signedIn.POST("/posts/:id/upvote", h.community.Upvote)
		signedIn.POST("/posts/:id/downvote", h.community.Downvote)
		signedIn.POST("/payments/intent", h.payments.CreateIntent)
	}

	writers := r.Group("")
	writers.Use(middleware.RequireAuth(d.Tokens), middleware.RequireRole(models.RoleAdmin, models.RoleTrainer))
	{
		writers.POST("/posts", h.community.CreatePost)
	}
}
