package routes

import (
	"github.com/gin-gonic/gin"

	"fitforge/internal/controllers"
	"fitforge/internal/middleware"
	"fitforge/internal/models"
)

func AdminRoutes(r *gin.Engine, h handlers, tokens *middleware.TokenMaker) {
	guard := []gin.HandlerFunc{middleware.RequireAuth(tokens), middleware.RequireRole(models.RoleAdmin)}

	admin := r.Group("/admin")
	admin.Use(guard...)
	{
		admin.GET("/dashboard", controllers.Dashboard("Welcome Admin!"))
		admin.GET("/users", h.applications.ListUsers)
		admin.GET("/trainers", h.applications.ListTrainers)
		admin.PUT("/trainers/:id/demote", h.applications.Demote)
		admin.GET("/subscribers", h.community.ListSubscribers)
		admin.GET("/payments", h.payments.List)
		admin.GET("/payments/export", h.payments.Export)
		admin.GET("/balance", h.payments.Balance)
	}

	// admin-only endpoints that live outside /admin
	applications := r.Group("/applied-trainers")
	applications.Use(guard...)
	{
		applications.GET("", h.applications.List)
		applications.GET("/:id", h.applications.Get)
		applications.PUT("/:id/confirm", h.applications.Confirm)
		applications.PUT("/:id/reject", h.applications.Reject)
	}

	classes := r.Group("/classes")
	classes.Use(guard...)
	{
		classes.POST("", h.classes.Create)
	}
}
