package routes

import (
	"github.com/gin-gonic/gin"

	"fitforge/internal/controllers"
	"fitforge/internal/middleware"
	"fitforge/internal/models"
)

func TrainerRoutes(r *gin.Engine, h handlers, tokens *middleware.TokenMaker) {
	trainer := r.Group("")
	trainer.Use(middleware.RequireAuth(tokens), middleware.RequireRole(models.RoleTrainer))
	{
		trainer.GET("/trainer/dashboard", controllers.Dashboard("Welcome Trainer!"))
		trainer.GET("/slots", h.slots.List)
		trainer.POST("/slots", h.slots.Create)
		trainer.DELETE("/slots/:id", h.slots.Delete)
	}
}
