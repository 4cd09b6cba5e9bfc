package routes

import (
	"github.com/gin-gonic/gin"

	"fitforge/internal/controllers"
	"fitforge/internal/middleware"
	"fitforge/internal/models"
)

func MemberRoutes(r *gin.Engine, h handlers, tokens *middleware.TokenMaker) {
	member := r.Group("")
	member.Use(middleware.RequireAuth(tokens), middleware.RequireRole(models.RoleMember))
	{
		member.GET("/member/dashboard", controllers.Dashboard("Welcome Member!"))
		member.POST("/apply-trainer", h.applications.Apply)
		member.POST("/slots/:id/book", h.slots.Book)
		member.GET("/booked-trainer", h.slots.Booked)
		member.POST("/reviews", h.community.CreateReview)
		member.POST("/payments/bookings", h.payments.Book)
		member.GET("/member/booked-trainers", h.payments.MemberBookings)
	}
}
