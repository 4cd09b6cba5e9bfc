package routes

import (
	"github.com/gin-gonic/gin"
)

func PublicRoutes(r *gin.Engine, h handlers) {
	classes := r.Group("/classes")
	{
		classes.GET("", h.classes.List)
		classes.GET("/featured", h.classes.Featured)
		classes.GET("/paged", h.classes.Paged)
		classes.GET("/search", h.classes.Search)
		classes.GET("/:id", h.classes.Get)
		classes.GET("/:id/trainers", h.classes.Trainers)
	}

	trainers := r.Group("/trainers")
	{
		trainers.GET("", h.trainers.List)
		trainers.GET("/team", h.trainers.Team)
		trainers.GET("/specialization/:specialization", h.trainers.BySpecialization)
		trainers.GET("/:id", h.trainers.Get)
	}

	r.GET("/reviews", h.community.ListReviews)
	r.GET("/posts", h.community.ListPosts)
	r.GET("/posts/:id", h.community.GetPost)
	r.POST("/subscribers", h.community.Subscribe)

	// authenticated by the processor's signature, not a bearer token
	r.POST("/webhooks/stripe", h.payments.Webhook)
}
