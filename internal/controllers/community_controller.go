package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fitforge/internal/models"
	"fitforge/internal/services"
)

type CommunityController struct {
	community *services.CommunityService
}

func NewCommunityController(community *services.CommunityService) *CommunityController {
	return &CommunityController{community: community}
}

func (h *CommunityController) ListPosts(c *gin.Context) {
	var req services.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	page, err := h.community.ListPosts(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *CommunityController) GetPost(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	post, err := h.community.GetPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *CommunityController) CreatePost(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input services.PostInput
	if !bindJSON(c, &input) {
		return
	}
	post, err := h.community.CreatePost(c.Request.Context(), a, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *CommunityController) Upvote(c *gin.Context) {
	h.vote(c, models.VoteUp)
}

func (h *CommunityController) Downvote(c *gin.Context) {
	h.vote(c, models.VoteDown)
}

func (h *CommunityController) vote(c *gin.Context, dir models.VoteDirection) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	post, err := h.community.Vote(c.Request.Context(), a, id, dir)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"upvotes":   len(post.Upvotes),
		"downvotes": len(post.Downvotes),
		"post":      post,
	})
}

func (h *CommunityController) CreateReview(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input services.ReviewInput
	if !bindJSON(c, &input) {
		return
	}
	review, err := h.community.CreateReview(c.Request.Context(), a, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *CommunityController) ListReviews(c *gin.Context) {
	reviews, err := h.community.ListReviews(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *CommunityController) Subscribe(c *gin.Context) {
	var input services.SubscribeInput
	if !bindJSON(c, &input) {
		return
	}
	sub, err := h.community.Subscribe(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *CommunityController) ListSubscribers(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	subs, err := h.community.ListSubscribers(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}
