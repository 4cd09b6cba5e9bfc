package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fitforge/internal/models"
	"fitforge/internal/services"
)

type ApplicationController struct {
	apps *services.ApplicationService
}

func NewApplicationController(apps *services.ApplicationService) *ApplicationController {
	return &ApplicationController{apps: apps}
}

func (h *ApplicationController) Apply(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var details models.ApplicationDetails
	if !bindJSON(c, &details) {
		return
	}
	app, err := h.apps.Submit(c.Request.Context(), a, details)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationController) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	apps, err := h.apps.List(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationController) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	app, err := h.apps.Get(c.Request.Context(), id, a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationController) Confirm(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	trainer, err := h.apps.Approve(c.Request.Context(), id, a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "trainer": trainer})
}

func (h *ApplicationController) Reject(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.RejectInput
	if !bindJSON(c, &input) {
		return
	}
	app, err := h.apps.Reject(c.Request.Context(), id, input, a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": app})
}

func (h *ApplicationController) ActivityLog(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	apps, err := h.apps.ActivityLog(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// ListTrainers lists user accounts holding the trainer role.
func (h *ApplicationController) ListTrainers(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	users, err := h.apps.ListTrainerUsers(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// ListUsers lists accounts, filtered by ?role= when given.
func (h *ApplicationController) ListUsers(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var filter services.UserFilter
	if !bindQuery(c, &filter) {
		return
	}
	users, err := h.apps.ListUsers(c.Request.Context(), a, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *ApplicationController) Demote(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.apps.Demote(c.Request.Context(), id, a); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
