package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fitforge/internal/services"
)

// TrainerController serves public trainer profiles.
type TrainerController struct {
	catalog *services.CatalogService
}

func NewTrainerController(catalog *services.CatalogService) *TrainerController {
	return &TrainerController{catalog: catalog}
}

func (h *TrainerController) List(c *gin.Context) {
	trainers, err := h.catalog.ListTrainers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trainers)
}

func (h *TrainerController) Team(c *gin.Context) {
	trainers, err := h.catalog.Team(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trainers)
}

func (h *TrainerController) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	trainer, err := h.catalog.GetTrainer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trainer)
}

func (h *TrainerController) BySpecialization(c *gin.Context) {
	trainers, err := h.catalog.TrainersBySpecialization(c.Request.Context(), c.Param("specialization"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trainers)
}
