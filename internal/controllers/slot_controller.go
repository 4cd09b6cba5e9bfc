package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fitforge/internal/services"
)

type SlotController struct {
	slots *services.SlotService
}

func NewSlotController(slots *services.SlotService) *SlotController {
	return &SlotController{slots: slots}
}

func (h *SlotController) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	slots, err := h.slots.List(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (h *SlotController) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input services.SlotInput
	if !bindJSON(c, &input) {
		return
	}
	slot, err := h.slots.Create(c.Request.Context(), a, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

func (h *SlotController) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.slots.Delete(c.Request.Context(), a, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *SlotController) Book(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	slot, err := h.slots.Book(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// Booked lists the member's claimed slots.
func (h *SlotController) Booked(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	slots, err := h.slots.Booked(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}
