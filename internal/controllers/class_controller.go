package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fitforge/internal/services"
)

type ClassController struct {
	catalog *services.CatalogService
}

func NewClassController(catalog *services.CatalogService) *ClassController {
	return &ClassController{catalog: catalog}
}

func (h *ClassController) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input services.ClassInput
	if !bindJSON(c, &input) {
		return
	}
	class, err := h.catalog.CreateClass(c.Request.Context(), a, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

func (h *ClassController) List(c *gin.Context) {
	classes, err := h.catalog.ListClasses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

func (h *ClassController) Featured(c *gin.Context) {
	classes, err := h.catalog.FeaturedClasses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

func (h *ClassController) Paged(c *gin.Context) {
	var req services.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	page, err := h.catalog.PagedClasses(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ClassController) Search(c *gin.Context) {
	var req services.ClassSearch
	if !bindQuery(c, &req) {
		return
	}
	page, err := h.catalog.SearchClasses(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ClassController) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	class, err := h.catalog.GetClass(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

// Trainers lists trainers whose expertise matches the class.
func (h *ClassController) Trainers(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	trainers, err := h.catalog.ClassTrainers(c.Request.Context(), id, queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trainers)
}
