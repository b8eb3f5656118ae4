package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/access"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"
)

type CategoryHandler struct {
	svc      service.CategoryService
	pageSize int
}

func NewCategoryHandler(svc service.CategoryService, pageSize int) *CategoryHandler {
	return &CategoryHandler{svc: svc, pageSize: pageSize}
}

func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	gate := middleware.Require(access.AdminOrReadOnly)
	rg.GET("/", gate, h.List)
	rg.POST("/", gate, h.Create)
	rg.DELETE("/:slug/", gate, h.Delete)
}

// List handles GET /categories/?search= (name prefix)
func (h *CategoryHandler) List(c *gin.Context) {
	page, pageSize, ok := pageParams(c, h.pageSize)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.List(ctx, c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var in dto.CreateCategoryDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Create(ctx, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
