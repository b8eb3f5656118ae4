package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/access"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"
)

type GenreHandler struct {
	svc      service.GenreService
	pageSize int
}

func NewGenreHandler(svc service.GenreService, pageSize int) *GenreHandler {
	return &GenreHandler{svc: svc, pageSize: pageSize}
}

func (h *GenreHandler) RegisterRoutes(rg *gin.RouterGroup) {
	gate := middleware.Require(access.AdminOrReadOnly)
	rg.GET("/", gate, h.List)
	rg.POST("/", gate, h.Create)
	rg.DELETE("/:slug/", gate, h.Delete)
}

func (h *GenreHandler) List(c *gin.Context) {
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

func (h *GenreHandler) Create(c *gin.Context) {
	var in dto.CreateGenreDTO
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

func (h *GenreHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
