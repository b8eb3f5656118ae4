package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/access"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
)

type TitleHandler struct {
	svc      service.TitleService
	pageSize int
}

func NewTitleHandler(svc service.TitleService, pageSize int) *TitleHandler {
	return &TitleHandler{svc: svc, pageSize: pageSize}
}

func (h *TitleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	gate := middleware.Require(access.AdminOrReadOnly)
	rg.GET("/", gate, h.List)
	rg.POST("/", gate, h.Create)
	rg.GET("/:title_id/", gate, h.Get)
	rg.PATCH("/:title_id/", gate, h.Update)
	rg.DELETE("/:title_id/", gate, h.Delete)
}

type titleQuery struct {
	dto.PageQuery
	Category string `form:"category"`
	Genre    string `form:"genre"`
	Name     string `form:"name"`
	Year     int    `form:"year" binding:"omitempty,min=0"`
}

// List handles GET /titles/?category=&genre=&name=&year=
func (h *TitleHandler) List(c *gin.Context) {
	var q titleQuery
	if !bindQuery(c, &q) {
		return
	}
	page, pageSize := q.Normalize(h.pageSize)
	filter := repository.TitleFilter{
		Category: q.Category,
		Genre:    q.Genre,
		Name:     q.Name,
		Year:     q.Year,
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.List(ctx, filter, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "title_id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TitleHandler) Create(c *gin.Context) {
	var in dto.CreateTitleDTO
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

func (h *TitleHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "title_id")
	if !ok {
		return
	}
	var in dto.UpdateTitleDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Update(ctx, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "title_id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
