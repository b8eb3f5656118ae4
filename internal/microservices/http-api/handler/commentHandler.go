package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/access"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"
)

type CommentHandler struct {
	svc      service.CommentService
	pageSize int
}

func NewCommentHandler(svc service.CommentService, pageSize int) *CommentHandler {
	return &CommentHandler{svc: svc, pageSize: pageSize}
}

func (h *CommentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	gate := middleware.Require(access.AuthenticatedOrReadOnly)
	rg.GET("/", gate, h.List)
	rg.POST("/", gate, h.Create)
	rg.GET("/:comment_id/", gate, h.Get)
	rg.PATCH("/:comment_id/", gate, h.Update)
	rg.DELETE("/:comment_id/", gate, h.Delete)
}

// parents reads the title and review ids every comment route is nested under.
func parents(c *gin.Context) (titleID, reviewID int64, ok bool) {
	if titleID, ok = idParam(c, "title_id"); !ok {
		return 0, 0, false
	}
	if reviewID, ok = idParam(c, "review_id"); !ok {
		return 0, 0, false
	}
	return titleID, reviewID, true
}

func (h *CommentHandler) List(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	page, pageSize, ok := pageParams(c, h.pageSize)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.List(ctx, titleID, reviewID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) Get(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "comment_id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Get(ctx, titleID, reviewID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) Create(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	var in dto.CreateCommentDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Create(ctx, middleware.IdentityFrom(c), titleID, reviewID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CommentHandler) Update(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "comment_id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	identity := middleware.IdentityFrom(c)
	if err := h.svc.Authorize(ctx, identity, access.ActionUpdate, titleID, reviewID, id); err != nil {
		respondError(c, err)
		return
	}
	var in dto.UpdateCommentDTO
	if !bindJSON(c, &in) {
		return
	}

	resp, err := h.svc.Update(ctx, identity, titleID, reviewID, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "comment_id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, middleware.IdentityFrom(c), titleID, reviewID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
