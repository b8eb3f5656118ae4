package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/access"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"
)

// ReviewHandler serves /titles/:title_id/reviews/. The route gate turns away
// anonymous writes; ownership needs the loaded review and is checked by the
// service before any body is bound.
type ReviewHandler struct {
	svc      service.ReviewService
	pageSize int
}

func NewReviewHandler(svc service.ReviewService, pageSize int) *ReviewHandler {
	return &ReviewHandler{svc: svc, pageSize: pageSize}
}

func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup) {
	gate := middleware.Require(access.AuthenticatedOrReadOnly)
	rg.GET("/", gate, h.List)
	rg.POST("/", gate, h.Create)
	rg.GET("/:review_id/", gate, h.Get)
	rg.PATCH("/:review_id/", gate, h.Update)
	rg.DELETE("/:review_id/", gate, h.Delete)
}

func (h *ReviewHandler) List(c *gin.Context) {
	titleID, ok := idParam(c, "title_id")
	if !ok {
		return
	}
	page, pageSize, ok := pageParams(c, h.pageSize)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.List(ctx, titleID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, ok := idParam(c, "title_id")
	if !ok {
		return
	}
	id, ok := idParam(c, "review_id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Get(ctx, titleID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, ok := idParam(c, "title_id")
	if !ok {
		return
	}
	var in dto.CreateReviewDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Create(ctx, middleware.IdentityFrom(c), titleID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ReviewHandler) Update(c *gin.Context) {
	titleID, ok := idParam(c, "title_id")
	if !ok {
		return
	}
	id, ok := idParam(c, "review_id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	identity := middleware.IdentityFrom(c)
	if err := h.svc.Authorize(ctx, identity, access.ActionUpdate, titleID, id); err != nil {
		respondError(c, err)
		return
	}
	var in dto.UpdateReviewDTO
	if !bindJSON(c, &in) {
		return
	}

	resp, err := h.svc.Update(ctx, identity, titleID, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, ok := idParam(c, "title_id")
	if !ok {
		return
	}
	id, ok := idParam(c, "review_id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, middleware.IdentityFrom(c), titleID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
