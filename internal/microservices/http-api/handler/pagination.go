package handler

import (
	"github.com/gin-gonic/gin"

	"yamdb/internal/microservices/http-api/dto"
)

// pageParams reads ?page= and ?page_size=, falling back to defaultSize.
func pageParams(c *gin.Context, defaultSize int) (page, pageSize int, ok bool) {
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return 0, 0, false
	}
	page, pageSize = q.Normalize(defaultSize)
	return page, pageSize, true
}
