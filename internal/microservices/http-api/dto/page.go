package dto

// Page is the paginated envelope of every list endpoint.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPage creates a paginated response
func NewPage[T any](data []T, total int64, page, pageSize int) *Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize != 0 {
			totalPages++
		}
	}

	return &Page[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// MapPage converts list items with fn and wraps them in a Page.
func MapPage[M, T any](items []M, total int64, page, pageSize int, fn func(*M) T) *Page[T] {
	data := make([]T, 0, len(items))
	for i := range items {
		data = append(data, fn(&items[i]))
	}
	return NewPage(data, total, page, pageSize)
}

// PageQuery is bound from ?page=&page_size=.
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Normalize fills defaults for missing values.
func (q PageQuery) Normalize(defaultSize int) (page, pageSize int) {
	page, pageSize = q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultSize
	}
	return page, pageSize
}
