package dto

import "yamdb/internal/microservices/http-api/models"

// Titles are written with category/genre slugs and read back with the
// nested objects and the computed rating.

// CreateTitleDTO used for POST /titles/
type CreateTitleDTO struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required,min=0"`
	Description string   `json:"description"`
	Category    string   `json:"category" binding:"omitempty,max=50"`
	Genre       []string `json:"genre" binding:"omitempty,dive,max=50"`
}

// UpdateTitleDTO used for PATCH /titles/:title_id/ (partial updates allowed).
// An empty category string detaches the category; a genre list replaces all links.
type UpdateTitleDTO struct {
	Name        *string   `json:"name,omitempty" binding:"omitempty,max=256"`
	Year        *int      `json:"year,omitempty" binding:"omitempty,min=0"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty" binding:"omitempty,max=50"`
	Genre       *[]string `json:"genre,omitempty"`
}

func (d CreateTitleDTO) ToModel() models.Title {
	return models.Title{
		Name:        d.Name,
		Year:        d.Year,
		Description: d.Description,
	}
}

func (d UpdateTitleDTO) ApplyTo(t *models.Title) {
	if d.Name != nil {
		t.Name = *d.Name
	}
	if d.Year != nil {
		t.Year = *d.Year
	}
	if d.Description != nil {
		t.Description = *d.Description
	}
}

// TitleWriteResponse mirrors the write payload
type TitleWriteResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Category    *string  `json:"category"`
	Genre       []string `json:"genre"`
}

// TitleReadResponse is returned by list and retrieve
type TitleReadResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *int              `json:"rating"`
	Description string            `json:"description"`
	Category    *CategoryResponse `json:"category"`
	Genre       []GenreResponse   `json:"genre"`
}

func TitleWriteFromModel(t *models.Title) TitleWriteResponse {
	resp := TitleWriteResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Description: t.Description,
		Genre:       make([]string, 0, len(t.Genres)),
	}
	if t.Category != nil {
		slug := t.Category.Slug
		resp.Category = &slug
	}
	for _, g := range t.Genres {
		resp.Genre = append(resp.Genre, g.Slug)
	}
	return resp
}

func TitleReadFromModel(t *models.Title) TitleReadResponse {
	resp := TitleReadResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       make([]GenreResponse, 0, len(t.Genres)),
	}
	if t.Category != nil {
		c := CategoryFromModel(t.Category)
		resp.Category = &c
	}
	for i := range t.Genres {
		resp.Genre = append(resp.Genre, GenreFromModel(&t.Genres[i]))
	}
	return resp
}
