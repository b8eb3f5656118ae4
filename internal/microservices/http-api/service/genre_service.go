package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type GenreService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.Page[dto.GenreResponse], error)
	Create(ctx context.Context, req dto.CreateGenreDTO) (*dto.GenreResponse, error)
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	repo repository.GenreRepository
}

func NewGenreService(r repository.GenreRepository) GenreService {
	return &genreService{repo: r}
}

func (s *genreService) List(ctx context.Context, search string, page, pageSize int) (*dto.Page[dto.GenreResponse], error) {
	list, total, err := s.repo.List(ctx, strings.TrimSpace(search), page, pageSize)
	if err != nil {
		return nil, err
	}
	return dto.MapPage(list, total, page, pageSize, dto.GenreFromModel), nil
}

func (s *genreService) Create(ctx context.Context, req dto.CreateGenreDTO) (*dto.GenreResponse, error) {
	g := models.Genre{Name: strings.TrimSpace(req.Name), Slug: strings.TrimSpace(req.Slug)}

	v := &ValidationError{}
	if g.Name == "" {
		v.Add("name", "This field may not be blank.")
	}
	checkSlug(v, g.Slug)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &g); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("slug", "genre with this slug already exists.")
		}
		return nil, err
	}
	resp := dto.GenreFromModel(&g)
	return &resp, nil
}

func (s *genreService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.Delete(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGenreNotFound
		}
		return err
	}
	return nil
}
