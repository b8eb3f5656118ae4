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

type CategoryService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.Page[dto.CategoryResponse], error)
	Create(ctx context.Context, req dto.CreateCategoryDTO) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(r repository.CategoryRepository) CategoryService {
	return &categoryService{repo: r}
}

func (s *categoryService) List(ctx context.Context, search string, page, pageSize int) (*dto.Page[dto.CategoryResponse], error) {
	list, total, err := s.repo.List(ctx, strings.TrimSpace(search), page, pageSize)
	if err != nil {
		return nil, err
	}
	return dto.MapPage(list, total, page, pageSize, dto.CategoryFromModel), nil
}

func (s *categoryService) Create(ctx context.Context, req dto.CreateCategoryDTO) (*dto.CategoryResponse, error) {
	c := models.Category{Name: strings.TrimSpace(req.Name), Slug: strings.TrimSpace(req.Slug)}

	v := &ValidationError{}
	if c.Name == "" {
		v.Add("name", "This field may not be blank.")
	}
	checkSlug(v, c.Slug)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("slug", "category with this slug already exists.")
		}
		return nil, err
	}
	resp := dto.CategoryFromModel(&c)
	return &resp, nil
}

func (s *categoryService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.Delete(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}
