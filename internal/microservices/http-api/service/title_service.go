package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.Page[dto.TitleReadResponse], error)
	Get(ctx context.Context, id int64) (*dto.TitleReadResponse, error)
	Create(ctx context.Context, req dto.CreateTitleDTO) (*dto.TitleWriteResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateTitleDTO) (*dto.TitleWriteResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titles     repository.TitleRepository
	categories repository.CategoryRepository
	genres     repository.GenreRepository
	now        func() time.Time
}

func NewTitleService(
	titles repository.TitleRepository,
	categories repository.CategoryRepository,
	genres repository.GenreRepository,
) TitleService {
	return &titleService{
		titles:     titles,
		categories: categories,
		genres:     genres,
		now:        time.Now,
	}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.Page[dto.TitleReadResponse], error) {
	list, total, err := s.titles.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	return dto.MapPage(list, total, page, pageSize, dto.TitleReadFromModel), nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleReadResponse, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.TitleReadFromModel(t)
	return &resp, nil
}

func (s *titleService) Create(ctx context.Context, req dto.CreateTitleDTO) (*dto.TitleWriteResponse, error) {
	t := req.ToModel()
	t.Name = strings.TrimSpace(t.Name)

	v := &ValidationError{}
	s.checkFields(v, &t)
	if req.Category != "" {
		if err := s.attachCategory(ctx, v, &t, req.Category); err != nil {
			return nil, err
		}
	}
	if err := s.attachGenres(ctx, v, &t, req.Genre); err != nil {
		return nil, err
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.titles.Create(ctx, &t); err != nil {
		return nil, err
	}
	resp := dto.TitleWriteFromModel(&t)
	return &resp, nil
}

func (s *titleService) Update(ctx context.Context, id int64, req dto.UpdateTitleDTO) (*dto.TitleWriteResponse, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.ApplyTo(t)
	t.Name = strings.TrimSpace(t.Name)

	v := &ValidationError{}
	s.checkFields(v, t)
	if req.Category != nil {
		if *req.Category == "" {
			t.CategoryID, t.Category = nil, nil
		} else if err := s.attachCategory(ctx, v, t, *req.Category); err != nil {
			return nil, err
		}
	}
	if req.Genre != nil {
		if err := s.attachGenres(ctx, v, t, *req.Genre); err != nil {
			return nil, err
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.titles.Update(ctx, t, req.Genre != nil); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	resp := dto.TitleWriteFromModel(t)
	return &resp, nil
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if err := s.titles.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTitleNotFound
		}
		return err
	}
	return nil
}

func (s *titleService) get(ctx context.Context, id int64) (*models.Title, error) {
	t, err := s.titles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *titleService) checkFields(v *ValidationError, t *models.Title) {
	if t.Name == "" {
		v.Add("name", "This field may not be blank.")
	}
	switch current := s.now().Year(); {
	case t.Year < 0:
		v.Add("year", "Ensure this value is greater than or equal to 0.")
	case t.Year > current:
		v.Add("year", fmt.Sprintf("Year cannot be later than %d.", current))
	}
}

func (s *titleService) attachCategory(ctx context.Context, v *ValidationError, t *models.Title, slug string) error {
	c, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			v.Add("category", fmt.Sprintf("Category %q does not exist.", slug))
			return nil
		}
		return err
	}
	t.CategoryID = &c.ID
	t.Category = c
	return nil
}

func (s *titleService) attachGenres(ctx context.Context, v *ValidationError, t *models.Title, slugs []string) error {
	slugs = uniqueSlugs(slugs)
	if len(slugs) == 0 {
		t.Genres = nil
		return nil
	}
	found, err := s.genres.FindBySlugs(ctx, slugs)
	if err != nil {
		return err
	}
	if len(found) != len(slugs) {
		known := make(map[string]bool, len(found))
		for _, g := range found {
			known[g.Slug] = true
		}
		for _, slug := range slugs {
			if !known[slug] {
				v.Add("genre", fmt.Sprintf("Genre %q does not exist.", slug))
			}
		}
		return nil
	}
	t.Genres = found
	return nil
}

func uniqueSlugs(slugs []string) []string {
	seen := make(map[string]bool, len(slugs))
	out := make([]string, 0, len(slugs))
	for _, s := range slugs {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
