package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"yamdb/internal/access"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

// contentPolicy gates reviews and comments: anyone reads, signed-in users
// post, and only the author or a moderator and above may edit or delete.
var contentPolicy = access.All(access.AuthenticatedOrReadOnly, access.OwnerOrStaffOrReadOnly)

type ReviewService interface {
	List(ctx context.Context, titleID int64, page, pageSize int) (*dto.Page[dto.ReviewResponse], error)
	Get(ctx context.Context, titleID, id int64) (*dto.ReviewResponse, error)
	Create(ctx context.Context, identity *access.Identity, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error)
	Update(ctx context.Context, identity *access.Identity, titleID, id int64, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, identity *access.Identity, titleID, id int64) error
	// Authorize checks that identity may perform action on the review without
	// changing it, so callers can refuse a request before reading its body.
	Authorize(ctx context.Context, identity *access.Identity, action access.Action, titleID, id int64) error
}

type reviewService struct {
	reviews repository.ReviewRepository
	titles  repository.TitleRepository
}

func NewReviewService(reviews repository.ReviewRepository, titles repository.TitleRepository) ReviewService {
	return &reviewService{reviews: reviews, titles: titles}
}

func (s *reviewService) List(ctx context.Context, titleID int64, page, pageSize int) (*dto.Page[dto.ReviewResponse], error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	list, total, err := s.reviews.ListByTitle(ctx, titleID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return dto.MapPage(list, total, page, pageSize, dto.ReviewFromModel), nil
}

func (s *reviewService) Get(ctx context.Context, titleID, id int64) (*dto.ReviewResponse, error) {
	review, err := s.get(ctx, titleID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ReviewFromModel(review)
	return &resp, nil
}

// Create binds the review to the title in the path and to the caller,
// whatever the payload says.
func (s *reviewService) Create(ctx context.Context, identity *access.Identity, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	if err := access.Check(contentPolicy, access.ActionCreate, identity, nil); err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}

	exists, err := s.reviews.ExistsForAuthor(ctx, titleID, identity.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: identity.UserID,
		Text:     strings.TrimSpace(req.Text),
		Score:    req.Score,
	}
	if review.Text == "" {
		return nil, NewValidationError("text", "This field may not be blank.")
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		// a concurrent first review lost the race on the unique index
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}
	review.Author = models.User{ID: identity.UserID, Username: identity.Username}

	resp := dto.ReviewFromModel(review)
	return &resp, nil
}

func (s *reviewService) Update(ctx context.Context, identity *access.Identity, titleID, id int64, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error) {
	review, err := s.authorize(ctx, access.ActionUpdate, identity, titleID, id)
	if err != nil {
		return nil, err
	}
	req.ApplyTo(review)
	review.Text = strings.TrimSpace(review.Text)
	if review.Text == "" {
		return nil, NewValidationError("text", "This field may not be blank.")
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	resp := dto.ReviewFromModel(review)
	return &resp, nil
}

func (s *reviewService) Delete(ctx context.Context, identity *access.Identity, titleID, id int64) error {
	if _, err := s.authorize(ctx, access.ActionDelete, identity, titleID, id); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, titleID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	return nil
}

func (s *reviewService) Authorize(ctx context.Context, identity *access.Identity, action access.Action, titleID, id int64) error {
	_, err := s.authorize(ctx, action, identity, titleID, id)
	return err
}

// authorize applies the collection gate before the lookup, so anonymous
// writes fail as unauthenticated even for missing reviews, then the object gate.
func (s *reviewService) authorize(ctx context.Context, action access.Action, identity *access.Identity, titleID, id int64) (*models.Review, error) {
	if err := access.Check(contentPolicy, action, identity, nil); err != nil {
		return nil, err
	}
	review, err := s.get(ctx, titleID, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(contentPolicy, action, identity, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) get(ctx context.Context, titleID, id int64) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, titleID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *reviewService) requireTitle(ctx context.Context, titleID int64) error {
	ok, err := s.titles.Exists(ctx, titleID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTitleNotFound
	}
	return nil
}
