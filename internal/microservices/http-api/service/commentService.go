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

type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.Page[dto.CommentResponse], error)
	Get(ctx context.Context, titleID, reviewID, id int64) (*dto.CommentResponse, error)
	Create(ctx context.Context, identity *access.Identity, titleID, reviewID int64, req dto.CreateCommentDTO) (*dto.CommentResponse, error)
	Update(ctx context.Context, identity *access.Identity, titleID, reviewID, id int64, req dto.UpdateCommentDTO) (*dto.CommentResponse, error)
	Delete(ctx context.Context, identity *access.Identity, titleID, reviewID, id int64) error
	// Authorize checks that identity may perform action on the comment without
	// changing it.
	Authorize(ctx context.Context, identity *access.Identity, action access.Action, titleID, reviewID, id int64) error
}

type commentService struct {
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
}

func NewCommentService(comments repository.CommentRepository, reviews repository.ReviewRepository) CommentService {
	return &commentService{comments: comments, reviews: reviews}
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.Page[dto.CommentResponse], error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	list, total, err := s.comments.ListByReview(ctx, reviewID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return dto.MapPage(list, total, page, pageSize, dto.CommentFromModel), nil
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, id int64) (*dto.CommentResponse, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.get(ctx, reviewID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.CommentFromModel(comment)
	return &resp, nil
}

func (s *commentService) Create(ctx context.Context, identity *access.Identity, titleID, reviewID int64, req dto.CreateCommentDTO) (*dto.CommentResponse, error) {
	if err := access.Check(contentPolicy, access.ActionCreate, identity, nil); err != nil {
		return nil, err
	}
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: identity.UserID,
		Text:     strings.TrimSpace(req.Text),
	}
	if comment.Text == "" {
		return nil, NewValidationError("text", "This field may not be blank.")
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = models.User{ID: identity.UserID, Username: identity.Username}

	resp := dto.CommentFromModel(comment)
	return &resp, nil
}

func (s *commentService) Update(ctx context.Context, identity *access.Identity, titleID, reviewID, id int64, req dto.UpdateCommentDTO) (*dto.CommentResponse, error) {
	comment, err := s.authorize(ctx, access.ActionUpdate, identity, titleID, reviewID, id)
	if err != nil {
		return nil, err
	}
	comment.Text = strings.TrimSpace(req.Text)
	if comment.Text == "" {
		return nil, NewValidationError("text", "This field may not be blank.")
	}
	if err := s.comments.Update(ctx, comment); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	resp := dto.CommentFromModel(comment)
	return &resp, nil
}

func (s *commentService) Delete(ctx context.Context, identity *access.Identity, titleID, reviewID, id int64) error {
	if _, err := s.authorize(ctx, access.ActionDelete, identity, titleID, reviewID, id); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, reviewID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}

func (s *commentService) Authorize(ctx context.Context, identity *access.Identity, action access.Action, titleID, reviewID, id int64) error {
	_, err := s.authorize(ctx, action, identity, titleID, reviewID, id)
	return err
}

func (s *commentService) authorize(ctx context.Context, action access.Action, identity *access.Identity, titleID, reviewID, id int64) (*models.Comment, error) {
	if err := access.Check(contentPolicy, action, identity, nil); err != nil {
		return nil, err
	}
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.get(ctx, reviewID, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(contentPolicy, action, identity, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *commentService) get(ctx context.Context, reviewID, id int64) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, reviewID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// requireReview checks the review exists under the title in the path.
func (s *commentService) requireReview(ctx context.Context, titleID, reviewID int64) error {
	if _, err := s.reviews.GetByID(ctx, titleID, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	return nil
}
