package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"yamdb/internal/access"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type UserService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.Page[dto.UserResponse], error)
	Get(ctx context.Context, username string) (*dto.UserResponse, error)
	Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	Update(ctx context.Context, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, username string) error

	Me(ctx context.Context, identity *access.Identity) (*dto.UserResponse, error)
	// UpdateMe edits the caller's own profile. Below admin level the role
	// cannot change: plain users are reset to "user", moderators keep theirs.
	UpdateMe(ctx context.Context, identity *access.Identity, req dto.UpdateUserRequest) (*dto.UserResponse, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) List(ctx context.Context, search string, page, pageSize int) (*dto.Page[dto.UserResponse], error) {
	users, total, err := s.repo.List(ctx, strings.TrimSpace(search), page, pageSize)
	if err != nil {
		return nil, err
	}
	return dto.MapPage(users, total, page, pageSize, dto.UserFromModel), nil
}

func (s *userService) Get(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	resp := dto.UserFromModel(user)
	return &resp, nil
}

func (s *userService) Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	user := req.ToModel()
	user.Username = strings.TrimSpace(user.Username)
	user.Email = models.NormalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = string(access.RoleUser)
	}

	if err := s.validate(ctx, &user, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, duplicateUser(err)
	}
	resp := dto.UserFromModel(&user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, user, req)
}

func (s *userService) Delete(ctx context.Context, username string) error {
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *userService) Me(ctx context.Context, identity *access.Identity) (*dto.UserResponse, error) {
	user, err := s.current(ctx, identity)
	if err != nil {
		return nil, err
	}
	resp := dto.UserFromModel(user)
	return &resp, nil
}

func (s *userService) UpdateMe(ctx context.Context, identity *access.Identity, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.current(ctx, identity)
	if err != nil {
		return nil, err
	}

	if !identity.Can(access.LevelAdmin) {
		if access.Role(user.Role) == access.RoleModerator {
			req.Role = nil
		} else {
			plain := string(access.RoleUser)
			req.Role = &plain
		}
	}
	return s.save(ctx, user, req)
}

func (s *userService) current(ctx context.Context, identity *access.Identity) (*models.User, error) {
	if !identity.Authenticated() {
		return nil, access.ErrUnauthenticated
	}
	user, err := s.repo.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) save(ctx context.Context, user *models.User, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	currentID := user.ID
	req.ApplyTo(user)
	user.Username = strings.TrimSpace(user.Username)
	user.Email = models.NormalizeEmail(user.Email)

	if err := s.validate(ctx, user, currentID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, duplicateUser(err)
	}
	resp := dto.UserFromModel(user)
	return &resp, nil
}

// validate checks the username format, the role, and uniqueness against
// every user other than selfID.
func (s *userService) validate(ctx context.Context, user *models.User, selfID string) error {
	v := &ValidationError{}
	checkUsername(v, user.Username)
	if !access.Role(user.Role).Valid() {
		v.Add("role", fmt.Sprintf("%q is not a valid choice.", user.Role))
	}

	if other, err := s.repo.FindByUsername(ctx, user.Username); err == nil && other.ID != selfID {
		v.Add("username", "A user with that username already exists.")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if other, err := s.repo.FindByEmail(ctx, user.Email); err == nil && other.ID != selfID {
		v.Add("email", "A user with this email already exists.")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return v.OrNil()
}

func (s *userService) findByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// duplicateUser turns a unique-index race into the same field error the
// pre-checks produce.
func duplicateUser(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return NewValidationError("username", "A user with that username or email already exists.")
	}
	return err
}
