package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"yamdb/internal/access"
	"yamdb/internal/config"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/middleware/auth"
)

type AuthService interface {
	// RequestCode issues a fresh confirmation code for the username/email
	// pair and mails it, creating the user on first signup.
	RequestCode(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error)
	// ObtainToken exchanges a confirmation code for a bearer token.
	ObtainToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error)
	// Authenticate resolves a bearer token to the current identity of its user.
	Authenticate(ctx context.Context, rawToken string) (*access.Identity, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *TokenManager
	sender   mailer.Sender
	logger   *slog.Logger

	mailFrom string
	codeTTL  time.Duration

	now          func() time.Time
	generateCode func() (string, error)
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokens *TokenManager,
	sender mailer.Sender,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		userRepo:     userRepo,
		tokens:       tokens,
		sender:       sender,
		logger:       logger,
		mailFrom:     cfg.MailFrom,
		codeTTL:      cfg.ConfirmationCodeTTL,
		now:          time.Now,
		generateCode: auth.GenerateConfirmationCode,
	}
}

func (s *authService) RequestCode(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := models.NormalizeEmail(req.Email)

	v := &ValidationError{}
	checkUsername(v, username)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate confirmation code: %w", err)
	}

	// the stored code and the mail go together: a failed send rolls the write back
	err = s.userRepo.Transaction(ctx, func(repo repository.UserRepository) error {
		user, err := s.resolveSignupUser(ctx, repo, username, email)
		if err != nil {
			return err
		}

		issuedAt := s.now()
		user.ConfirmationCode = code
		user.CodeIssuedAt = &issuedAt

		if user.ID == "" {
			err = repo.Create(ctx, user)
		} else {
			err = repo.Update(ctx, user)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return NewValidationError("email", "A user with this username or email already exists.")
		}
		if err != nil {
			return fmt.Errorf("store confirmation code: %w", err)
		}

		msg := mailer.Message{
			From:    s.mailFrom,
			To:      []string{email},
			Subject: "YaMDb confirmation code",
			Body:    fmt.Sprintf("Hello, %s!\n\nYour confirmation code: %s\n", username, code),
		}
		if err := s.sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("%w: %v", ErrCodeDelivery, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCodeDelivery) {
			s.logger.ErrorContext(ctx, "confirmation code delivery failed",
				"username", username, "email", mailer.MaskEmail(email), "error", err)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "confirmation code issued", "username", username, "email", mailer.MaskEmail(email))
	return &dto.SignupResponse{Username: username, Email: email}, nil
}

// resolveSignupUser returns the existing user for a repeated signup, or a new
// unsaved user when neither the username nor the email is taken.
func (s *authService) resolveSignupUser(ctx context.Context, repo repository.UserRepository, username, email string) (*models.User, error) {
	user, err := repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if models.NormalizeEmail(user.Email) != email {
			return nil, NewValidationError("email", "This email does not match the registered username.")
		}
		return user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find user: %w", err)
	}

	if _, err := repo.FindByEmail(ctx, email); err == nil {
		return nil, NewValidationError("email", "A user with this email already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	return &models.User{
		Username: username,
		Email:    email,
		Role:     string(access.RoleUser),
		IsActive: true,
	}, nil
}

func (s *authService) ObtainToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !auth.VerifyConfirmationCode(user.ConfirmationCode, req.ConfirmationCode) {
		s.logger.WarnContext(ctx, "confirmation code mismatch", "username", user.Username)
		return nil, ErrInvalidConfirmationCode
	}
	if s.codeTTL > 0 && user.CodeIssuedAt != nil && s.now().After(user.CodeIssuedAt.Add(s.codeTTL)) {
		return nil, ErrConfirmationCodeExpired
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{Token: token}, nil
}

func (s *authService) Authenticate(ctx context.Context, rawToken string) (*access.Identity, error) {
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return nil, err
	}

	// role and flags are read from the store so changes apply to live tokens
	user, err := s.userRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user.Identity(), nil
}
