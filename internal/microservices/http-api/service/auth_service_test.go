package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"yamdb/internal/access"
	"yamdb/internal/config"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      testSecret,
		AccessTokenTTL: time.Hour,
		MailFrom:       "noreply@yamdb.local",
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuthService(repo repository.UserRepository, sender mailer.Sender, cfg *config.Config, codes ...string) *authService {
	svc := NewAuthService(repo, NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL), sender, cfg, quietLogger()).(*authService)
	next := 0
	svc.generateCode = func() (string, error) {
		if next >= len(codes) {
			return "", errors.New("no more codes")
		}
		code := codes[next]
		next++
		return code, nil
	}
	return svc
}

func TestRequestCode_NewUser(t *testing.T) {
	repo := new(MockUserRepository)
	sender := new(MockSender)
	svc := newTestAuthService(repo, sender, testConfig(), "ABC123XYZ")

	repo.On("Transaction", mock.Anything).Return()
	repo.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "alice" && u.Email == "alice@example.com" &&
			u.ConfirmationCode == "ABC123XYZ" && u.Role == "user" && u.IsActive && u.CodeIssuedAt != nil
	})).Return(nil)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mailer.Message) bool {
		return len(msg.To) == 1 && msg.To[0] == "alice@example.com" && strings.Contains(msg.Body, "ABC123XYZ")
	})).Return(nil)

	resp, err := svc.RequestCode(context.Background(), dto.SignupRequest{Username: "alice", Email: "alice@example.com"})

	require.NoError(t, err)
	assert.Equal(t, &dto.SignupResponse{Username: "alice", Email: "alice@example.com"}, resp)
	repo.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestRequestCode_ExistingUserGetsNewCode(t *testing.T) {
	repo := new(MockUserRepository)
	sender := new(MockSender)
	svc := newTestAuthService(repo, sender, testConfig(), "NEWCODE12")

	existing := &models.User{ID: "u-1", Username: "alice", Email: "alice@example.com", ConfirmationCode: "OLDCODE12", IsActive: true}
	repo.On("Transaction", mock.Anything).Return()
	repo.On("FindByUsername", mock.Anything, "alice").Return(existing, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.ID == "u-1" && u.ConfirmationCode == "NEWCODE12"
	})).Return(nil)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.RequestCode(context.Background(), dto.SignupRequest{Username: "alice", Email: "alice@example.com"})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestRequestCode_ReservedUsername(t *testing.T) {
	for _, name := range []string{"me", "ME", "Me"} {
		t.Run(name, func(t *testing.T) {
			repo := new(MockUserRepository)
			svc := newTestAuthService(repo, new(MockSender), testConfig(), "ABC123XYZ")

			_, err := svc.RequestCode(context.Background(), dto.SignupRequest{Username: name, Email: "me@example.com"})

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, "username")
			repo.AssertNotCalled(t, "Transaction", mock.Anything)
		})
	}
}

func TestRequestCode_InvalidUsernameCharacters(t *testing.T) {
	svc := newTestAuthService(new(MockUserRepository), new(MockSender), testConfig(), "ABC123XYZ")

	_, err := svc.RequestCode(context.Background(), dto.SignupRequest{Username: "bad name!", Email: "x@example.com"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
}

func TestRequestCode_EmailMismatchForExistingUsername(t *testing.T) {
	repo := new(MockUserRepository)
	sender := new(MockSender)
	svc := newTestAuthService(repo, sender, testConfig(), "ABC123XYZ")

	repo.On("Transaction", mock.Anything).Return()
	repo.On("FindByUsername", mock.Anything, "alice").
		Return(&models.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}, nil)

	_, err := svc.RequestCode(context.Background(), dto.SignupRequest{Username: "alice", Email: "other@example.com"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRequestCode_EmailTakenByAnotherUser(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, new(MockSender), testConfig(), "ABC123XYZ")

	repo.On("Transaction", mock.Anything).Return()
	repo.On("FindByUsername", mock.Anything, "bob").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByEmail", mock.Anything, "alice@example.com").
		Return(&models.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}, nil)

	_, err := svc.RequestCode(context.Background(), dto.SignupRequest{Username: "bob", Email: "alice@example.com"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRequestCode_EmailTakenInOtherCase(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, new(MockSender), testConfig(), "ABC123XYZ")

	repo.On("Transaction", mock.Anything).Return()
	repo.On("FindByUsername", mock.Anything, "bob").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByEmail", mock.Anything, "alice@example.com").
		Return(&models.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}, nil)

	_, err := svc.RequestCode(context.Background(), dto.SignupRequest{Username: "bob", Email: "Alice@Example.COM"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRequestCode_DeliveryFailure(t *testing.T) {
	repo := new(MockUserRepository)
	sender := new(MockSender)
	svc := newTestAuthService(repo, sender, testConfig(), "ABC123XYZ")

	repo.On("Transaction", mock.Anything).Return()
	repo.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	resp, err := svc.RequestCode(context.Background(), dto.SignupRequest{Username: "alice", Email: "alice@example.com"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrCodeDelivery)
}

func TestRequestCode_DuplicateOnInsertRace(t *testing.T) {
	repo := new(MockUserRepository)
	sender := new(MockSender)
	svc := newTestAuthService(repo, sender, testConfig(), "ABC123XYZ")

	repo.On("Transaction", mock.Anything).Return()
	repo.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	_, err := svc.RequestCode(context.Background(), dto.SignupRequest{Username: "alice", Email: "alice@example.com"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestObtainToken_UserNotFound(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, new(MockSender), testConfig())

	repo.On("FindByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

	resp, err := svc.ObtainToken(context.Background(), dto.TokenRequest{Username: "ghost", ConfirmationCode: "ABC123XYZ"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestObtainToken_WrongCode(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, new(MockSender), testConfig())

	repo.On("FindByUsername", mock.Anything, "alice").
		Return(&models.User{ID: "u-1", Username: "alice", ConfirmationCode: "ABC123XYZ", IsActive: true}, nil)

	resp, err := svc.ObtainToken(context.Background(), dto.TokenRequest{Username: "alice", ConfirmationCode: "WRONG"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrInvalidConfirmationCode)
}

func TestObtainToken_InactiveUser(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, new(MockSender), testConfig())

	repo.On("FindByUsername", mock.Anything, "alice").
		Return(&models.User{ID: "u-1", Username: "alice", ConfirmationCode: "ABC123XYZ", IsActive: false}, nil)

	_, err := svc.ObtainToken(context.Background(), dto.TokenRequest{Username: "alice", ConfirmationCode: "ABC123XYZ"})

	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestObtainToken_ExpiredCode(t *testing.T) {
	cfg := testConfig()
	cfg.ConfirmationCodeTTL = 15 * time.Minute
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, new(MockSender), cfg)

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued.Add(16 * time.Minute) }
	repo.On("FindByUsername", mock.Anything, "alice").
		Return(&models.User{ID: "u-1", Username: "alice", ConfirmationCode: "ABC123XYZ", CodeIssuedAt: &issued, IsActive: true}, nil)

	_, err := svc.ObtainToken(context.Background(), dto.TokenRequest{Username: "alice", ConfirmationCode: "ABC123XYZ"})

	assert.ErrorIs(t, err, ErrConfirmationCodeExpired)
}

func TestObtainToken_CodeWithoutTTLNeverExpires(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, new(MockSender), testConfig())

	issued := time.Now().Add(-365 * 24 * time.Hour)
	repo.On("FindByUsername", mock.Anything, "alice").
		Return(&models.User{ID: "u-1", Username: "alice", ConfirmationCode: "ABC123XYZ", CodeIssuedAt: &issued, IsActive: true}, nil)

	resp, err := svc.ObtainToken(context.Background(), dto.TokenRequest{Username: "alice", ConfirmationCode: "ABC123XYZ"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestObtainToken_SuccessCarriesIdentity(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, new(MockSender), testConfig())

	user := &models.User{ID: "u-1", Username: "alice", ConfirmationCode: "ABC123XYZ", Role: "moderator", IsActive: true}
	repo.On("FindByUsername", mock.Anything, "alice").Return(user, nil)
	repo.On("FindByID", mock.Anything, "u-1").Return(user, nil)

	resp, err := svc.ObtainToken(context.Background(), dto.TokenRequest{Username: "alice", ConfirmationCode: "ABC123XYZ"})
	require.NoError(t, err)

	identity, err := svc.Authenticate(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", identity.UserID)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, access.LevelModerator, identity.Level())
}

func TestAuthenticate_ReadsRoleFromStore(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, new(MockSender), testConfig())

	token, err := svc.tokens.Issue(&models.User{ID: "u-1", Username: "alice"})
	require.NoError(t, err)
	repo.On("FindByID", mock.Anything, "u-1").
		Return(&models.User{ID: "u-1", Username: "alice", Role: "admin", IsActive: true}, nil)

	identity, err := svc.Authenticate(context.Background(), token)

	require.NoError(t, err)
	assert.True(t, identity.Can(access.LevelAdmin))
}

func TestAuthenticate_Rejects(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		svc := newTestAuthService(new(MockUserRepository), new(MockSender), testConfig())
		_, err := svc.Authenticate(context.Background(), "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo, new(MockSender), testConfig())
		token, err := svc.tokens.Issue(&models.User{ID: "u-gone", Username: "gone"})
		require.NoError(t, err)
		repo.On("FindByID", mock.Anything, "u-gone").Return(nil, gorm.ErrRecordNotFound)

		_, err = svc.Authenticate(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("inactive user", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := newTestAuthService(repo, new(MockSender), testConfig())
		token, err := svc.tokens.Issue(&models.User{ID: "u-1", Username: "alice"})
		require.NoError(t, err)
		repo.On("FindByID", mock.Anything, "u-1").Return(&models.User{ID: "u-1", IsActive: false}, nil)

		_, err = svc.Authenticate(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

// memoryUserRepository keeps users in a map so a whole signup/token
// sequence can run against one store.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*models.User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = "u-" + user.Username
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *memoryUserRepository) List(context.Context, string, int, int) ([]models.User, int64, error) {
	return nil, 0, nil
}

func (r *memoryUserRepository) Transaction(_ context.Context, fn func(repository.UserRepository) error) error {
	return fn(r)
}

func TestSignupTokenSequence(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryUserRepository()
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil)
	svc := newTestAuthService(repo, sender, testConfig(), "FIRST0001", "SECOND002")

	signup := dto.SignupRequest{Username: "alice", Email: "a@x.com"}
	_, err := svc.RequestCode(ctx, signup)
	require.NoError(t, err)

	first, err := svc.ObtainToken(ctx, dto.TokenRequest{Username: "alice", ConfirmationCode: "FIRST0001"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.Token)

	_, err = svc.ObtainToken(ctx, dto.TokenRequest{Username: "alice", ConfirmationCode: "WRONG"})
	assert.ErrorIs(t, err, ErrInvalidConfirmationCode)

	// the code is not consumed by a successful exchange
	_, err = svc.ObtainToken(ctx, dto.TokenRequest{Username: "alice", ConfirmationCode: "FIRST0001"})
	require.NoError(t, err)

	// a repeated signup may spell the email in another case
	_, err = svc.RequestCode(ctx, dto.SignupRequest{Username: "alice", Email: "A@X.com"})
	require.NoError(t, err)

	_, err = svc.ObtainToken(ctx, dto.TokenRequest{Username: "alice", ConfirmationCode: "FIRST0001"})
	assert.ErrorIs(t, err, ErrInvalidConfirmationCode)

	second, err := svc.ObtainToken(ctx, dto.TokenRequest{Username: "alice", ConfirmationCode: "SECOND002"})
	require.NoError(t, err)
	assert.NotEmpty(t, second.Token)

	stored, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "user", stored.Role)
	sender.AssertNumberOfCalls(t, "Send", 2)
}
