//go:build integration

package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/testdb"
)

type fixture struct {
	db         *gorm.DB
	users      repository.UserRepository
	categories repository.CategoryRepository
	genres     repository.GenreRepository
	titles     repository.TitleRepository
	reviews    repository.ReviewRepository
	comments   repository.CommentRepository
}

func newFixture(t *testing.T) *fixture {
	db := testdb.New(t)
	return &fixture{
		db:         db,
		users:      repository.NewUserRepository(db),
		categories: repository.NewCategoryRepository(db),
		genres:     repository.NewGenreRepository(db),
		titles:     repository.NewTitleRepository(db),
		reviews:    repository.NewReviewRepository(db),
		comments:   repository.NewCommentRepository(db),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", IsActive: true}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func TestIntegration_UserUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")

	err := f.users.Create(ctx, &models.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	page, total, err := f.users.List(ctx, "ali", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "alice", page[0].Username)

	// LIKE wildcards in the search are literal
	_, total, err = f.users.List(ctx, "%", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestIntegration_EmailCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := &models.User{Username: "mixed", Email: " Mixed@Example.COM ", IsActive: true}
	require.NoError(t, f.users.Create(ctx, u))
	assert.Equal(t, "mixed@example.com", u.Email)

	found, err := f.users.FindByEmail(ctx, "MIXED@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	err = f.users.Create(ctx, &models.User{Username: "other", Email: "MIXED@EXAMPLE.COM"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestIntegration_TitleRatingAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	films := &models.Category{Name: "Films", Slug: "films"}
	require.NoError(t, f.categories.Create(ctx, films))
	drama := &models.Genre{Name: "Drama", Slug: "drama"}
	comedy := &models.Genre{Name: "Comedy", Slug: "comedy"}
	require.NoError(t, f.genres.Create(ctx, drama))
	require.NoError(t, f.genres.Create(ctx, comedy))

	up := &models.Title{Name: "Up", Year: 2009, CategoryID: &films.ID, Genres: []models.Genre{*drama, *comedy}}
	solo := &models.Title{Name: "Solo", Year: 2018}
	require.NoError(t, f.titles.Create(ctx, up))
	require.NoError(t, f.titles.Create(ctx, solo))

	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	require.NoError(t, f.reviews.Create(ctx, &models.Review{TitleID: up.ID, AuthorID: alice.ID, Text: "good", Score: 8}))
	require.NoError(t, f.reviews.Create(ctx, &models.Review{TitleID: up.ID, AuthorID: bob.ID, Text: "great", Score: 10}))

	got, err := f.titles.GetByID(ctx, up.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 9, *got.Rating)
	require.NotNil(t, got.Category)
	assert.Equal(t, "films", got.Category.Slug)
	assert.Len(t, got.Genres, 2)

	got, err = f.titles.GetByID(ctx, solo.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rating)

	list, total, err := f.titles.List(ctx, repository.TitleFilter{Genre: "drama"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Up", list[0].Name)

	_, total, err = f.titles.List(ctx, repository.TitleFilter{Category: "films", Year: 2018}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	list, total, err = f.titles.List(ctx, repository.TitleFilter{Name: "OL"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Solo", list[0].Name)
}

func TestIntegration_OneReviewPerAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := &models.Title{Name: "Up", Year: 2009}
	require.NoError(t, f.titles.Create(ctx, title))
	alice := f.user(t, "alice")

	require.NoError(t, f.reviews.Create(ctx, &models.Review{TitleID: title.ID, AuthorID: alice.ID, Text: "a", Score: 5}))
	err := f.reviews.Create(ctx, &models.Review{TitleID: title.ID, AuthorID: alice.ID, Text: "b", Score: 6})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	exists, err := f.reviews.ExistsForAuthor(ctx, title.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIntegration_Cascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	films := &models.Category{Name: "Films", Slug: "films"}
	require.NoError(t, f.categories.Create(ctx, films))
	drama := &models.Genre{Name: "Drama", Slug: "drama"}
	require.NoError(t, f.genres.Create(ctx, drama))
	title := &models.Title{Name: "Up", Year: 2009, CategoryID: &films.ID, Genres: []models.Genre{*drama}}
	require.NoError(t, f.titles.Create(ctx, title))

	alice := f.user(t, "alice")
	review := &models.Review{TitleID: title.ID, AuthorID: alice.ID, Text: "a", Score: 5}
	require.NoError(t, f.reviews.Create(ctx, review))
	require.NoError(t, f.comments.Create(ctx, &models.Comment{ReviewID: review.ID, AuthorID: alice.ID, Text: "c"}))

	// deleting the category or genre keeps the title
	require.NoError(t, f.categories.Delete(ctx, "films"))
	require.NoError(t, f.genres.Delete(ctx, "drama"))
	got, err := f.titles.GetByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Empty(t, got.Genres)

	assert.ErrorIs(t, f.categories.Delete(ctx, "films"), gorm.ErrRecordNotFound)

	// deleting the title takes its reviews and their comments along
	require.NoError(t, f.titles.Delete(ctx, title.ID))
	var reviews, comments int64
	f.db.Model(&models.Review{}).Count(&reviews)
	f.db.Model(&models.Comment{}).Count(&comments)
	assert.Zero(t, reviews)
	assert.Zero(t, comments)

	assert.ErrorIs(t, f.titles.Delete(ctx, title.ID), gorm.ErrRecordNotFound)
}

func TestIntegration_ScopedLookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := &models.Title{Name: "A", Year: 2000}
	b := &models.Title{Name: "B", Year: 2000}
	require.NoError(t, f.titles.Create(ctx, a))
	require.NoError(t, f.titles.Create(ctx, b))
	alice := f.user(t, "alice")

	review := &models.Review{TitleID: a.ID, AuthorID: alice.ID, Text: "x", Score: 3}
	require.NoError(t, f.reviews.Create(ctx, review))

	_, err := f.reviews.GetByID(ctx, b.ID, review.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, f.reviews.Delete(ctx, b.ID, review.ID), gorm.ErrRecordNotFound)

	review.Text, review.Score = "edited", 4
	require.NoError(t, f.reviews.Update(ctx, review))
	got, err := f.reviews.GetByID(ctx, a.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	assert.Equal(t, "alice", got.Author.Username)
}
