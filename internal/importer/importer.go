// Package importer loads the static CSV fixtures (categories, genres,
// titles, users, reviews, comments) into the database.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yamdb/internal/access"
	"yamdb/internal/microservices/http-api/models"
)

// Files names the CSV file of each table inside the data directory.
var Files = struct {
	Categories, Genres, Titles, TitleGenres, Users, Reviews, Comments string
}{
	Categories:  "category.csv",
	Genres:      "genre.csv",
	Titles:      "titles.csv",
	TitleGenres: "genre_title.csv",
	Users:       "users.csv",
	Reviews:     "review.csv",
	Comments:    "comments.csv",
}

// Summary counts the rows read per table.
type Summary struct {
	Categories, Genres, Titles, TitleGenres, Users, Reviews, Comments int
}

type Importer struct {
	db     *gorm.DB
	fsys   fs.FS
	logger *slog.Logger

	// csv user id -> stored uuid
	users map[string]string
}

func New(db *gorm.DB, dir string, logger *slog.Logger) *Importer {
	return NewFS(db, os.DirFS(dir), logger)
}

func NewFS(db *gorm.DB, fsys fs.FS, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{db: db, fsys: fsys, logger: logger}
}

// Run imports every present file in dependency order inside one transaction.
// Rows whose key already exists are left untouched, so Run can be repeated.
func (im *Importer) Run(ctx context.Context) (*Summary, error) {
	var sum Summary
	im.users = make(map[string]string)

	err := im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			file  string
			count *int
			fn    func(*gorm.DB, []record) error
		}{
			{Files.Categories, &sum.Categories, im.categories},
			{Files.Genres, &sum.Genres, im.genres},
			{Files.Titles, &sum.Titles, im.titles},
			{Files.TitleGenres, &sum.TitleGenres, im.titleGenres},
			{Files.Users, &sum.Users, im.usersStep},
			{Files.Reviews, &sum.Reviews, im.reviews},
			{Files.Comments, &sum.Comments, im.comments},
		}
		for _, step := range steps {
			recs, err := im.load(step.file)
			if err != nil {
				return err
			}
			if recs == nil {
				im.logger.Info("import_skipped", "file", step.file)
				continue
			}
			if err := step.fn(tx, recs); err != nil {
				return fmt.Errorf("%s: %w", step.file, err)
			}
			*step.count = len(recs)
			im.logger.Info("import_done", "file", step.file, "rows", len(recs))
		}
		return resetSequences(tx)
	})
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// load returns nil without error when the file does not exist.
func (im *Importer) load(name string) ([]record, error) {
	f, err := im.fsys.Open(filepath.ToSlash(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := readRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if recs == nil {
		recs = []record{}
	}
	return recs, nil
}

func insert(tx *gorm.DB, value any) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(value).Error
}

func (im *Importer) categories(tx *gorm.DB, recs []record) error {
	for i, rec := range recs {
		c, err := parseCategory(rec)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := insert(tx, c); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) genres(tx *gorm.DB, recs []record) error {
	for i, rec := range recs {
		c, err := parseCategory(rec)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := insert(tx, &models.Genre{ID: c.ID, Name: c.Name, Slug: c.Slug}); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) titles(tx *gorm.DB, recs []record) error {
	for i, rec := range recs {
		t, err := parseTitle(rec)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(t).Error; err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) titleGenres(tx *gorm.DB, recs []record) error {
	for i, rec := range recs {
		titleID, err := rec.int64("title_id")
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		genreID, err := rec.int64("genre_id")
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := insert(tx, &models.TitleGenre{TitleID: titleID, GenreID: genreID}); err != nil {
			return err
		}
	}
	return nil
}

// usersStep keeps the uuid of an existing username so later rows link to it.
func (im *Importer) usersStep(tx *gorm.DB, recs []record) error {
	for i, rec := range recs {
		u, err := parseUser(rec)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		var existing models.User
		err = tx.Where("username = ?", u.Username).First(&existing).Error
		switch {
		case err == nil:
			im.users[rec.str("id")] = existing.ID
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		im.users[rec.str("id")] = u.ID
	}
	return nil
}

func (im *Importer) author(rec record) (string, error) {
	key, err := rec.required("author")
	if err != nil {
		return "", err
	}
	id, ok := im.users[key]
	if !ok {
		return "", fmt.Errorf("unknown author %q", key)
	}
	return id, nil
}

func (im *Importer) reviews(tx *gorm.DB, recs []record) error {
	for i, rec := range recs {
		r, err := parseReview(rec)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if r.AuthorID, err = im.author(rec); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := tx.Omit("Author", "Title").Clauses(clause.OnConflict{DoNothing: true}).Create(r).Error; err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) comments(tx *gorm.DB, recs []record) error {
	for i, rec := range recs {
		c, err := parseComment(rec)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if c.AuthorID, err = im.author(rec); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := tx.Omit("Author", "Review").Clauses(clause.OnConflict{DoNothing: true}).Create(c).Error; err != nil {
			return err
		}
	}
	return nil
}

// resetSequences moves each serial past the imported explicit ids.
func resetSequences(tx *gorm.DB) error {
	for _, table := range []string{"categories", "genres", "titles", "reviews", "comments"} {
		sql := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
			table)
		if err := tx.Exec(sql).Error; err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}
	return nil
}

func parseCategory(rec record) (*models.Category, error) {
	id, err := rec.int64("id")
	if err != nil {
		return nil, err
	}
	name, err := rec.required("name")
	if err != nil {
		return nil, err
	}
	slug, err := rec.required("slug")
	if err != nil {
		return nil, err
	}
	return &models.Category{ID: id, Name: name, Slug: slug}, nil
}

func parseTitle(rec record) (*models.Title, error) {
	id, err := rec.int64("id")
	if err != nil {
		return nil, err
	}
	name, err := rec.required("name")
	if err != nil {
		return nil, err
	}
	year, err := rec.int64("year")
	if err != nil {
		return nil, err
	}
	category, err := rec.optionalInt64("category")
	if err != nil {
		return nil, err
	}
	return &models.Title{
		ID:          id,
		Name:        name,
		Year:        int(year),
		Description: rec.str("description"),
		CategoryID:  category,
	}, nil
}

func parseUser(rec record) (*models.User, error) {
	if _, err := rec.required("id"); err != nil {
		return nil, err
	}
	username, err := rec.required("username")
	if err != nil {
		return nil, err
	}
	email, err := rec.required("email")
	if err != nil {
		return nil, err
	}
	role := access.Role(rec.str("role"))
	if role == "" {
		role = access.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return &models.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     models.NormalizeEmail(email),
		Role:      string(role),
		Bio:       rec.str("bio"),
		FirstName: rec.str("first_name"),
		LastName:  rec.str("last_name"),
		IsActive:  true,
	}, nil
}

func parseReview(rec record) (*models.Review, error) {
	id, err := rec.int64("id")
	if err != nil {
		return nil, err
	}
	titleID, err := rec.int64("title_id")
	if err != nil {
		return nil, err
	}
	score, err := rec.int64("score")
	if err != nil {
		return nil, err
	}
	if score < 1 || score > 10 {
		return nil, fmt.Errorf("score %d out of range 1..10", score)
	}
	pub, err := rec.time("pub_date")
	if err != nil {
		return nil, err
	}
	return &models.Review{ID: id, TitleID: titleID, Text: rec.str("text"), Score: int(score), PubDate: pub}, nil
}

func parseComment(rec record) (*models.Comment, error) {
	id, err := rec.int64("id")
	if err != nil {
		return nil, err
	}
	reviewID, err := rec.int64("review_id")
	if err != nil {
		return nil, err
	}
	pub, err := rec.time("pub_date")
	if err != nil {
		return nil, err
	}
	return &models.Comment{ID: id, ReviewID: reviewID, Text: rec.str("text"), PubDate: pub}, nil
}
