// Package httpapi assembles the gin engine that serves the /api/v1 surface.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"yamdb/internal/config"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/ratelimit"
)

// Services is everything the router needs from the service layer.
type Services struct {
	Auth       service.AuthService
	Users      service.UserService
	Categories service.CategoryService
	Genres     service.GenreService
	Titles     service.TitleService
	Reviews    service.ReviewService
	Comments   service.CommentService
}

// NewServices wires repositories and services over one database handle.
func NewServices(db *gorm.DB, cfg *config.Config, sender mailer.Sender, logger *slog.Logger) Services {
	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepository(db)
	genres := repository.NewGenreRepository(db)
	titles := repository.NewTitleRepository(db)
	reviews := repository.NewReviewRepository(db)
	comments := repository.NewCommentRepository(db)

	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	return Services{
		Auth:       service.NewAuthService(users, tokens, sender, cfg, logger),
		Users:      service.NewUserService(users),
		Categories: service.NewCategoryService(categories),
		Genres:     service.NewGenreService(genres),
		Titles:     service.NewTitleService(titles, categories, genres),
		Reviews:    service.NewReviewService(reviews, titles),
		Comments:   service.NewCommentService(comments, reviews),
	}
}

// Options tunes the router. A nil AuthLimiter disables auth rate limiting.
type Options struct {
	PageSize    int
	AuthLimiter ratelimit.Limiter
	Metrics     bool
	Logger      *slog.Logger
}

// NewRouter registers every route on a fresh engine.
func NewRouter(svc Services, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(opts.Logger))
	if opts.Metrics {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/check-conn", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API is alive"})
	})

	v1 := r.Group("/api/v1", middleware.Authenticate(svc.Auth))

	authGroup := v1.Group("/auth")
	if opts.AuthLimiter != nil {
		authGroup.Use(middleware.RateLimit(opts.AuthLimiter, "auth"))
	}
	handler.NewAuthHandler(svc.Auth).RegisterRoutes(authGroup)

	handler.NewUserHandler(svc.Users, opts.PageSize).RegisterRoutes(v1.Group("/users"))
	handler.NewCategoryHandler(svc.Categories, opts.PageSize).RegisterRoutes(v1.Group("/categories"))
	handler.NewGenreHandler(svc.Genres, opts.PageSize).RegisterRoutes(v1.Group("/genres"))
	handler.NewTitleHandler(svc.Titles, opts.PageSize).RegisterRoutes(v1.Group("/titles"))

	reviews := v1.Group("/titles/:title_id/reviews")
	handler.NewReviewHandler(svc.Reviews, opts.PageSize).RegisterRoutes(reviews)
	handler.NewCommentHandler(svc.Comments, opts.PageSize).RegisterRoutes(reviews.Group("/:review_id/comments"))

	return r
}
