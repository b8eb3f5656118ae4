package service

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrNotFound is the base of every lookup failure; match it with errors.Is.
var ErrNotFound = errors.New("not found")

var (
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrGenreNotFound    = fmt.Errorf("genre %w", ErrNotFound)
	ErrTitleNotFound    = fmt.Errorf("title %w", ErrNotFound)
	ErrReviewNotFound   = fmt.Errorf("review %w", ErrNotFound)
	ErrCommentNotFound  = fmt.Errorf("comment %w", ErrNotFound)
)

var (
	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")
	ErrConfirmationCodeExpired = errors.New("confirmation code has expired")
	ErrUserInactive            = errors.New("user account is disabled")
	ErrInvalidToken            = errors.New("invalid token")
	ErrDuplicateReview         = errors.New("you have already reviewed this title")
	ErrCodeDelivery            = errors.New("confirmation code could not be delivered")
)

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no field has been flagged.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e as an error only when it holds messages.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// reservedUsername is the path segment of the self-profile endpoint.
const reservedUsername = "me"

// checkUsername flags a username that cannot be used for an account.
func checkUsername(v *ValidationError, username string) {
	switch {
	case strings.TrimSpace(username) == "":
		v.Add("username", "This field may not be blank.")
	case len(username) > 40:
		v.Add("username", "Ensure this field has no more than 40 characters.")
	case strings.EqualFold(username, reservedUsername):
		v.Add("username", `The username "me" is reserved.`)
	case !usernamePattern.MatchString(username):
		v.Add("username", "Enter a valid username. It may contain only letters, numbers, and @/./+/-/_ characters.")
	}
}

func checkSlug(v *ValidationError, slug string) {
	if !slugPattern.MatchString(slug) {
		v.Add("slug", "Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
	}
}
