package client

// http_client.go talks to the yamdb REST API on behalf of the CLI.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"yamdb/internal/microservices/http-api/dto"
)

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string              `json:"error"`
	Fields  map[string][]string `json:"fields"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
	}
	return fmt.Sprintf("%s (status %d): %s", msg, e.Status, strings.Join(parts, "; "))
}

func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// do sends body as JSON and decodes a 2xx answer into out when out is not nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func pageQuery(page int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

// Auth

func (c *HTTPClient) Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error) {
	var out dto.SignupResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Token(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	var out dto.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/token/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/users/me/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateMe(ctx context.Context, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodPatch, "/users/me/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Catalogue: kind is "categories" or "genres", both share the name/slug shape.

func (c *HTTPClient) ListGroups(ctx context.Context, kind, search string, page int) (*dto.Page[dto.CategoryResponse], error) {
	q := pageQuery(page)
	if search != "" {
		q.Set("search", search)
	}
	var out dto.Page[dto.CategoryResponse]
	if err := c.do(ctx, http.MethodGet, "/"+kind+"/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateGroup(ctx context.Context, kind, name, slug string) (*dto.CategoryResponse, error) {
	var out dto.CategoryResponse
	body := dto.CreateCategoryDTO{Name: name, Slug: slug}
	if err := c.do(ctx, http.MethodPost, "/"+kind+"/", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteGroup(ctx context.Context, kind, slug string) error {
	return c.do(ctx, http.MethodDelete, "/"+kind+"/"+url.PathEscape(slug)+"/", nil, nil, nil)
}

// Titles

type TitleFilter struct {
	Category string
	Genre    string
	Name     string
	Year     int
	Page     int
}

func (c *HTTPClient) ListTitles(ctx context.Context, f TitleFilter) (*dto.Page[dto.TitleReadResponse], error) {
	q := pageQuery(f.Page)
	for key, value := range map[string]string{"category": f.Category, "genre": f.Genre, "name": f.Name} {
		if value != "" {
			q.Set(key, value)
		}
	}
	if f.Year != 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	var out dto.Page[dto.TitleReadResponse]
	if err := c.do(ctx, http.MethodGet, "/titles/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetTitle(ctx context.Context, id int64) (*dto.TitleReadResponse, error) {
	var out dto.TitleReadResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/titles/%d/", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateTitle(ctx context.Context, req dto.CreateTitleDTO) (*dto.TitleWriteResponse, error) {
	var out dto.TitleWriteResponse
	if err := c.do(ctx, http.MethodPost, "/titles/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteTitle(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/titles/%d/", id), nil, nil, nil)
}

// Reviews and comments

func (c *HTTPClient) ListReviews(ctx context.Context, titleID int64, page int) (*dto.Page[dto.ReviewResponse], error) {
	var out dto.Page[dto.ReviewResponse]
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/titles/%d/reviews/", titleID), pageQuery(page), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateReview(ctx context.Context, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	var out dto.ReviewResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/titles/%d/reviews/", titleID), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteReview(ctx context.Context, titleID, reviewID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/titles/%d/reviews/%d/", titleID, reviewID), nil, nil, nil)
}

func (c *HTTPClient) ListComments(ctx context.Context, titleID, reviewID int64, page int) (*dto.Page[dto.CommentResponse], error) {
	var out dto.Page[dto.CommentResponse]
	path := fmt.Sprintf("/titles/%d/reviews/%d/comments/", titleID, reviewID)
	if err := c.do(ctx, http.MethodGet, path, pageQuery(page), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateComment(ctx context.Context, titleID, reviewID int64, text string) (*dto.CommentResponse, error) {
	var out dto.CommentResponse
	path := fmt.Sprintf("/titles/%d/reviews/%d/comments/", titleID, reviewID)
	if err := c.do(ctx, http.MethodPost, path, nil, dto.CreateCommentDTO{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteComment(ctx context.Context, titleID, reviewID, commentID int64) error {
	path := fmt.Sprintf("/titles/%d/reviews/%d/comments/%d/", titleID, reviewID, commentID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
