// Package client is a typed HTTP client for the tutoring API plus the small amount of state a
// front end keeps between calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
)

// APIError is a non-2xx response. Error returns the server's message verbatim.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Kind    string `json:"kind"`
}

func (e *APIError) Error() string { return e.Message }

type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
	Subjects []string    `json:"subjects,omitempty"`
	Bio      string      `json:"bio,omitempty"`
}

type CreateSessionRequest struct {
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	Duration    int       `json:"duration"`
}

type ReviewRequest struct {
	SessionID uuid.UUID `json:"sessionId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
}

type AuthResponse struct {
	User  models.UserProfile `json:"user"`
	Token string             `json:"token"`
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New returns a client for the API mounted at baseURL, e.g. http://localhost:5000/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var res AuthResponse
	if err := c.do(ctx, http.MethodPost, "/register", req, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var res AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

func (c *Client) Me(ctx context.Context) (*models.UserProfile, error) {
	var res models.UserProfile
	if err := c.do(ctx, http.MethodGet, "/me", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Tutors(ctx context.Context) ([]models.UserProfile, error) {
	var res []models.UserProfile
	err := c.do(ctx, http.MethodGet, "/tutors", nil, &res)
	return res, err
}

func (c *Client) Sessions(ctx context.Context) ([]models.SessionView, error) {
	var res []models.SessionView
	err := c.do(ctx, http.MethodGet, "/sessions", nil, &res)
	return res, err
}

func (c *Client) MySessions(ctx context.Context) ([]models.SessionView, error) {
	var res []models.SessionView
	err := c.do(ctx, http.MethodGet, "/my-sessions", nil, &res)
	return res, err
}

func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.SessionView, error) {
	var res models.SessionView
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) BookSession(ctx context.Context, sessionID uuid.UUID) (*models.SessionView, error) {
	var res models.SessionView
	if err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID.String())+"/book", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) SubmitReview(ctx context.Context, req ReviewRequest) (*models.ReviewView, error) {
	var res models.ReviewView
	if err := c.do(ctx, http.MethodPost, "/reviews", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) TutorReviews(ctx context.Context, tutorID uuid.UUID) ([]models.ReviewView, error) {
	var res []models.ReviewView
	err := c.do(ctx, http.MethodGet, "/tutors/"+url.PathEscape(tutorID.String())+"/reviews", nil, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
			if apiErr.Message == "" {
				apiErr.Message = http.StatusText(resp.StatusCode)
			}
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
