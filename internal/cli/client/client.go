package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jobtrack-dev/jobtrack/internal/cli/session"
)

// ErrUnauthorized is returned when the server rejects the session token.
// The session has already been cleared when a caller sees it.
var ErrUnauthorized = errors.New("session expired or revoked, please log in again")

// APIError is a non-authorization failure reported by the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// SessionStore is the part of the session store the client depends on
type SessionStore interface {
	Current() session.Session
	Logout(ctx context.Context) error
}

// Client represents an HTTP client for the jobtrack API
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      SessionStore
	logger     zerolog.Logger
}

// New creates a new API client. Authenticated calls read the token from store
// and log it out when the server answers 401.
func New(baseURL string, store SessionStore, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		store:  store,
		logger: logger,
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one API call
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// token overrides the session token; set for calls made on behalf of a session being torn down
	token string
	// public calls carry no token, and a 401 is an ordinary failure
	public bool
}

// send performs req and returns the open response for a 2xx status
func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	var body io.Reader
	if req.body != nil {
		jsonData, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	token := req.token
	if token == "" && !req.public {
		token = c.store.Current().Token
		if token == "" {
			return nil, ErrUnauthorized
		}
	}
	if token != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && !req.public && req.token == "" {
		// Local state is cleared whatever the outcome of the server notification
		if err := c.store.Logout(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to clear persisted session after 401")
		}
		return nil, ErrUnauthorized
	}
	return nil, decodeError(resp)
}

// do performs req and decodes a JSON response into out when out is non-nil
func (c *Client) do(ctx context.Context, req request, out any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

// Health checks that the server is reachable
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/health", public: true}, nil)
}

// Login authenticates the user and returns a JWT token
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var loginResp LoginResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   LoginRequest{Username: username, Password: password},
		public: true,
	}, &loginResp)
	if err != nil {
		return nil, err
	}
	return &loginResp, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/register", body: req, public: true}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// NotifyLogout asks the server to revoke token. It implements session.Notifier.
func (c *Client) NotifyLogout(ctx context.Context, token string) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/api/auth/logout", token: token}, nil)
}

// Me returns the account behind the current session
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/auth/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListCompanies(ctx context.Context) ([]Company, error) {
	var companies []Company
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/companies"}, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

func (c *Client) GetCompany(ctx context.Context, id string) (*Company, error) {
	var company Company
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/companies/" + url.PathEscape(id)}, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

func (c *Client) CreateCompany(ctx context.Context, input CompanyInput) (*Company, error) {
	var company Company
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/companies", body: input}, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

func (c *Client) UpdateCompany(ctx context.Context, id string, update CompanyUpdate) (*Company, error) {
	var company Company
	if err := c.do(ctx, request{method: http.MethodPut, path: "/api/companies/" + url.PathEscape(id), body: update}, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// DeleteCompany removes a company together with its applications and contacts
func (c *Client) DeleteCompany(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/companies/" + url.PathEscape(id)}, nil)
}

func (c *Client) ListCompanyApplications(ctx context.Context, companyID string) ([]Application, error) {
	var applications []Application
	path := "/api/companies/" + url.PathEscape(companyID) + "/applications"
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &applications); err != nil {
		return nil, err
	}
	return applications, nil
}

func (c *Client) ListCompanyContacts(ctx context.Context, companyID string) ([]Contact, error) {
	var contacts []Contact
	path := "/api/companies/" + url.PathEscape(companyID) + "/contacts"
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (c *Client) GetApplication(ctx context.Context, id string) (*Application, error) {
	var application Application
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/applications/" + url.PathEscape(id)}, &application); err != nil {
		return nil, err
	}
	return &application, nil
}

func (c *Client) CreateApplication(ctx context.Context, input ApplicationInput) (*Application, error) {
	var application Application
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/applications", body: input}, &application); err != nil {
		return nil, err
	}
	return &application, nil
}

func (c *Client) UpdateApplication(ctx context.Context, id string, update ApplicationUpdate) (*Application, error) {
	var application Application
	if err := c.do(ctx, request{method: http.MethodPut, path: "/api/applications/" + url.PathEscape(id), body: update}, &application); err != nil {
		return nil, err
	}
	return &application, nil
}

func (c *Client) DeleteApplication(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/applications/" + url.PathEscape(id)}, nil)
}

func (c *Client) CreateContact(ctx context.Context, input ContactInput) (*Contact, error) {
	var contact Contact
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/contacts", body: input}, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *Client) UpdateContact(ctx context.Context, id string, update ContactUpdate) (*Contact, error) {
	var contact Contact
	if err := c.do(ctx, request{method: http.MethodPut, path: "/api/contacts/" + url.PathEscape(id), body: update}, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/contacts/" + url.PathEscape(id)}, nil)
}

// ListUsers returns every account. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/admin/users"}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetUserStatus enables or disables an account. Admin only.
func (c *Client) SetUserStatus(ctx context.Context, id, status string) (*User, error) {
	var user User
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/admin/users/" + url.PathEscape(id) + "/status",
		body:   map[string]string{"status": status},
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account and everything it owns. Admin only.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/admin/users/" + url.PathEscape(id)}, nil)
}

// ListAuditLogs returns one page of the audit log, newest first. Admin only.
func (c *Client) ListAuditLogs(ctx context.Context, eventType string, limit, offset int) (*AuditPage, error) {
	query := url.Values{}
	if eventType != "" {
		query.Set("event_type", eventType)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var page AuditPage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/admin/logs", query: query}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ExportAuditLogs streams the audit log as CSV into w. Admin only.
func (c *Client) ExportAuditLogs(ctx context.Context, w io.Writer) error {
	resp, err := c.send(ctx, request{method: http.MethodGet, path: "/api/admin/export-logs"})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}
	return nil
}
