// Package apiclient is a typed client for the IMTR REST API. Forms are
// validated with the same rules the server applies, so a request that would
// be rejected with a field error is never sent.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/validation"
)

const defaultTimeout = 15 * time.Second

// APIError non-success response from the server
type APIError struct {
	Status  int
	Message string
	Fields  validation.FieldErrors
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("api error %d: %s (%s)", e.Status, e.Message, e.Fields.Error())
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given HTTP status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// Client talks to one API base URL, e.g. https://api.imtr.ac.ke/api/v1
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default client (15s timeout)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken starts the client with an access token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token used on later requests
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token current bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do sends one request and decodes the envelope's data into out (when non-nil)
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		if len(env.Errors) > 0 {
			apiErr.Fields = validation.FieldErrors(env.Errors)
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// ── auth ──

// Login exchanges credentials for a token pair and keeps the access token
func (c *Client) Login(ctx context.Context, email, password string) (*dto.TokenResponse, error) {
	req := &dto.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if fields := validation.Struct(req); len(fields) > 0 {
		return nil, fields
	}

	var tokens dto.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &tokens); err != nil {
		return nil, err
	}
	c.SetToken(tokens.AccessToken)
	return &tokens, nil
}

// Logout revokes the current tokens and forgets the access token
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, &dto.LogoutRequest{RefreshToken: refreshToken}, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Me current user and capabilities
func (c *Client) Me(ctx context.Context) (*dto.MeResponse, error) {
	var me dto.MeResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// ── student approvals ──

// ApproveStudent posts an approval after local validation
func (c *Client) ApproveStudent(ctx context.Context, userID string, req *dto.ApproveStudentRequest) (*dto.ApprovalResponse, error) {
	if fields := validation.Approval(req); len(fields) > 0 {
		return nil, fields
	}
	var result dto.ApprovalResponse
	if err := c.do(ctx, http.MethodPost, "/student-approvals/approve/"+url.PathEscape(userID), nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RejectStudent posts a rejection after local validation
func (c *Client) RejectStudent(ctx context.Context, userID, reason string) (*dto.ApprovalResponse, error) {
	if fields := validation.Rejection(reason); len(fields) > 0 {
		return nil, fields
	}
	req := &dto.RejectStudentRequest{RejectionReason: strings.TrimSpace(reason)}
	var result dto.ApprovalResponse
	if err := c.do(ctx, http.MethodPost, "/student-approvals/reject/"+url.PathEscape(userID), nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ── finance ──

// CreateInvoice validates the invoice form (items keyed amount_<i>) and posts it
func (c *Client) CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if fields := validation.Invoice(req); len(fields) > 0 {
		return nil, fields
	}
	var invoice dto.InvoiceResponse
	if err := c.do(ctx, http.MethodPost, "/finance/invoices", nil, req, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// UpdateInvoice partial update of a pending or overdue invoice
func (c *Client) UpdateInvoice(ctx context.Context, id string, req *dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if fields := validation.InvoiceUpdate(req); len(fields) > 0 {
		return nil, fields
	}
	var invoice dto.InvoiceResponse
	if err := c.do(ctx, http.MethodPut, "/finance/invoices/"+url.PathEscape(id), nil, req, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// RecordPayment validates and records a payment
func (c *Client) RecordPayment(ctx context.Context, req *dto.CreatePaymentRequest) (*dto.PaymentResponse, error) {
	if fields := validation.Payment(req); len(fields) > 0 {
		return nil, fields
	}
	var payment dto.PaymentResponse
	if err := c.do(ctx, http.MethodPost, "/finance/payments", nil, req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// FinanceStatistics dashboard totals
func (c *Client) FinanceStatistics(ctx context.Context) (*dto.FinanceStatistics, error) {
	var stats dto.FinanceStatistics
	if err := c.do(ctx, http.MethodGet, "/finance/statistics", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
