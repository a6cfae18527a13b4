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
	"time"
)

// Authenticator exchanges a credential for a session token.
type Authenticator interface {
	Login(ctx context.Context, identifier, secret string) (string, error)
}

// HTTPAuthenticator calls the API login endpoint.
type HTTPAuthenticator struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises HTTPAuthenticator instantiation.
type Option func(*HTTPAuthenticator)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(a *HTTPAuthenticator) {
		if h != nil {
			a.httpClient = h
		}
	}
}

// NewHTTPAuthenticator points at the API base URL, e.g. https://api.example.com.
func NewHTTPAuthenticator(base string, opts ...Option) (*HTTPAuthenticator, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:8080"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	a := &HTTPAuthenticator{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// APIError is a non-2xx answer from the API. Message is whatever the API put
// in its error envelope.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

type loginPayload struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login posts the credential to /auth/login and returns the issued token.
func (a *HTTPAuthenticator) Login(ctx context.Context, identifier, secret string) (string, error) {
	body, err := json.Marshal(loginPayload{Identifier: identifier, Secret: secret})
	if err != nil {
		return "", fmt.Errorf("encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("decode response: empty token")
	}
	return out.Token, nil
}

func extractError(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	if json.Unmarshal(data, &payload) == nil {
		return payload.Error
	}
	return ""
}
