package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPAuthenticator_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body loginPayload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if body.Secret != "correct" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authentication failed"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"t.o.k","user":{"id":"u1"}}`))
	}))
	defer srv.Close()

	auth, err := NewHTTPAuthenticator(srv.URL + "/")
	if err != nil {
		t.Fatalf("NewHTTPAuthenticator returned error: %v", err)
	}

	token, err := auth.Login(context.Background(), "u1@example.com", "correct")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token != "t.o.k" {
		t.Fatalf("unexpected token %q", token)
	}

	_, err = auth.Login(context.Background(), "u1@example.com", "wrong")
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "authentication failed" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestHTTPAuthenticator_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	auth, _ := NewHTTPAuthenticator(srv.URL)
	if _, err := auth.Login(context.Background(), "a", "b"); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
