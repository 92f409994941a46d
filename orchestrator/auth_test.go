// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"finsight/platform/shared/logger"
)

func signedToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestJWTAuthMiddleware(t *testing.T) {
	svcLogger = logger.New("analyst")

	secret := []byte("test-signing-secret")
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})

	t.Run("passes everything through without a secret", func(t *testing.T) {
		reached = false
		handler := jwtAuthMiddleware(nil, next)

		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if !reached {
			t.Error("expected handler to be reached without a secret")
		}
		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	})

	t.Run("rejects a missing authorization header", func(t *testing.T) {
		reached = false
		handler := jwtAuthMiddleware(secret, next)

		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if reached {
			t.Error("handler must not be reached without a token")
		}
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("rejects a non-bearer header", func(t *testing.T) {
		reached = false
		handler := jwtAuthMiddleware(secret, next)

		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if reached {
			t.Error("handler must not be reached with a non-bearer header")
		}
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("rejects a token signed with the wrong secret", func(t *testing.T) {
		reached = false
		handler := jwtAuthMiddleware(secret, next)

		token := signedToken(t, []byte("some-other-secret"), jwt.MapClaims{"sub": "mallory"})
		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if reached {
			t.Error("handler must not be reached with a bad signature")
		}
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		reached = false
		handler := jwtAuthMiddleware(secret, next)

		token := signedToken(t, secret, jwt.MapClaims{
			"sub": "alice",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if reached {
			t.Error("handler must not be reached with an expired token")
		}
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("accepts a valid token", func(t *testing.T) {
		reached = false
		handler := jwtAuthMiddleware(secret, next)

		token := signedToken(t, secret, jwt.MapClaims{
			"sub": "alice",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if !reached {
			t.Error("expected handler to be reached with a valid token")
		}
		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	})
}

func TestGetClaimString(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":   "alice",
		"count": 3,
	}

	if got := getClaimString(claims, "sub"); got != "alice" {
		t.Errorf("expected alice, got %q", got)
	}
	if got := getClaimString(claims, "count"); got != "" {
		t.Errorf("expected empty for non-string claim, got %q", got)
	}
	if got := getClaimString(claims, "missing"); got != "" {
		t.Errorf("expected empty for missing claim, got %q", got)
	}
}
