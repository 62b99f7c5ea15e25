package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type mockTokenVerifier struct {
	verifyFn func(ctx context.Context, token string) (string, error)
}

func (m *mockTokenVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	return m.verifyFn(ctx, token)
}

type mockMembershipChecker struct {
	isMemberFn func(ctx context.Context, clerkUserID, orgID string) (bool, error)
}

func (m *mockMembershipChecker) IsMember(ctx context.Context, clerkUserID, orgID string) (bool, error) {
	return m.isMemberFn(ctx, clerkUserID, orgID)
}

func acceptToken(valid, clerkUserID string) *mockTokenVerifier {
	return &mockTokenVerifier{verifyFn: func(ctx context.Context, token string) (string, error) {
		if token != valid {
			return "", errors.New("invalid token")
		}
		return clerkUserID, nil
	}}
}

func TestAuthMiddleware_ValidToken_InjectsClerkUserID(t *testing.T) {
	var captured string
	handler := NewAuthMiddleware(acceptToken("tok", "user_123"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = ClerkUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if captured != "user_123" {
		t.Errorf("clerk user id = %q, want %q", captured, "user_123")
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"ヘッダーなし", ""},
		{"Bearer以外", "Basic dXNlcjpwYXNz"},
		{"トークン空", "Bearer  "},
		{"無効なトークン", "Bearer forged"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewAuthMiddleware(acceptToken("tok", "user_123"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if called {
				t.Error("next handler should not be called")
			}
			var body ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Code != "UNAUTHORIZED" {
				t.Errorf("code = %q, want UNAUTHORIZED", body.Code)
			}
		})
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	handler := NewAuthMiddleware(acceptToken("tok", "user_123"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer tok")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func newOrgRouter(checker MembershipChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(NewAuthMiddleware(acceptToken("tok", "user_123")))
	r.With(RequireOrganizationMember(checker, "id")).Put("/organizations/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestRequireOrganizationMember(t *testing.T) {
	checker := &mockMembershipChecker{isMemberFn: func(ctx context.Context, clerkUserID, orgID string) (bool, error) {
		if orgID == "org_broken" {
			return false, errors.New("clerk unavailable")
		}
		return clerkUserID == "user_123" && orgID == "org_mine", nil
	}}
	router := newOrgRouter(checker)

	tests := []struct {
		orgID string
		want  int
	}{
		{"org_mine", http.StatusOK},
		{"org_other", http.StatusForbidden},
		{"org_broken", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPut, "/organizations/"+tt.orgID, nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != tt.want {
			t.Errorf("org %s: status = %d, want %d", tt.orgID, w.Code, tt.want)
		}
	}
}

func TestRequireOrganizationMember_WithoutAuth_Returns401(t *testing.T) {
	handler := RequireOrganizationMember(&mockMembershipChecker{}, "id")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/organizations/org_1", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestClerkUserIDFromContext(t *testing.T) {
	if _, err := ClerkUserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}
	got, err := ClerkUserIDFromContext(ContextWithClerkUserID(context.Background(), "user_9"))
	if err != nil || got != "user_9" {
		t.Errorf("got %q, %v", got, err)
	}
}
