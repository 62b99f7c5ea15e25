package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobboard/internal/middleware"
)

// withClerkUser はリクエストコンテキストに認証済みのClerkユーザーIDを注入する。
func withClerkUser(r *http.Request, clerkID string) *http.Request {
	return r.WithContext(middleware.ContextWithClerkUserID(r.Context(), clerkID))
}

// withURLParams はchiのURLパラメータをリクエストに設定する。
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody はレスポンスボディをvにデコードする。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v (body=%q)", err, w.Body.String())
	}
}

// errorCodeOf はエラーレスポンスのcodeを返す。
func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body apiErrorResponse
	decodeBody(t, w, &body)
	return body.Code
}

// mockMembership はMembershipCheckerのモック実装。
// membersはClerkユーザーID→所属組織IDの集合。
type mockMembership struct {
	members map[string]map[string]bool
	err     error
}

func newMockMembership() *mockMembership {
	return &mockMembership{members: make(map[string]map[string]bool)}
}

func (m *mockMembership) add(clerkID, orgID string) *mockMembership {
	if m.members[clerkID] == nil {
		m.members[clerkID] = make(map[string]bool)
	}
	m.members[clerkID][orgID] = true
	return m
}

func (m *mockMembership) IsMember(_ context.Context, clerkID, orgID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.members[clerkID][orgID], nil
}
