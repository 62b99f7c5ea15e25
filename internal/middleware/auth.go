// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobboard/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// clerkUserIDContextKey はリクエストコンテキストにClerkのユーザーIDを格納するためのキー。
var clerkUserIDContextKey = contextKey("clerk_user_id")

// TokenVerifier はセッショントークンを検証し、ClerkのユーザーIDを返す。
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// MembershipChecker はユーザーが組織のメンバーかどうかを判定する。
type MembershipChecker interface {
	IsMember(ctx context.Context, clerkUserID, organizationID string) (bool, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 検証に成功した場合はClerkのユーザーIDをコンテキストに注入し、失敗した場合は401を返す。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			clerkUserID, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				slog.Debug("セッショントークンの検証に失敗しました", slog.String("error", err.Error()))
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClerkUserID(r.Context(), clerkUserID)))
		})
	}
}

// RequireOrganizationMember はURLパラメータparamで指定された組織のメンバーのみを通すミドルウェアを返す。
// NewAuthMiddlewareの後に配置する。
func RequireOrganizationMember(checker MembershipChecker, param string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clerkUserID, err := ClerkUserIDFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			orgID := chi.URLParam(r, param)
			ok, err := checker.IsMember(r.Context(), clerkUserID, orgID)
			if err != nil {
				slog.Error("組織メンバーシップの確認に失敗しました",
					slog.String("clerk_user_id", clerkUserID),
					slog.String("organization_id", orgID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if !ok {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError("組織のメンバーではありません"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ClerkUserIDFromContext はリクエストコンテキストからClerkのユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func ClerkUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(clerkUserIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("clerk user ID not found in context")
	}
	return userID, nil
}

// ContextWithClerkUserID はコンテキストにClerkのユーザーIDを注入する。
func ContextWithClerkUserID(ctx context.Context, clerkUserID string) context.Context {
	return context.WithValue(ctx, clerkUserIDContextKey, clerkUserID)
}
