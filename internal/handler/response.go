package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CurrentUserResolver は認証済みClerkユーザーに対応するローカルユーザーを返す。
type CurrentUserResolver interface {
	GetByClerkID(ctx context.Context, clerkID string) (*model.User, error)
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("レスポンスのエンコードに失敗しました", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("内部エラーが発生しました", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeInvalidRequest, model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeUserNotFound, model.ErrCodeOrganizationNotFound, model.ErrCodeJobListingNotFound,
		model.ErrCodeApplicationNotFound, model.ErrCodeSettingsNotFound, model.ErrCodeResumeNotFound:
		return http.StatusNotFound
	case model.ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON はリクエストボディをvにデコードする。失敗した場合は400を書き込んでfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}

// clerkUserID はコンテキストからClerkのユーザーIDを取り出す。未認証の場合は401を書き込む。
func clerkUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := middleware.ClerkUserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", false
	}
	return id, true
}

// currentUser は認証済みユーザーのローカルレコードを返す。失敗時はレスポンスを書き込む。
func currentUser(w http.ResponseWriter, r *http.Request, users CurrentUserResolver) (*model.User, bool) {
	clerkID, ok := clerkUserID(w, r)
	if !ok {
		return nil, false
	}
	u, err := users.GetByClerkID(r.Context(), clerkID)
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	return u, true
}

// requireMember は認証済みユーザーが組織のメンバーであることを確認する。失敗時はレスポンスを書き込む。
func requireMember(w http.ResponseWriter, r *http.Request, checker middleware.MembershipChecker, orgID string) bool {
	clerkID, ok := clerkUserID(w, r)
	if !ok {
		return false
	}
	member, err := checker.IsMember(r.Context(), clerkID, orgID)
	if err != nil {
		handleServiceError(w, err)
		return false
	}
	if !member {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError("組織のメンバーではありません"))
		return false
	}
	return true
}

// parsePage はlimit・offsetクエリパラメータを読み取る。不正な値の場合は400を書き込む。
func parsePage(w http.ResponseWriter, r *http.Request) (repository.Page, bool) {
	var page repository.Page
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &page.Limit},
		{"offset", &page.Offset},
	} {
		v := r.URL.Query().Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(p.name+"は0以上の整数で指定してください"))
			return page, false
		}
		*p.dst = n
	}
	return page, true
}
