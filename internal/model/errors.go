// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, resource, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeValidation           = "VALIDATION_FAILED"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeOrganizationNotFound = "ORGANIZATION_NOT_FOUND"
	ErrCodeJobListingNotFound   = "JOB_LISTING_NOT_FOUND"
	ErrCodeApplicationNotFound  = "APPLICATION_NOT_FOUND"
	ErrCodeSettingsNotFound     = "SETTINGS_NOT_FOUND"
	ErrCodeResumeNotFound       = "RESUME_NOT_FOUND"
	ErrCodeConflict             = "CONFLICT"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("この操作を行う権限がありません: %s", reason),
		Category: "auth",
		Action:   "組織の管理者に権限を確認してください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "resource",
		Action:   "ログインし直してください。",
	}
}

// NewOrganizationNotFoundError は組織が見つからない場合のエラーを生成する。
func NewOrganizationNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeOrganizationNotFound,
		Message:  fmt.Sprintf("指定された組織が見つかりません: %s", id),
		Category: "resource",
		Action:   "組織IDを確認してください。",
	}
}

// NewJobListingNotFoundError は求人が見つからない場合のエラーを生成する。
func NewJobListingNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeJobListingNotFound,
		Message:  fmt.Sprintf("指定された求人が見つかりません: %s", id),
		Category: "resource",
		Action:   "求人IDを確認してください。",
	}
}

// NewApplicationNotFoundError は応募が見つからない場合のエラーを生成する。
func NewApplicationNotFoundError(jobListingID, userID string) *APIError {
	return &APIError{
		Code:     ErrCodeApplicationNotFound,
		Message:  fmt.Sprintf("指定された応募が見つかりません: %s/%s", jobListingID, userID),
		Category: "resource",
		Action:   "求人IDとユーザーIDを確認してください。",
	}
}

// NewSettingsNotFoundError は設定が見つからない場合のエラーを生成する。
func NewSettingsNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSettingsNotFound,
		Message:  "設定が登録されていません。",
		Category: "resource",
		Action:   "設定を保存してから再度お試しください。",
	}
}

// NewResumeNotFoundError は履歴書が見つからない場合のエラーを生成する。
func NewResumeNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeResumeNotFound,
		Message:  "履歴書が登録されていません。",
		Category: "resource",
		Action:   "履歴書をアップロードしてください。",
	}
}

// NewConflictError は一意制約違反などの競合エラーを生成する。
func NewConflictError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeConflict,
		Message:  fmt.Sprintf("既に登録されています: %s", reason),
		Category: "validation",
		Action:   "既存のデータを確認してください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
