// Package webhook はClerkから届くWebhookの検証・振り分け・ユーザー同期を提供する。
package webhook

import (
	"errors"
	"fmt"
)

// ErrorKind はWebhook処理で発生するエラーの種別。
// 種別は閉じた集合であり、HTTP境界ではこの種別のみでステータスを決定する。
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindSignature     ErrorKind = "signature"
	KindTimestamp     ErrorKind = "timestamp"
	KindPayload       ErrorKind = "payload"
	KindUserNotFound  ErrorKind = "user_not_found"
	KindUserCreation  ErrorKind = "user_creation"
	KindUserUpdate    ErrorKind = "user_update"
	KindUserDeletion  ErrorKind = "user_deletion"
	KindDatabase      ErrorKind = "database"
)

// Error はWebhook処理の分類済みエラー。
// Detailsはログ出力用の付加情報で、秘密情報を含めてはならない。
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
	Err     error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, msg string, details map[string]any, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Details: details, Err: cause}
}

// NewConfigurationError は設定不備のエラーを生成する。
func NewConfigurationError(msg string) *Error {
	return newError(KindConfiguration, msg, nil, nil)
}

// NewSignatureError は署名検証失敗のエラーを生成する。
func NewSignatureError(msg string, details map[string]any, cause error) *Error {
	return newError(KindSignature, msg, details, cause)
}

// NewTimestampError はタイムスタンプ検証失敗のエラーを生成する。
func NewTimestampError(msg string, details map[string]any) *Error {
	return newError(KindTimestamp, msg, details, nil)
}

// NewPayloadError はイベント構造が不正な場合のエラーを生成する。
func NewPayloadError(msg string, details map[string]any) *Error {
	return newError(KindPayload, msg, details, nil)
}

// NewUserNotFoundError は同期対象ユーザーが存在しない場合のエラーを生成する。
func NewUserNotFoundError(clerkID string) *Error {
	return newError(KindUserNotFound, "user not found", map[string]any{"clerk_id": clerkID}, nil)
}

// NewUserCreationError はユーザー作成失敗のエラーを生成する。
func NewUserCreationError(clerkID, msg string, cause error) *Error {
	return newError(KindUserCreation, msg, map[string]any{"clerk_id": clerkID}, cause)
}

// NewUserUpdateError はユーザー更新失敗のエラーを生成する。
func NewUserUpdateError(clerkID, msg string, cause error) *Error {
	return newError(KindUserUpdate, msg, map[string]any{"clerk_id": clerkID}, cause)
}

// NewUserDeletionError はユーザー削除失敗のエラーを生成する。
func NewUserDeletionError(clerkID, msg string, cause error) *Error {
	return newError(KindUserDeletion, msg, map[string]any{"clerk_id": clerkID}, cause)
}

// NewDatabaseError は分類されていない永続化エラーをラップする。
func NewDatabaseError(eventType, eventID string, cause error) *Error {
	msg := "database operation failed"
	if cause != nil {
		msg = cause.Error()
	}
	return newError(KindDatabase, msg, map[string]any{
		"event_type": eventType,
		"event_id":   eventID,
	}, cause)
}

// KindOf はエラーチェーン中の*Errorの種別を返す。
// 分類済みエラーでない場合はokがfalseになる。
func KindOf(err error) (ErrorKind, bool) {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind, true
	}
	return "", false
}

// IsKind はエラーが指定した種別かどうかを返す。
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
