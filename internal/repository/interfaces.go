// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
// Find系のメソッドは対象が見つからない場合nil, nilを返す。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/jobboard/internal/model"
)

// DBTX は*sql.DBと*sql.Txの共通インターフェース。
// リポジトリはトランザクション内外のどちらでも動作する。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Page はオフセットページネーションのパラメータ。
type Page struct {
	Offset int
	Limit  int
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByClerkID はClerkのユーザーIDで検索する。
	FindByClerkID(ctx context.Context, clerkID string) (*model.User, error)
	List(ctx context.Context, page Page) ([]*model.User, error)
	// Create はユーザーを作成する。clerk_id・emailの重複はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	// DeleteByID はユーザーを削除し、削除できたかを返す。
	// 応募・設定・履歴書はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// OrganizationRepository は組織データの永続化インターフェース。
type OrganizationRepository interface {
	FindByID(ctx context.Context, id string) (*model.Organization, error)
	List(ctx context.Context, page Page) ([]*model.Organization, error)
	Create(ctx context.Context, org *model.Organization) error
	Update(ctx context.Context, org *model.Organization) error
	// DeleteByID は組織を削除する。求人と組織ユーザー設定はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// JobListingFilter は求人一覧の絞り込み条件。空文字のフィールドは条件に含めない。
type JobListingFilter struct {
	OrganizationID string
	Status         model.JobListingStatus
	Page           Page
}

// JobListingRepository は求人データの永続化インターフェース。
type JobListingRepository interface {
	FindByID(ctx context.Context, id string) (*model.JobListing, error)
	List(ctx context.Context, filter JobListingFilter) ([]*model.JobListing, error)
	// Create は求人を作成する。存在しない組織の場合はErrReferenceNotFoundを返す。
	Create(ctx context.Context, listing *model.JobListing) error
	Update(ctx context.Context, listing *model.JobListing) error
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// ApplicationFilter は応募一覧の絞り込み条件。
type ApplicationFilter struct {
	JobListingID string
	UserID       string
	Page         Page
}

// ApplicationRepository は応募データの永続化インターフェース。
// 応募は(job_listing_id, user_id)の複合キーで識別する。
type ApplicationRepository interface {
	Find(ctx context.Context, jobListingID, userID string) (*model.JobListingApplication, error)
	List(ctx context.Context, filter ApplicationFilter) ([]*model.JobListingApplication, error)
	Create(ctx context.Context, app *model.JobListingApplication) error
	Update(ctx context.Context, app *model.JobListingApplication) error
	Delete(ctx context.Context, jobListingID, userID string) (bool, error)
}

// NotificationSettingsRepository はユーザー通知設定の永続化インターフェース。
type NotificationSettingsRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.UserNotificationSettings, error)
	// Upsert は設定を作成または上書きする。
	Upsert(ctx context.Context, settings *model.UserNotificationSettings) error
}

// ResumeRepository は履歴書の永続化インターフェース。
type ResumeRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.UserResume, error)
	Upsert(ctx context.Context, resume *model.UserResume) error
	DeleteByUserID(ctx context.Context, userID string) (bool, error)
}

// OrganizationUserSettingsRepository は組織ユーザー設定の永続化インターフェース。
type OrganizationUserSettingsRepository interface {
	Find(ctx context.Context, userID, organizationID string) (*model.OrganizationUserSettings, error)
	Upsert(ctx context.Context, settings *model.OrganizationUserSettings) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
