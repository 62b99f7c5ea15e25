package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/jobboard/internal/model"
)

// PostgresNotificationSettingsRepo はユーザー通知設定のリポジトリ。
type PostgresNotificationSettingsRepo struct {
	db DBTX
}

// NewPostgresNotificationSettingsRepo はPostgresNotificationSettingsRepoを生成する。
func NewPostgresNotificationSettingsRepo(db DBTX) *PostgresNotificationSettingsRepo {
	return &PostgresNotificationSettingsRepo{db: db}
}

// FindByUserID はユーザーの通知設定を取得する。未登録の場合はnilを返す。
func (r *PostgresNotificationSettingsRepo) FindByUserID(ctx context.Context, userID string) (*model.UserNotificationSettings, error) {
	s := &model.UserNotificationSettings{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, new_job_email_notifications, ai_prompt, created_at, updated_at
		 FROM user_notification_settings WHERE user_id = $1`, userID,
	).Scan(&s.UserID, &s.NewJobEmailNotifications, &s.AIPrompt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notification settings: %w", err)
	}
	return s, nil
}

// Upsert は通知設定を作成または更新する。created_atは初回のみ設定される。
func (r *PostgresNotificationSettingsRepo) Upsert(ctx context.Context, s *model.UserNotificationSettings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_notification_settings (user_id, new_job_email_notifications, ai_prompt, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		     new_job_email_notifications = EXCLUDED.new_job_email_notifications,
		     ai_prompt = EXCLUDED.ai_prompt,
		     updated_at = EXCLUDED.updated_at`,
		s.UserID, s.NewJobEmailNotifications, s.AIPrompt, s.CreatedAt, s.UpdatedAt,
	)
	return translateError(err, "failed to upsert notification settings")
}

var _ NotificationSettingsRepository = (*PostgresNotificationSettingsRepo)(nil)

// PostgresResumeRepo は履歴書のリポジトリ。
type PostgresResumeRepo struct {
	db DBTX
}

// NewPostgresResumeRepo はPostgresResumeRepoを生成する。
func NewPostgresResumeRepo(db DBTX) *PostgresResumeRepo {
	return &PostgresResumeRepo{db: db}
}

// FindByUserID はユーザーの履歴書を取得する。未登録の場合はnilを返す。
func (r *PostgresResumeRepo) FindByUserID(ctx context.Context, userID string) (*model.UserResume, error) {
	res := &model.UserResume{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, resume_file_url, resume_file_key, ai_summary, created_at, updated_at
		 FROM user_resumes WHERE user_id = $1`, userID,
	).Scan(&res.UserID, &res.ResumeFileURL, &res.ResumeFileKey, &res.AISummary, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find resume: %w", err)
	}
	return res, nil
}

// Upsert は履歴書を作成または置き換える。
func (r *PostgresResumeRepo) Upsert(ctx context.Context, res *model.UserResume) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_resumes (user_id, resume_file_url, resume_file_key, ai_summary, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
		     resume_file_url = EXCLUDED.resume_file_url,
		     resume_file_key = EXCLUDED.resume_file_key,
		     ai_summary = EXCLUDED.ai_summary,
		     updated_at = EXCLUDED.updated_at`,
		res.UserID, res.ResumeFileURL, res.ResumeFileKey, res.AISummary, res.CreatedAt, res.UpdatedAt,
	)
	return translateError(err, "failed to upsert resume")
}

// DeleteByUserID は履歴書を削除し、削除できたかを返す。
func (r *PostgresResumeRepo) DeleteByUserID(ctx context.Context, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_resumes WHERE user_id = $1`, userID)
	if err != nil {
		return false, translateError(err, "failed to delete resume")
	}
	return rowsAffected(result)
}

var _ ResumeRepository = (*PostgresResumeRepo)(nil)

// PostgresOrganizationUserSettingsRepo は組織ユーザー設定のリポジトリ。
type PostgresOrganizationUserSettingsRepo struct {
	db DBTX
}

// NewPostgresOrganizationUserSettingsRepo はPostgresOrganizationUserSettingsRepoを生成する。
func NewPostgresOrganizationUserSettingsRepo(db DBTX) *PostgresOrganizationUserSettingsRepo {
	return &PostgresOrganizationUserSettingsRepo{db: db}
}

// Find はユーザーと組織の組で設定を取得する。未登録の場合はnilを返す。
func (r *PostgresOrganizationUserSettingsRepo) Find(ctx context.Context, userID, organizationID string) (*model.OrganizationUserSettings, error) {
	s := &model.OrganizationUserSettings{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, organization_id, new_application_email_notifications, minimum_rating, created_at, updated_at
		 FROM organization_user_settings WHERE user_id = $1 AND organization_id = $2`,
		userID, organizationID,
	).Scan(&s.UserID, &s.OrganizationID, &s.NewApplicationEmailNotifications, &s.MinimumRating, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find organization user settings: %w", err)
	}
	return s, nil
}

// Upsert は組織ユーザー設定を作成または更新する。
func (r *PostgresOrganizationUserSettingsRepo) Upsert(ctx context.Context, s *model.OrganizationUserSettings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organization_user_settings
		     (user_id, organization_id, new_application_email_notifications, minimum_rating, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, organization_id) DO UPDATE SET
		     new_application_email_notifications = EXCLUDED.new_application_email_notifications,
		     minimum_rating = EXCLUDED.minimum_rating,
		     updated_at = EXCLUDED.updated_at`,
		s.UserID, s.OrganizationID, s.NewApplicationEmailNotifications, s.MinimumRating, s.CreatedAt, s.UpdatedAt,
	)
	return translateError(err, "failed to upsert organization user settings")
}

var _ OrganizationUserSettingsRepository = (*PostgresOrganizationUserSettingsRepo)(nil)
