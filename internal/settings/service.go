// Package settings はユーザー通知設定・履歴書・組織ユーザー設定の管理ロジックを提供する。
// いずれも1ユーザー（または1ユーザー×1組織）に1件で、保存はupsertで行う。
package settings

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
)

// TextSanitizer はプレーンテキスト入力からタグを除去する。
type TextSanitizer interface {
	SanitizeText(raw string) string
}

// Service は設定管理のサービス層。
type Service struct {
	notifications repository.NotificationSettingsRepository
	resumes       repository.ResumeRepository
	orgSettings   repository.OrganizationUserSettingsRepository
	sanitizer     TextSanitizer
	now           func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	notifications repository.NotificationSettingsRepository,
	resumes repository.ResumeRepository,
	orgSettings repository.OrganizationUserSettingsRepository,
	sanitizer TextSanitizer,
) *Service {
	return &Service{
		notifications: notifications,
		resumes:       resumes,
		orgSettings:   orgSettings,
		sanitizer:     sanitizer,
		now:           time.Now,
	}
}

// GetNotificationSettings はユーザーの通知設定を返す。
func (s *Service) GetNotificationSettings(ctx context.Context, userID string) (*model.UserNotificationSettings, error) {
	ns, err := s.notifications.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("通知設定の取得に失敗しました: %w", err)
	}
	if ns == nil {
		return nil, model.NewSettingsNotFoundError()
	}
	return ns, nil
}

// SaveNotificationSettings は通知設定を保存する。未登録の場合は既定値に更新内容を適用して作成する。
func (s *Service) SaveNotificationSettings(ctx context.Context, userID string, upd model.UserNotificationSettingsUpdate) (*model.UserNotificationSettings, error) {
	if upd.AIPrompt != nil {
		v := s.sanitizer.SanitizeText(*upd.AIPrompt)
		upd.AIPrompt = &v
	}

	ns, err := s.notifications.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("通知設定の取得に失敗しました: %w", err)
	}
	now := s.now().UTC()
	if ns == nil {
		ns = &model.UserNotificationSettings{UserID: userID, CreatedAt: now}
	}
	ns.Apply(upd)
	ns.UpdatedAt = now

	if err := s.notifications.Upsert(ctx, ns); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("通知設定の保存に失敗しました: %w", err)
	}
	return ns, nil
}

// GetResume はユーザーの履歴書を返す。
func (s *Service) GetResume(ctx context.Context, userID string) (*model.UserResume, error) {
	r, err := s.resumes.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("履歴書の取得に失敗しました: %w", err)
	}
	if r == nil {
		return nil, model.NewResumeNotFoundError()
	}
	return r, nil
}

// SaveResume は履歴書を保存する。新規作成時はファイルURLとキーが必須。
func (s *Service) SaveResume(ctx context.Context, userID string, upd model.UserResumeUpdate) (*model.UserResume, error) {
	if upd.ResumeFileURL != nil {
		if err := validateFileURL(*upd.ResumeFileURL); err != nil {
			return nil, err
		}
	}
	if upd.ResumeFileKey != nil && strings.TrimSpace(*upd.ResumeFileKey) == "" {
		return nil, model.NewValidationError("resume_file_keyは空にできません")
	}

	r, err := s.resumes.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("履歴書の取得に失敗しました: %w", err)
	}
	now := s.now().UTC()
	if r == nil {
		if upd.ResumeFileURL == nil || upd.ResumeFileKey == nil {
			return nil, model.NewValidationError("resume_file_urlとresume_file_keyは必須です")
		}
		r = &model.UserResume{UserID: userID, CreatedAt: now}
	}
	r.Apply(upd)
	r.UpdatedAt = now

	if err := s.resumes.Upsert(ctx, r); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("履歴書の保存に失敗しました: %w", err)
	}
	return r, nil
}

// DeleteResume は履歴書を削除する。
func (s *Service) DeleteResume(ctx context.Context, userID string) error {
	deleted, err := s.resumes.DeleteByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("履歴書の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewResumeNotFoundError()
	}
	return nil
}

// GetOrganizationUserSettings は組織メンバーの応募通知設定を返す。
func (s *Service) GetOrganizationUserSettings(ctx context.Context, userID, orgID string) (*model.OrganizationUserSettings, error) {
	us, err := s.orgSettings.Find(ctx, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("組織ユーザー設定の取得に失敗しました: %w", err)
	}
	if us == nil {
		return nil, model.NewSettingsNotFoundError()
	}
	return us, nil
}

// SaveOrganizationUserSettings は組織メンバーの応募通知設定を保存する。
func (s *Service) SaveOrganizationUserSettings(ctx context.Context, userID, orgID string, upd model.OrganizationUserSettingsUpdate) (*model.OrganizationUserSettings, error) {
	if upd.MinimumRating != nil && !model.ValidRating(*upd.MinimumRating) {
		return nil, model.NewValidationError(fmt.Sprintf("minimum_ratingは%d〜%dで指定してください", model.MinRating, model.MaxRating))
	}

	us, err := s.orgSettings.Find(ctx, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("組織ユーザー設定の取得に失敗しました: %w", err)
	}
	now := s.now().UTC()
	if us == nil {
		us = &model.OrganizationUserSettings{UserID: userID, OrganizationID: orgID, CreatedAt: now}
	}
	us.Apply(upd)
	us.UpdatedAt = now

	if err := s.orgSettings.Upsert(ctx, us); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, model.NewOrganizationNotFoundError(orgID)
		}
		return nil, fmt.Errorf("組織ユーザー設定の保存に失敗しました: %w", err)
	}
	return us, nil
}

func validateFileURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return model.NewValidationError("resume_file_urlはhttpsのURLで指定してください")
	}
	return nil
}
