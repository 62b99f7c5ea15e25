package model

import "time"

// UserNotificationSettings はユーザーごとの新着求人通知設定を表す。
type UserNotificationSettings struct {
	UserID                   string
	NewJobEmailNotifications bool
	AIPrompt                 *string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// UserNotificationSettingsUpdate は通知設定の部分更新内容を表す。
type UserNotificationSettingsUpdate struct {
	NewJobEmailNotifications *bool
	AIPrompt                 *string
}

// Apply は指定されたフィールドのみを通知設定に反映する。
func (s *UserNotificationSettings) Apply(upd UserNotificationSettingsUpdate) {
	if upd.NewJobEmailNotifications != nil {
		s.NewJobEmailNotifications = *upd.NewJobEmailNotifications
	}
	applyOptional(&s.AIPrompt, upd.AIPrompt)
}

// UserResume はユーザーがアップロードした履歴書を表す。
type UserResume struct {
	UserID        string
	ResumeFileURL string
	ResumeFileKey string
	AISummary     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserResumeUpdate は履歴書の部分更新内容を表す。
type UserResumeUpdate struct {
	ResumeFileURL *string
	ResumeFileKey *string
	AISummary     *string
}

// Apply は指定されたフィールドのみを履歴書に反映する。
func (r *UserResume) Apply(upd UserResumeUpdate) {
	if upd.ResumeFileURL != nil {
		r.ResumeFileURL = *upd.ResumeFileURL
	}
	if upd.ResumeFileKey != nil {
		r.ResumeFileKey = *upd.ResumeFileKey
	}
	applyOptional(&r.AISummary, upd.AISummary)
}

// OrganizationUserSettings は組織メンバーごとの応募通知設定を表す。
// (UserID, OrganizationID) の組で一意になる。
type OrganizationUserSettings struct {
	UserID                           string
	OrganizationID                   string
	NewApplicationEmailNotifications bool
	MinimumRating                    *int
	CreatedAt                        time.Time
	UpdatedAt                        time.Time
}

// OrganizationUserSettingsUpdate は組織ユーザー設定の部分更新内容を表す。
type OrganizationUserSettingsUpdate struct {
	NewApplicationEmailNotifications *bool
	MinimumRating                    *int
}

// Apply は指定されたフィールドのみを組織ユーザー設定に反映する。
func (s *OrganizationUserSettings) Apply(upd OrganizationUserSettingsUpdate) {
	if upd.NewApplicationEmailNotifications != nil {
		s.NewApplicationEmailNotifications = *upd.NewApplicationEmailNotifications
	}
	if upd.MinimumRating != nil {
		v := *upd.MinimumRating
		s.MinimumRating = &v
	}
}
