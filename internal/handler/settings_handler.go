package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobboard/internal/model"
)

// SettingsServiceInterface は設定ハンドラーが必要とするサービスインターフェース。
// userIDはいずれもローカルのユーザーID。
type SettingsServiceInterface interface {
	GetNotificationSettings(ctx context.Context, userID string) (*model.UserNotificationSettings, error)
	SaveNotificationSettings(ctx context.Context, userID string, upd model.UserNotificationSettingsUpdate) (*model.UserNotificationSettings, error)
	GetResume(ctx context.Context, userID string) (*model.UserResume, error)
	SaveResume(ctx context.Context, userID string, upd model.UserResumeUpdate) (*model.UserResume, error)
	DeleteResume(ctx context.Context, userID string) error
	GetOrganizationUserSettings(ctx context.Context, userID, orgID string) (*model.OrganizationUserSettings, error)
	SaveOrganizationUserSettings(ctx context.Context, userID, orgID string, upd model.OrganizationUserSettingsUpdate) (*model.OrganizationUserSettings, error)
}

// SettingsHandler は認証済みユーザー自身の設定を扱うHTTPハンドラー。
// 組織ユーザー設定のメンバーシップ確認はルーター側で行う。
type SettingsHandler struct {
	service SettingsServiceInterface
	users   CurrentUserResolver
}

// NewSettingsHandler はSettingsHandlerを生成する。
func NewSettingsHandler(service SettingsServiceInterface, users CurrentUserResolver) *SettingsHandler {
	return &SettingsHandler{service: service, users: users}
}

type notificationSettingsResponse struct {
	NewJobEmailNotifications bool      `json:"new_job_email_notifications"`
	AIPrompt                 *string   `json:"ai_prompt"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

type notificationSettingsRequest struct {
	NewJobEmailNotifications *bool   `json:"new_job_email_notifications"`
	AIPrompt                 *string `json:"ai_prompt"`
}

type resumeResponse struct {
	ResumeFileURL string    `json:"resume_file_url"`
	ResumeFileKey string    `json:"resume_file_key"`
	AISummary     *string   `json:"ai_summary"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type resumeRequest struct {
	ResumeFileURL *string `json:"resume_file_url"`
	ResumeFileKey *string `json:"resume_file_key"`
	AISummary     *string `json:"ai_summary"`
}

type organizationUserSettingsResponse struct {
	OrganizationID                   string    `json:"organization_id"`
	NewApplicationEmailNotifications bool      `json:"new_application_email_notifications"`
	MinimumRating                    *int      `json:"minimum_rating"`
	CreatedAt                        time.Time `json:"created_at"`
	UpdatedAt                        time.Time `json:"updated_at"`
}

type organizationUserSettingsRequest struct {
	NewApplicationEmailNotifications *bool `json:"new_application_email_notifications"`
	MinimumRating                    *int  `json:"minimum_rating"`
}

func toNotificationSettingsResponse(s *model.UserNotificationSettings) notificationSettingsResponse {
	return notificationSettingsResponse{
		NewJobEmailNotifications: s.NewJobEmailNotifications,
		AIPrompt:                 s.AIPrompt,
		CreatedAt:                s.CreatedAt,
		UpdatedAt:                s.UpdatedAt,
	}
}

func toResumeResponse(r *model.UserResume) resumeResponse {
	return resumeResponse{
		ResumeFileURL: r.ResumeFileURL,
		ResumeFileKey: r.ResumeFileKey,
		AISummary:     r.AISummary,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toOrganizationUserSettingsResponse(s *model.OrganizationUserSettings) organizationUserSettingsResponse {
	return organizationUserSettingsResponse{
		OrganizationID:                   s.OrganizationID,
		NewApplicationEmailNotifications: s.NewApplicationEmailNotifications,
		MinimumRating:                    s.MinimumRating,
		CreatedAt:                        s.CreatedAt,
		UpdatedAt:                        s.UpdatedAt,
	}
}

// GetNotificationSettings は通知設定を返す。
// GET /users/me/notification_settings
func (h *SettingsHandler) GetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.users)
	if !ok {
		return
	}
	s, err := h.service.GetNotificationSettings(r.Context(), u.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationSettingsResponse(s))
}

// SaveNotificationSettings は通知設定を保存する。
// PUT /users/me/notification_settings
func (h *SettingsHandler) SaveNotificationSettings(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.users)
	if !ok {
		return
	}
	var req notificationSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.service.SaveNotificationSettings(r.Context(), u.ID, model.UserNotificationSettingsUpdate{
		NewJobEmailNotifications: req.NewJobEmailNotifications,
		AIPrompt:                 req.AIPrompt,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationSettingsResponse(s))
}

// GetResume は履歴書を返す。
// GET /users/me/resume
func (h *SettingsHandler) GetResume(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.users)
	if !ok {
		return
	}
	resume, err := h.service.GetResume(r.Context(), u.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResumeResponse(resume))
}

// SaveResume は履歴書を保存する。
// PUT /users/me/resume
func (h *SettingsHandler) SaveResume(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.users)
	if !ok {
		return
	}
	var req resumeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resume, err := h.service.SaveResume(r.Context(), u.ID, model.UserResumeUpdate{
		ResumeFileURL: req.ResumeFileURL,
		ResumeFileKey: req.ResumeFileKey,
		AISummary:     req.AISummary,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResumeResponse(resume))
}

// DeleteResume は履歴書を削除する。
// DELETE /users/me/resume
func (h *SettingsHandler) DeleteResume(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.users)
	if !ok {
		return
	}
	if err := h.service.DeleteResume(r.Context(), u.ID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOrganizationUserSettings は組織における自分の応募通知設定を返す。
// GET /organizations/{id}/user_settings
func (h *SettingsHandler) GetOrganizationUserSettings(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.users)
	if !ok {
		return
	}
	s, err := h.service.GetOrganizationUserSettings(r.Context(), u.ID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationUserSettingsResponse(s))
}

// SaveOrganizationUserSettings は組織における自分の応募通知設定を保存する。
// PUT /organizations/{id}/user_settings
func (h *SettingsHandler) SaveOrganizationUserSettings(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.users)
	if !ok {
		return
	}
	var req organizationUserSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.service.SaveOrganizationUserSettings(r.Context(), u.ID, chi.URLParam(r, "id"), model.OrganizationUserSettingsUpdate{
		NewApplicationEmailNotifications: req.NewApplicationEmailNotifications,
		MinimumRating:                    req.MinimumRating,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationUserSettingsResponse(s))
}
