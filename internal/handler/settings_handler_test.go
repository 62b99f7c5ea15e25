package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/jobboard/internal/model"
)

// --- モック定義 ---

// mockSettingsService はSettingsServiceInterfaceのモック実装。
type mockSettingsService struct {
	notifications map[string]*model.UserNotificationSettings
	resumes       map[string]*model.UserResume
	orgSettings   map[string]*model.OrganizationUserSettings
	lastUserID    string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		notifications: make(map[string]*model.UserNotificationSettings),
		resumes:       make(map[string]*model.UserResume),
		orgSettings:   make(map[string]*model.OrganizationUserSettings),
	}
}

func (m *mockSettingsService) GetNotificationSettings(_ context.Context, userID string) (*model.UserNotificationSettings, error) {
	m.lastUserID = userID
	if s, ok := m.notifications[userID]; ok {
		return s, nil
	}
	return nil, model.NewSettingsNotFoundError()
}

func (m *mockSettingsService) SaveNotificationSettings(_ context.Context, userID string, upd model.UserNotificationSettingsUpdate) (*model.UserNotificationSettings, error) {
	m.lastUserID = userID
	s, ok := m.notifications[userID]
	if !ok {
		s = &model.UserNotificationSettings{UserID: userID}
		m.notifications[userID] = s
	}
	s.Apply(upd)
	return s, nil
}

func (m *mockSettingsService) GetResume(_ context.Context, userID string) (*model.UserResume, error) {
	if r, ok := m.resumes[userID]; ok {
		return r, nil
	}
	return nil, model.NewResumeNotFoundError()
}

func (m *mockSettingsService) SaveResume(_ context.Context, userID string, upd model.UserResumeUpdate) (*model.UserResume, error) {
	if upd.ResumeFileURL != nil && !strings.HasPrefix(*upd.ResumeFileURL, "https://") {
		return nil, model.NewValidationError("resume_file_urlはhttpsのURLで指定してください")
	}
	r, ok := m.resumes[userID]
	if !ok {
		r = &model.UserResume{UserID: userID}
		m.resumes[userID] = r
	}
	r.Apply(upd)
	return r, nil
}

func (m *mockSettingsService) DeleteResume(_ context.Context, userID string) error {
	if _, ok := m.resumes[userID]; !ok {
		return model.NewResumeNotFoundError()
	}
	delete(m.resumes, userID)
	return nil
}

func (m *mockSettingsService) GetOrganizationUserSettings(_ context.Context, userID, orgID string) (*model.OrganizationUserSettings, error) {
	if s, ok := m.orgSettings[userID+"/"+orgID]; ok {
		return s, nil
	}
	return nil, model.NewSettingsNotFoundError()
}

func (m *mockSettingsService) SaveOrganizationUserSettings(_ context.Context, userID, orgID string, upd model.OrganizationUserSettingsUpdate) (*model.OrganizationUserSettings, error) {
	if upd.MinimumRating != nil && !model.ValidRating(*upd.MinimumRating) {
		return nil, model.NewValidationError("minimum_rating")
	}
	key := userID + "/" + orgID
	s, ok := m.orgSettings[key]
	if !ok {
		s = &model.OrganizationUserSettings{UserID: userID, OrganizationID: orgID}
		m.orgSettings[key] = s
	}
	s.Apply(upd)
	return s, nil
}

func settingsRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	return withClerkUser(req, "user_a")
}

// --- /users/me/notification_settings テスト ---

func TestSettingsHandler_NotificationSettings(t *testing.T) {
	svc := newMockSettingsService()
	h := NewSettingsHandler(svc, &mockUserService{})

	w := httptest.NewRecorder()
	h.GetNotificationSettings(w, settingsRequest(http.MethodGet, "/api/v1/users/me/notification_settings", ""))
	if w.Code != http.StatusNotFound {
		t.Fatalf("before save: status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	h.SaveNotificationSettings(w, settingsRequest(http.MethodPut, "/api/v1/users/me/notification_settings",
		`{"new_job_email_notifications":true,"ai_prompt":"remote Go roles"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("save: status = %d", w.Code)
	}
	if svc.lastUserID != "u-user_a" {
		t.Errorf("userID = %q, want local user id", svc.lastUserID)
	}

	w = httptest.NewRecorder()
	h.GetNotificationSettings(w, settingsRequest(http.MethodGet, "/api/v1/users/me/notification_settings", ""))
	var resp notificationSettingsResponse
	decodeBody(t, w, &resp)
	if !resp.NewJobEmailNotifications || model.StringValue(resp.AIPrompt) != "remote Go roles" {
		t.Errorf("unexpected settings: %+v", resp)
	}
}

func TestSettingsHandler_UnknownLocalUser(t *testing.T) {
	users := &mockUserService{
		getByClerkIDFn: func(context.Context, string) (*model.User, error) { return nil, model.NewUserNotFoundError() },
	}
	w := httptest.NewRecorder()
	NewSettingsHandler(newMockSettingsService(), users).
		GetNotificationSettings(w, settingsRequest(http.MethodGet, "/api/v1/users/me/notification_settings", ""))

	if w.Code != http.StatusNotFound || errorCodeOf(t, w) != model.ErrCodeUserNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

// --- /users/me/resume テスト ---

func TestSettingsHandler_Resume(t *testing.T) {
	svc := newMockSettingsService()
	h := NewSettingsHandler(svc, &mockUserService{})

	w := httptest.NewRecorder()
	h.SaveResume(w, settingsRequest(http.MethodPut, "/api/v1/users/me/resume",
		`{"resume_file_url":"http://insecure.example.com/cv.pdf","resume_file_key":"cv"}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("insecure url: status = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	h.SaveResume(w, settingsRequest(http.MethodPut, "/api/v1/users/me/resume",
		`{"resume_file_url":"https://files.example.com/cv.pdf","resume_file_key":"cv"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("save: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.GetResume(w, settingsRequest(http.MethodGet, "/api/v1/users/me/resume", ""))
	var resp resumeResponse
	decodeBody(t, w, &resp)
	if resp.ResumeFileKey != "cv" {
		t.Errorf("unexpected resume: %+v", resp)
	}

	w = httptest.NewRecorder()
	h.DeleteResume(w, settingsRequest(http.MethodDelete, "/api/v1/users/me/resume", ""))
	if w.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", w.Code)
	}

	w = httptest.NewRecorder()
	h.DeleteResume(w, settingsRequest(http.MethodDelete, "/api/v1/users/me/resume", ""))
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", w.Code)
	}
}

// --- /organizations/{id}/user_settings テスト ---

func TestSettingsHandler_OrganizationUserSettings(t *testing.T) {
	svc := newMockSettingsService()
	h := NewSettingsHandler(svc, &mockUserService{})

	req := withURLParams(settingsRequest(http.MethodPut, "/api/v1/organizations/org_1/user_settings",
		`{"new_application_email_notifications":true,"minimum_rating":4}`), "id", "org_1")
	w := httptest.NewRecorder()
	h.SaveOrganizationUserSettings(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("save: status = %d", w.Code)
	}

	req = withURLParams(settingsRequest(http.MethodGet, "/api/v1/organizations/org_1/user_settings", ""), "id", "org_1")
	w = httptest.NewRecorder()
	h.GetOrganizationUserSettings(w, req)
	var resp organizationUserSettingsResponse
	decodeBody(t, w, &resp)
	if resp.OrganizationID != "org_1" || !resp.NewApplicationEmailNotifications || resp.MinimumRating == nil || *resp.MinimumRating != 4 {
		t.Errorf("unexpected settings: %+v", resp)
	}

	req = withURLParams(settingsRequest(http.MethodPut, "/api/v1/organizations/org_1/user_settings",
		`{"minimum_rating":9}`), "id", "org_1")
	w = httptest.NewRecorder()
	h.SaveOrganizationUserSettings(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid rating: status = %d, want 400", w.Code)
	}
}
