package user

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*model.User, error)
	findByClerkIDFn func(ctx context.Context, clerkID string) (*model.User, error)
	listFn          func(ctx context.Context, page repository.Page) ([]*model.User, error)
	createFn        func(ctx context.Context, user *model.User) error
	updateFn        func(ctx context.Context, user *model.User) error
	deleteByIDFn    func(ctx context.Context, id string) (bool, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	if m.findByClerkIDFn != nil {
		return m.findByClerkIDFn(ctx, clerkID)
	}
	return nil, nil
}
func (m *mockUserRepo) List(ctx context.Context, page repository.Page) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx, page)
	}
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return true, nil
}

func newTestService(repo repository.UserRepository) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "user-1" }
	return svc
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("expected code %s, got %s", code, apiErr.Code)
	}
}

// --- テスト ---

// TestService_Create はユーザー作成でIDとタイムスタンプが設定されることを検証する。
func TestService_Create(t *testing.T) {
	var stored *model.User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			stored = user
			return nil
		},
	}

	u, err := newTestService(repo).Create(context.Background(), CreateInput{
		ClerkID:   " user_abc ",
		Email:     "a@example.com",
		FirstName: model.StringPtr("Ada"),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if stored == nil || stored.ID != "user-1" || stored.ClerkID != "user_abc" {
		t.Errorf("stored user = %+v", stored)
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt != u.CreatedAt {
		t.Errorf("timestamps not set: %v %v", u.CreatedAt, u.UpdatedAt)
	}
}

// TestService_Create_Validation は必須項目の検証を確認する。
func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
	}{
		{"clerk_idなし", CreateInput{Email: "a@example.com"}},
		{"emailなし", CreateInput{ClerkID: "user_1"}},
		{"email形式不正", CreateInput{ClerkID: "user_1", Email: "not-an-email"}},
		{"表示名付きemail", CreateInput{ClerkID: "user_1", Email: "Ada <a@example.com>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(&mockUserRepo{}).Create(context.Background(), tt.in)
			assertAPIErrorCode(t, err, model.ErrCodeValidation)
		})
	}
}

// TestService_Create_Duplicate は一意制約違反がCONFLICTになることを検証する。
func TestService_Create_Duplicate(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			return fmt.Errorf("insert: %w", repository.ErrDuplicate)
		},
	}
	_, err := newTestService(repo).Create(context.Background(), CreateInput{ClerkID: "user_1", Email: "a@example.com"})
	assertAPIErrorCode(t, err, model.ErrCodeConflict)
}

// TestService_GetByClerkID_NotFound は未登録ユーザーでUSER_NOT_FOUNDを返すことを検証する。
func TestService_GetByClerkID_NotFound(t *testing.T) {
	_, err := newTestService(&mockUserRepo{}).GetByClerkID(context.Background(), "user_missing")
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

// TestService_Update は指定フィールドのみが更新されることを検証する。
func TestService_Update(t *testing.T) {
	updateCalled := false
	repo := &mockUserRepo{
		findByClerkIDFn: func(ctx context.Context, clerkID string) (*model.User, error) {
			return &model.User{ID: "user-1", ClerkID: clerkID, Email: "a@example.com", FirstName: model.StringPtr("Ada")}, nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			updateCalled = true
			return nil
		},
	}

	u, err := newTestService(repo).Update(context.Background(), "user_1", model.UserUpdate{LastName: model.StringPtr("Lovelace")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !updateCalled {
		t.Error("expected repository Update to be called")
	}
	if model.StringValue(u.FirstName) != "Ada" || model.StringValue(u.LastName) != "Lovelace" {
		t.Errorf("unexpected names: %v %v", u.FirstName, u.LastName)
	}
}

// TestService_Update_NoChange は変更がない場合に書き込みを行わないことを検証する。
func TestService_Update_NoChange(t *testing.T) {
	repo := &mockUserRepo{
		findByClerkIDFn: func(ctx context.Context, clerkID string) (*model.User, error) {
			return &model.User{ID: "user-1", ClerkID: clerkID, Email: "a@example.com"}, nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			t.Error("Update should not be called")
			return nil
		},
	}
	if _, err := newTestService(repo).Update(context.Background(), "user_1", model.UserUpdate{Email: model.StringPtr("a@example.com")}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
}

// TestService_Withdraw は退会処理でユーザーが削除されることを検証する。
func TestService_Withdraw(t *testing.T) {
	var deletedID string
	repo := &mockUserRepo{
		findByClerkIDFn: func(ctx context.Context, clerkID string) (*model.User, error) {
			return &model.User{ID: "user-1", ClerkID: clerkID}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) (bool, error) {
			deletedID = id
			return true, nil
		},
	}

	if err := newTestService(repo).Withdraw(context.Background(), "user_1"); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	if deletedID != "user-1" {
		t.Errorf("deleted %q, want user-1", deletedID)
	}
}

// TestService_Withdraw_UserNotFound は存在しないユーザーの退会がエラーになることを検証する。
func TestService_Withdraw_UserNotFound(t *testing.T) {
	err := newTestService(&mockUserRepo{}).Withdraw(context.Background(), "user_missing")
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

// TestService_Withdraw_DeleteError は削除失敗がラップされて返ることを検証する。
func TestService_Withdraw_DeleteError(t *testing.T) {
	dbErr := errors.New("db down")
	repo := &mockUserRepo{
		findByClerkIDFn: func(ctx context.Context, clerkID string) (*model.User, error) {
			return &model.User{ID: "user-1"}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) (bool, error) {
			return false, dbErr
		},
	}
	err := newTestService(repo).Withdraw(context.Background(), "user_1")
	if !errors.Is(err, dbErr) {
		t.Errorf("expected wrapped db error, got %v", err)
	}
}
