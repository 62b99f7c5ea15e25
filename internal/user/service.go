// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
)

// CreateInput はユーザー作成の入力値。
type CreateInput struct {
	ClerkID     string
	Email       string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	ImageURL    *string
}

// Service はユーザー管理のサービス層。
// Webhookを経由しない直接のユーザー作成・更新・退会を扱う。
type Service struct {
	userRepo repository.UserRepository
	now      func() time.Time
	newID    func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{
		userRepo: userRepo,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Create はユーザーを作成する。
// clerk_idまたはemailが既に登録されている場合はCONFLICTエラーを返す。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.User, error) {
	in.ClerkID = strings.TrimSpace(in.ClerkID)
	in.Email = strings.TrimSpace(in.Email)
	if in.ClerkID == "" {
		return nil, model.NewValidationError("clerk_idは必須です")
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &model.User{
		ID:          s.newID(),
		ClerkID:     in.ClerkID,
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		ImageURL:    in.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("clerk_idまたはemail")
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを作成しました", slog.String("user_id", u.ID), slog.String("clerk_id", u.ClerkID))
	return u, nil
}

// List はユーザー一覧を返す。
func (s *Service) List(ctx context.Context, page repository.Page) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Get は指定IDのユーザーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}

// GetByClerkID はClerkのユーザーIDに対応するユーザーを返す。
func (s *Service) GetByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	u, err := s.userRepo.FindByClerkID(ctx, clerkID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}

// Update はClerk IDで特定したユーザーに部分更新を適用する。
// 値に変化がない場合は書き込みを行わない。
func (s *Service) Update(ctx context.Context, clerkID string, upd model.UserUpdate) (*model.User, error) {
	if upd.Email != nil {
		trimmed := strings.TrimSpace(*upd.Email)
		if err := validateEmail(trimmed); err != nil {
			return nil, err
		}
		upd.Email = &trimmed
	}

	u, err := s.GetByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if !u.Apply(upd) {
		return u, nil
	}

	u.UpdatedAt = s.now().UTC()
	if err := s.userRepo.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("email")
		}
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	return u, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 応募・通知設定・履歴書・組織ユーザー設定はDBのCASCADEで削除される。
func (s *Service) Withdraw(ctx context.Context, clerkID string) error {
	u, err := s.GetByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	slog.Info("退会処理を開始します", slog.String("user_id", u.ID))

	deleted, err := s.userRepo.DeleteByID(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理が完了しました", slog.String("user_id", u.ID))
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return model.NewValidationError("emailは必須です")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return model.NewValidationError("emailの形式が不正です")
	}
	return nil
}
