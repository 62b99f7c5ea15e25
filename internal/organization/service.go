// Package organization は求人を掲載する組織の管理ロジックを提供する。
package organization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
)

// CreateInput は組織作成の入力値。IDはClerkの組織ID。
type CreateInput struct {
	ID       string
	Name     string
	ImageURL *string
}

// Service は組織管理のサービス層。
type Service struct {
	repo repository.OrganizationRepository
	now  func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.OrganizationRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create は組織を登録する。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Organization, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	if in.ID == "" {
		return nil, model.NewValidationError("idは必須です")
	}
	if in.Name == "" {
		return nil, model.NewValidationError("nameは必須です")
	}

	now := s.now().UTC()
	org := &model.Organization{ID: in.ID, Name: in.Name, ImageURL: in.ImageURL, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, org); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("organization id")
		}
		return nil, fmt.Errorf("組織の作成に失敗しました: %w", err)
	}
	return org, nil
}

// List は組織一覧を返す。
func (s *Service) List(ctx context.Context, page repository.Page) ([]*model.Organization, error) {
	orgs, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("組織一覧の取得に失敗しました: %w", err)
	}
	return orgs, nil
}

// Get は指定IDの組織を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Organization, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("組織の取得に失敗しました: %w", err)
	}
	if org == nil {
		return nil, model.NewOrganizationNotFoundError(id)
	}
	return org, nil
}

// Update は組織に部分更新を適用する。
func (s *Service) Update(ctx context.Context, id string, upd model.OrganizationUpdate) (*model.Organization, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, model.NewValidationError("nameは空にできません")
		}
		upd.Name = &name
	}

	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	org.Apply(upd)
	org.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("組織の更新に失敗しました: %w", err)
	}
	return org, nil
}

// Delete は組織を削除する。求人と組織ユーザー設定はCASCADE削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("組織の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewOrganizationNotFoundError(id)
	}
	return nil
}
