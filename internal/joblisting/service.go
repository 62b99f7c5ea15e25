// Package joblisting は組織が掲載する求人の管理ロジックを提供する。
package joblisting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
)

// Sanitizer はHTML入力のサニタイズを行う。
type Sanitizer interface {
	SanitizeHTML(raw string) string
	SanitizeText(raw string) string
}

// CreateInput は求人作成の入力値。Statusが空の場合はdraftになる。
type CreateInput struct {
	OrganizationID      string
	Title               string
	Description         string
	Wage                *int
	WageInterval        *model.WageInterval
	StateAbbreviation   *string
	City                *string
	IsFeatured          bool
	LocationRequirement model.LocationRequirement
	ExperienceLevel     model.ExperienceLevel
	Status              model.JobListingStatus
	Type                model.JobListingType
}

// Service は求人管理のサービス層。
type Service struct {
	repo      repository.JobListingRepository
	sanitizer Sanitizer
	now       func() time.Time
	newID     func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.JobListingRepository, sanitizer Sanitizer) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create は求人を作成する。公開状態で作成した場合は掲載日時を設定する。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.JobListing, error) {
	if strings.TrimSpace(in.OrganizationID) == "" {
		return nil, model.NewValidationError("organization_idは必須です")
	}
	if in.Status == "" {
		in.Status = model.JobListingStatusDraft
	}

	now := s.now().UTC()
	j := &model.JobListing{
		ID:                  s.newID(),
		OrganizationID:      strings.TrimSpace(in.OrganizationID),
		Title:               s.sanitizer.SanitizeText(in.Title),
		Description:         s.sanitizer.SanitizeHTML(in.Description),
		Wage:                in.Wage,
		WageInterval:        in.WageInterval,
		StateAbbreviation:   normalizeState(in.StateAbbreviation),
		City:                trimOptional(in.City),
		IsFeatured:          in.IsFeatured,
		LocationRequirement: in.LocationRequirement,
		ExperienceLevel:     in.ExperienceLevel,
		Status:              in.Status,
		Type:                in.Type,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if j.Status == model.JobListingStatusPublished {
		j.PostedAt = &now
	}
	if err := validate(j); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, j); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, model.NewOrganizationNotFoundError(j.OrganizationID)
		}
		return nil, fmt.Errorf("求人の作成に失敗しました: %w", err)
	}

	slog.Info("求人を作成しました",
		slog.String("job_listing_id", j.ID),
		slog.String("organization_id", j.OrganizationID),
		slog.String("status", string(j.Status)),
	)
	return j, nil
}

// List は条件に一致する求人一覧を返す。
func (s *Service) List(ctx context.Context, filter repository.JobListingFilter) ([]*model.JobListing, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.NewValidationError("statusの値が不正です")
	}
	listings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("求人一覧の取得に失敗しました: %w", err)
	}
	return listings, nil
}

// Get は指定IDの求人を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.JobListing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewJobListingNotFoundError(id)
	}
	j, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if j == nil {
		return nil, model.NewJobListingNotFoundError(id)
	}
	return j, nil
}

// Update は求人に部分更新を適用する。
// 初めて公開状態になった場合は掲載日時を設定する。
func (s *Service) Update(ctx context.Context, id string, upd model.JobListingUpdate) (*model.JobListing, error) {
	j, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		v := s.sanitizer.SanitizeText(*upd.Title)
		upd.Title = &v
	}
	if upd.Description != nil {
		v := s.sanitizer.SanitizeHTML(*upd.Description)
		upd.Description = &v
	}
	upd.StateAbbreviation = normalizeState(upd.StateAbbreviation)
	upd.City = trimOptional(upd.City)

	j.Apply(upd)
	now := s.now().UTC()
	if j.Status == model.JobListingStatusPublished && j.PostedAt == nil {
		j.PostedAt = &now
	}
	if err := validate(j); err != nil {
		return nil, err
	}

	j.UpdatedAt = now
	if err := s.repo.Update(ctx, j); err != nil {
		return nil, fmt.Errorf("求人の更新に失敗しました: %w", err)
	}
	return j, nil
}

// Delete は求人を削除する。応募はCASCADE削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.NewJobListingNotFoundError(id)
	}
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("求人の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewJobListingNotFoundError(id)
	}
	slog.Info("求人を削除しました", slog.String("job_listing_id", id))
	return nil
}

func validate(j *model.JobListing) error {
	switch {
	case j.Title == "":
		return model.NewValidationError("titleは必須です")
	case strings.TrimSpace(j.Description) == "":
		return model.NewValidationError("descriptionは必須です")
	case !j.LocationRequirement.Valid():
		return model.NewValidationError("location_requirementの値が不正です")
	case !j.ExperienceLevel.Valid():
		return model.NewValidationError("experience_levelの値が不正です")
	case !j.Status.Valid():
		return model.NewValidationError("statusの値が不正です")
	case !j.Type.Valid():
		return model.NewValidationError("typeの値が不正です")
	}
	if j.Wage != nil && *j.Wage < 0 {
		return model.NewValidationError("wageは0以上で指定してください")
	}
	if j.WageInterval != nil && !j.WageInterval.Valid() {
		return model.NewValidationError("wage_intervalの値が不正です")
	}
	if (j.Wage == nil) != (j.WageInterval == nil) {
		return model.NewValidationError("wageとwage_intervalは同時に指定してください")
	}
	if j.StateAbbreviation != nil && *j.StateAbbreviation != "" && len(*j.StateAbbreviation) != 2 {
		return model.NewValidationError("state_abbreviationは2文字で指定してください")
	}
	return nil
}

func normalizeState(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.ToUpper(strings.TrimSpace(*v))
	return &s
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}
