// Package application は求人への応募の管理ロジックを提供する。
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
)

// Sanitizer はカバーレターのサニタイズを行う。
type Sanitizer interface {
	SanitizeHTML(raw string) string
}

// CreateInput は応募作成の入力値。UserIDはローカルのユーザーID。
type CreateInput struct {
	JobListingID string
	UserID       string
	CoverLetter  *string
}

// Service は応募管理のサービス層。
type Service struct {
	appRepo     repository.ApplicationRepository
	listingRepo repository.JobListingRepository
	sanitizer   Sanitizer
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(appRepo repository.ApplicationRepository, listingRepo repository.JobListingRepository, sanitizer Sanitizer) *Service {
	return &Service{
		appRepo:     appRepo,
		listingRepo: listingRepo,
		sanitizer:   sanitizer,
		now:         time.Now,
	}
}

// Create は公開中の求人への応募を作成する。選考段階はappliedから始まる。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.JobListingApplication, error) {
	if in.JobListingID == "" || in.UserID == "" {
		return nil, model.NewValidationError("job_listing_idとuser_idは必須です")
	}

	listing, err := s.listingRepo.FindByID(ctx, in.JobListingID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if listing == nil {
		return nil, model.NewJobListingNotFoundError(in.JobListingID)
	}
	if listing.Status != model.JobListingStatusPublished {
		return nil, model.NewValidationError("公開中の求人にのみ応募できます")
	}

	now := s.now().UTC()
	a := &model.JobListingApplication{
		JobListingID: in.JobListingID,
		UserID:       in.UserID,
		CoverLetter:  s.sanitizeOptional(in.CoverLetter),
		Stage:        model.StageApplied,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.appRepo.Create(ctx, a); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, model.NewConflictError("この求人への応募")
		case errors.Is(err, repository.ErrReferenceNotFound):
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("応募の作成に失敗しました: %w", err)
	}

	slog.Info("応募を受け付けました",
		slog.String("job_listing_id", a.JobListingID),
		slog.String("user_id", a.UserID),
	)
	return a, nil
}

// List は条件に一致する応募一覧を返す。
func (s *Service) List(ctx context.Context, filter repository.ApplicationFilter) ([]*model.JobListingApplication, error) {
	apps, err := s.appRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	return apps, nil
}

// Get は複合キーで応募を返す。
func (s *Service) Get(ctx context.Context, jobListingID, userID string) (*model.JobListingApplication, error) {
	a, err := s.appRepo.Find(ctx, jobListingID, userID)
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if a == nil {
		return nil, model.NewApplicationNotFoundError(jobListingID, userID)
	}
	return a, nil
}

// Update は応募に部分更新を適用する。
func (s *Service) Update(ctx context.Context, jobListingID, userID string, upd model.JobListingApplicationUpdate) (*model.JobListingApplication, error) {
	if upd.Rating != nil && !model.ValidRating(*upd.Rating) {
		return nil, model.NewValidationError(fmt.Sprintf("ratingは%d〜%dで指定してください", model.MinRating, model.MaxRating))
	}
	if upd.Stage != nil && !upd.Stage.Valid() {
		return nil, model.NewValidationError("stageの値が不正です")
	}
	upd.CoverLetter = s.sanitizeOptional(upd.CoverLetter)

	a, err := s.Get(ctx, jobListingID, userID)
	if err != nil {
		return nil, err
	}
	prevStage := a.Stage
	a.Apply(upd)
	a.UpdatedAt = s.now().UTC()

	if err := s.appRepo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("応募の更新に失敗しました: %w", err)
	}
	if prevStage != a.Stage {
		slog.Info("選考段階を変更しました",
			slog.String("job_listing_id", jobListingID),
			slog.String("user_id", userID),
			slog.String("from", string(prevStage)),
			slog.String("to", string(a.Stage)),
		)
	}
	return a, nil
}

// Delete は応募を取り下げる。
func (s *Service) Delete(ctx context.Context, jobListingID, userID string) error {
	deleted, err := s.appRepo.Delete(ctx, jobListingID, userID)
	if err != nil {
		return fmt.Errorf("応募の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewApplicationNotFoundError(jobListingID, userID)
	}
	return nil
}

func (s *Service) sanitizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	clean := s.sanitizer.SanitizeHTML(*v)
	return &clean
}
