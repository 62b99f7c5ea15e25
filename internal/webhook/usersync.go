package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/jobboard/internal/model"
)

// UserStore はユーザー同期が必要とする永続化インターフェース。
// FindByClerkIDは該当ユーザーがいない場合nil, nilを返す。
type UserStore interface {
	FindByClerkID(ctx context.Context, clerkID string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// UserSync はClerkのユーザーイベントをローカルのusersテーブルに反映する。
// 各ハンドラーは同一イベントの再配信に対して冪等である。
type UserSync struct {
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

// NewUserSync はUserSyncを生成する。loggerがnilの場合はslog.Default()を使用する。
func NewUserSync(logger *slog.Logger) *UserSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserSync{
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// HandleCreated はuser.createdイベントを処理する。
// 同じClerk IDのユーザーが既に存在する場合は何もせず成功を返す。
func (s *UserSync) HandleCreated(ctx context.Context, data json.RawMessage, users UserStore) (Outcome, error) {
	cu, err := parseClerkUser(data)
	if err != nil {
		return Outcome{}, err
	}

	existing, err := users.FindByClerkID(ctx, cu.ID)
	if err != nil {
		return Outcome{}, err
	}
	if existing != nil {
		s.logger.Info("ユーザーは既に存在するため作成をスキップします",
			slog.String("clerk_id", cu.ID),
			slog.String("user_id", existing.ID),
		)
		return Outcome{UserID: existing.ID, Skipped: true}, nil
	}

	if cu.Email == nil {
		return Outcome{}, NewUserCreationError(cu.ID, "email address is required", nil)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:          s.newID(),
		ClerkID:     cu.ID,
		Email:       *cu.Email,
		FirstName:   cu.FirstName,
		LastName:    cu.LastName,
		PhoneNumber: cu.PhoneNumber,
		ImageURL:    cu.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := users.Create(ctx, user); err != nil {
		return Outcome{}, NewUserCreationError(cu.ID, "failed to create user", err)
	}

	s.logger.Info("ユーザーを作成しました",
		slog.String("clerk_id", cu.ID),
		slog.String("user_id", user.ID),
	)
	return Outcome{UserID: user.ID}, nil
}

// HandleUpdated はuser.updatedイベントを処理する。
// ペイロードに含まれるフィールドのみを反映する。
func (s *UserSync) HandleUpdated(ctx context.Context, data json.RawMessage, users UserStore) (Outcome, error) {
	cu, err := parseClerkUser(data)
	if err != nil {
		return Outcome{}, err
	}

	user, err := users.FindByClerkID(ctx, cu.ID)
	if err != nil {
		return Outcome{}, err
	}
	if user == nil {
		s.logger.Warn("更新対象のユーザーが見つかりません", slog.String("clerk_id", cu.ID))
		return Outcome{}, NewUserNotFoundError(cu.ID)
	}

	changed := user.Apply(model.UserUpdate{
		Email:       cu.Email,
		FirstName:   cu.FirstName,
		LastName:    cu.LastName,
		PhoneNumber: cu.PhoneNumber,
		ImageURL:    cu.ImageURL,
	})
	if !changed {
		s.logger.Info("ユーザー情報に変更はありません", slog.String("clerk_id", cu.ID))
		return Outcome{UserID: user.ID, Skipped: true}, nil
	}

	user.UpdatedAt = s.now().UTC()
	if err := users.Update(ctx, user); err != nil {
		return Outcome{}, NewUserUpdateError(cu.ID, "failed to update user", err)
	}

	s.logger.Info("ユーザーを更新しました",
		slog.String("clerk_id", cu.ID),
		slog.String("user_id", user.ID),
	)
	return Outcome{UserID: user.ID}, nil
}

// HandleDeleted はuser.deletedイベントを処理する。
// 該当ユーザーがいない場合はSkippedを返し、エラーにしない。
// 応募・設定・履歴書はDBのCASCADEで削除される。
func (s *UserSync) HandleDeleted(ctx context.Context, data json.RawMessage, users UserStore) (Outcome, error) {
	cu, err := parseClerkUser(data)
	if err != nil {
		return Outcome{}, err
	}

	user, err := users.FindByClerkID(ctx, cu.ID)
	if err != nil {
		return Outcome{}, err
	}
	if user == nil {
		s.logger.Info("削除対象のユーザーが存在しないためスキップします", slog.String("clerk_id", cu.ID))
		return Outcome{Skipped: true}, nil
	}

	deleted, err := users.DeleteByID(ctx, user.ID)
	if err != nil {
		return Outcome{}, NewUserDeletionError(cu.ID, "failed to delete user", err)
	}
	if !deleted {
		return Outcome{UserID: user.ID, Skipped: true}, nil
	}

	s.logger.Info("ユーザーを削除しました",
		slog.String("clerk_id", cu.ID),
		slog.String("user_id", user.ID),
	)
	return Outcome{UserID: user.ID}, nil
}
